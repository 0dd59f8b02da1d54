// Package sequencing implements the numbered-path task: six markers are
// scattered over the play area and must be tapped in ascending order.
package sequencing

import (
	"math/rand/v2"
	"time"

	"neuroscreen/internal/metrics"
	"neuroscreen/internal/tasks"
)

const (
	Markers = 6

	// Marker coordinates are percentages of the play area, drawn from
	// [MinCoord, MaxCoord) so markers never clip the edges.
	MinCoord = 15.0
	MaxCoord = 85.0
)

// Marker is a numbered target at (X%, Y%) of the play area.
type Marker struct {
	ID int     `json:"id"`
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
}

// Start mounts the task. The timed interval begins here.
type Start struct{}

// MarkersReady carries the randomly placed markers.
type MarkersReady struct{ Markers []Marker }

// Tap is a tap on the marker with the given id.
type Tap struct{ ID int }

// State is the sequencing task state machine.
type State struct {
	Markers      []Marker
	NextExpected int
	StartedAt    time.Duration
	Finished     bool

	started  bool
	awaiting bool
}

func New() State {
	return State{NextExpected: 1}
}

// Ready reports whether markers are placed and taps are being counted.
func (s State) Ready() bool {
	return s.started && !s.awaiting && !s.Finished
}

// Cleared reports whether the marker with id has already been tapped.
func (s State) Cleared(id int) bool {
	return id < s.NextExpected
}

func (s State) Next(at time.Duration, ev tasks.Event) (State, []tasks.Effect) {
	switch e := ev.(type) {
	case Start:
		if s.started {
			return s, nil
		}
		s = New()
		s.started = true
		s.awaiting = true
		s.StartedAt = at
		return s, []tasks.Effect{
			tasks.ResetTimers{},
			tasks.Roll{Draw: func(r *rand.Rand) tasks.Event {
				return MarkersReady{Markers: RandomMarkers(r)}
			}},
		}

	case MarkersReady:
		if !s.awaiting || !validMarkers(e.Markers) {
			return s, nil
		}
		s.awaiting = false
		s.Markers = append([]Marker(nil), e.Markers...)
		return s, nil

	case Tap:
		if !s.Ready() || e.ID != s.NextExpected {
			return s, nil
		}
		if e.ID == Markers {
			s.Finished = true
			s.NextExpected++
			result := metrics.CalculateSequencingMetrics(at - s.StartedAt)
			return s, []tasks.Effect{tasks.Complete{Result: result}}
		}
		s.NextExpected++
		return s, nil
	}
	return s, nil
}

// RandomMarkers places markers 1..Markers independently; overlaps are
// possible and accepted.
func RandomMarkers(r *rand.Rand) []Marker {
	out := make([]Marker, Markers)
	for i := range out {
		out[i] = Marker{
			ID: i + 1,
			X:  MinCoord + r.Float64()*(MaxCoord-MinCoord),
			Y:  MinCoord + r.Float64()*(MaxCoord-MinCoord),
		}
	}
	return out
}

func validMarkers(markers []Marker) bool {
	if len(markers) != Markers {
		return false
	}
	for i, m := range markers {
		if m.ID != i+1 || m.X < 0 || m.X > 100 || m.Y < 0 || m.Y > 100 {
			return false
		}
	}
	return true
}

// DecodeTrace parses a recorded sequencing trace.
func DecodeTrace(data []byte) ([]tasks.Step, error) {
	return tasks.DecodeTrace(data, decodeEvent)
}

func decodeEvent(w tasks.WireEvent) (tasks.Event, error) {
	switch w.Type {
	case "start":
		return Start{}, nil
	case "markers":
		markers := make([]Marker, len(w.Markers))
		for i, m := range w.Markers {
			markers[i] = Marker{ID: m.ID, X: m.X, Y: m.Y}
		}
		return MarkersReady{Markers: markers}, nil
	case "tap":
		return Tap{ID: w.ID}, nil
	}
	return nil, tasks.UnknownType(w.Type)
}
