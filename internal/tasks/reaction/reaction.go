// Package reaction implements the motor reaction-speed task: targets appear
// one at a time at random positions and the user taps each as quickly as
// possible.
package reaction

import (
	"math"
	"math/rand/v2"
	"slices"
	"time"

	"neuroscreen/internal/metrics"
	"neuroscreen/internal/tasks"
)

const (
	// TotalTargets is the number of successful hits that ends the task.
	TotalTargets = 10
	// DefaultPadding keeps targets this far from every edge of the play area.
	DefaultPadding = 60.0
	// SettleDelay is how long the target stays hidden before reappearing.
	SettleDelay = 100 * time.Millisecond
)

type Phase int

const (
	Idle Phase = iota
	Playing
	Finished
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Playing:
		return "playing"
	case Finished:
		return "finished"
	}
	return "unknown"
}

// Point is a position inside the play area, in the area's units.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Area is the measured size of the play area. A zero area means the surface
// has not been laid out yet.
type Area struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (a Area) Valid() bool { return a.Width > 0 && a.Height > 0 }

// Start begins a run. Area may be zero if the surface is not measured yet;
// the first spawn then waits for a Resize.
type Start struct{ Area Area }

// Resize reports a new play area size.
type Resize struct{ Area Area }

// TargetShown is delivered when the settle delay expires.
type TargetShown struct{ Position Point }

// TargetTap is an input event on the target itself.
type TargetTap struct{}

// BackgroundTap is an input event anywhere in the play area except the target.
type BackgroundTap struct{}

// State is the reaction task state machine.
type State struct {
	Phase        Phase
	Padding      float64
	Area         Area
	Target       Point
	Visible      bool
	Spawning     bool
	AwaitingArea bool
	ShownAt      time.Duration
	Hits         int
	Misses       int
	Samples      []float64 // reaction times in ms
}

// New returns an idle task using DefaultPadding.
func New() State {
	return State{Phase: Idle, Padding: DefaultPadding}
}

// WithPadding returns a copy of s using a different edge inset, for play
// areas measured in units other than pixels.
func (s State) WithPadding(p float64) State {
	s.Padding = p
	return s
}

func (s State) Next(at time.Duration, ev tasks.Event) (State, []tasks.Effect) {
	switch e := ev.(type) {
	case Start:
		if s.Phase != Idle {
			return s, nil
		}
		next := State{Phase: Playing, Padding: s.Padding, Area: e.Area}
		return next.spawn([]tasks.Effect{tasks.ResetTimers{}})

	case Resize:
		if !e.Area.Valid() {
			return s, nil
		}
		s.Area = e.Area
		if s.Phase == Playing && s.AwaitingArea {
			s.AwaitingArea = false
			return s.spawn(nil)
		}
		return s, nil

	case TargetShown:
		if s.Phase != Playing || !s.Spawning {
			return s, nil
		}
		s.Spawning = false
		s.Visible = true
		s.Target = e.Position
		s.ShownAt = at
		return s, nil

	case TargetTap:
		if s.Phase != Playing || !s.Visible {
			return s, nil
		}
		s.Samples = append(slices.Clip(s.Samples), tasks.ToMillis(at-s.ShownAt))
		s.Hits++
		s.Visible = false
		if s.Hits >= TotalTargets {
			s.Phase = Finished
			result := metrics.CalculateReactionMetrics(s.Samples, s.Hits, s.Misses, TotalTargets)
			return s, []tasks.Effect{tasks.Complete{Result: result}}
		}
		return s.spawn(nil)

	case BackgroundTap:
		if s.Phase == Playing {
			s.Misses++
		}
		return s, nil
	}
	return s, nil
}

// spawn hides the target and schedules the next one. Without a measured area
// the spawn is deferred until Resize.
func (s State) spawn(effects []tasks.Effect) (State, []tasks.Effect) {
	s.Visible = false
	if !s.Area.Valid() {
		s.AwaitingArea = true
		return s, effects
	}
	s.Spawning = true
	area, padding := s.Area, s.Padding
	return s, append(effects, tasks.Roll{
		Delay: SettleDelay,
		Draw: func(r *rand.Rand) tasks.Event {
			return TargetShown{Position: RandomPosition(r, area, padding)}
		},
	})
}

// Contains reports whether p lands on the visible target.
func (s State) Contains(p Point, radius float64) bool {
	if !s.Visible {
		return false
	}
	return math.Hypot(p.X-s.Target.X, p.Y-s.Target.Y) <= radius
}

// RandomPosition picks a uniformly random point inside area, inset by
// padding on every side.
func RandomPosition(r *rand.Rand, area Area, padding float64) Point {
	return Point{
		X: inset(r, area.Width, padding),
		Y: inset(r, area.Height, padding),
	}
}

func inset(r *rand.Rand, extent, padding float64) float64 {
	span := extent - 2*padding
	if span <= 0 {
		return extent / 2
	}
	return r.Float64()*span + padding
}

// DecodeTrace parses a recorded reaction trace.
func DecodeTrace(data []byte) ([]tasks.Step, error) {
	return tasks.DecodeTrace(data, decodeEvent)
}

func decodeEvent(w tasks.WireEvent) (tasks.Event, error) {
	switch w.Type {
	case "start":
		return Start{Area: Area{Width: w.Width, Height: w.Height}}, nil
	case "resize":
		return Resize{Area: Area{Width: w.Width, Height: w.Height}}, nil
	case "target_shown":
		return TargetShown{Position: Point{X: w.X, Y: w.Y}}, nil
	case "target_tap":
		return TargetTap{}, nil
	case "background_tap":
		return BackgroundTap{}, nil
	}
	return nil, tasks.UnknownType(w.Type)
}
