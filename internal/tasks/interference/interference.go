// Package interference implements the color/word (Stroop-style) task: a
// color name is rendered in an ink color and the user must pick the ink.
package interference

import (
	"math/rand/v2"
	"strings"
	"time"

	"neuroscreen/internal/metrics"
	"neuroscreen/internal/tasks"
)

// Rounds is the fixed number of stimuli per run.
const Rounds = 8

// Color is one palette entry.
type Color struct {
	Name string `json:"name"`
	Hex  string `json:"hex"`
}

// Palette is the fixed set of names and inks.
var Palette = []Color{
	{Name: "Red", Hex: "#ef4444"},
	{Name: "Blue", Hex: "#3b82f6"},
	{Name: "Green", Hex: "#22c55e"},
	{Name: "Yellow", Hex: "#eab308"},
}

// PaletteIndex returns the palette position of hex, or -1.
func PaletteIndex(hex string) int {
	for i, c := range Palette {
		if strings.EqualFold(c.Hex, hex) {
			return i
		}
	}
	return -1
}

type Phase int

const (
	Waiting Phase = iota
	Active
	Done
)

func (p Phase) String() string {
	switch p {
	case Waiting:
		return "waiting"
	case Active:
		return "active"
	case Done:
		return "done"
	}
	return "unknown"
}

// Start mounts the task and draws the first stimulus.
type Start struct{}

// StimulusReady carries a drawn stimulus: palette indexes for the word and
// the ink, chosen independently.
type StimulusReady struct {
	Word int
	Ink  int
}

// Choice is the user's answer, identified by the chosen color's hex.
type Choice struct{ Hex string }

// State is the interference task state machine.
type State struct {
	Phase   Phase
	Round   int // rounds answered so far
	Correct int
	Word    int
	Ink     int

	started  bool
	awaiting bool
}

func New() State {
	return State{Phase: Waiting}
}

// Stimulus returns the word to display and the ink to render it in.
func (s State) Stimulus() (word Color, ink Color) {
	return Palette[s.Word], Palette[s.Ink]
}

func (s State) Next(at time.Duration, ev tasks.Event) (State, []tasks.Effect) {
	switch e := ev.(type) {
	case Start:
		if s.started {
			return s, nil
		}
		s = New()
		s.started = true
		return s.draw([]tasks.Effect{tasks.ResetTimers{}})

	case StimulusReady:
		if !s.awaiting || !inPalette(e.Word) || !inPalette(e.Ink) {
			return s, nil
		}
		s.awaiting = false
		s.Phase = Active
		s.Word, s.Ink = e.Word, e.Ink
		return s, nil

	case Choice:
		if s.Phase != Active || PaletteIndex(e.Hex) < 0 {
			return s, nil
		}
		if strings.EqualFold(e.Hex, Palette[s.Ink].Hex) {
			s.Correct++
		}
		s.Round++
		if s.Round >= Rounds {
			s.Phase = Done
			result := metrics.CalculateInterferenceMetrics(s.Correct, Rounds)
			return s, []tasks.Effect{tasks.Complete{Result: result}}
		}
		return s.draw(nil)
	}
	return s, nil
}

// RunningAccuracy is correct answers over the full round count, in percent.
func (s State) RunningAccuracy() float64 {
	return metrics.Percent(s.Correct, Rounds)
}

func (s State) draw(effects []tasks.Effect) (State, []tasks.Effect) {
	s.Phase = Waiting
	s.awaiting = true
	return s, append(effects, tasks.Roll{Draw: func(r *rand.Rand) tasks.Event {
		return RandomStimulus(r)
	}})
}

// RandomStimulus picks word and ink independently; they may coincide.
func RandomStimulus(r *rand.Rand) StimulusReady {
	return StimulusReady{Word: r.IntN(len(Palette)), Ink: r.IntN(len(Palette))}
}

func inPalette(i int) bool {
	return i >= 0 && i < len(Palette)
}

// DecodeTrace parses a recorded interference trace.
func DecodeTrace(data []byte) ([]tasks.Step, error) {
	return tasks.DecodeTrace(data, decodeEvent)
}

func decodeEvent(w tasks.WireEvent) (tasks.Event, error) {
	switch w.Type {
	case "start":
		return Start{}, nil
	case "stimulus":
		return StimulusReady{Word: w.Word, Ink: w.Ink}, nil
	case "choice":
		return Choice{Hex: w.Choice}, nil
	}
	return nil, tasks.UnknownType(w.Type)
}
