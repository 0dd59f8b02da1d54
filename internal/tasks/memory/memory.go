// Package memory implements the sequence-recall task on a 3x3 grid. Each
// level plays back a random cell sequence that the user then repeats.
package memory

import (
	"math/rand/v2"
	"slices"
	"time"

	"neuroscreen/internal/models"
	"neuroscreen/internal/tasks"
)

const (
	GridSize = 9
	Levels   = 5

	LeadIn       = 1000 * time.Millisecond
	CellOnTime   = 600 * time.Millisecond
	CellGap      = 200 * time.Millisecond
	CorrectFlash = 200 * time.Millisecond
	ErrorFlash   = 500 * time.Millisecond
	LevelPause   = 800 * time.Millisecond

	none = -1
)

// SequenceLength is the number of cells played back at level (1-based).
func SequenceLength(level int) int {
	return 2 + level/2
}

type Phase int

const (
	Waiting Phase = iota
	Showing
	Input
	Done
)

func (p Phase) String() string {
	switch p {
	case Waiting:
		return "waiting"
	case Showing:
		return "showing"
	case Input:
		return "input"
	case Done:
		return "done"
	}
	return "unknown"
}

// Start mounts the task and begins level 1.
type Start struct{}

// SequenceReady carries the randomly drawn sequence for the current level.
type SequenceReady struct{ Cells []int }

// Tap is a user tap on a grid cell (0-8, row-major).
type Tap struct{ Cell int }

// Timer events.
type (
	cellOn       struct{ index int }
	cellOff      struct{ index int }
	inputOpen    struct{}
	tapSettled   struct{}
	errorCleared struct{}
	levelStart   struct{}
)

// State is the memory task state machine.
type State struct {
	Phase    Phase
	Level    int
	Score    int
	Sequence []int
	Entered  []int
	Active   int // highlighted cell, -1 for none
	Errored  int // cell flashing an error, -1 for none
	Busy     bool

	started          bool
	awaitingSequence bool
}

func New() State {
	return State{Phase: Waiting, Level: 1, Active: none, Errored: none}
}

// Accepting reports whether a tap would currently be processed.
func (s State) Accepting() bool {
	return s.Phase == Input && !s.Busy
}

func (s State) Next(at time.Duration, ev tasks.Event) (State, []tasks.Effect) {
	switch e := ev.(type) {
	case Start:
		if s.started {
			return s, nil
		}
		s = New()
		s.started = true
		return s.beginLevel([]tasks.Effect{tasks.ResetTimers{}})

	case levelStart:
		if !s.started || s.Phase != Waiting || s.awaitingSequence {
			return s, nil
		}
		return s.beginLevel(nil)

	case SequenceReady:
		if !s.awaitingSequence || !validSequence(e.Cells, SequenceLength(s.Level)) {
			return s, nil
		}
		s.awaitingSequence = false
		s.Sequence = slices.Clone(e.Cells)
		s.Entered = nil
		s.Phase = Showing
		s.Active = none
		s.Errored = none
		return s, []tasks.Effect{tasks.After{Delay: LeadIn, Event: cellOn{index: 0}}}

	case cellOn:
		if s.Phase != Showing || e.index >= len(s.Sequence) {
			return s, nil
		}
		s.Active = s.Sequence[e.index]
		return s, []tasks.Effect{tasks.After{Delay: CellOnTime, Event: cellOff{index: e.index}}}

	case cellOff:
		if s.Phase != Showing {
			return s, nil
		}
		s.Active = none
		if e.index+1 < len(s.Sequence) {
			return s, []tasks.Effect{tasks.After{Delay: CellGap, Event: cellOn{index: e.index + 1}}}
		}
		return s, []tasks.Effect{tasks.After{Delay: CellGap, Event: inputOpen{}}}

	case inputOpen:
		if s.Phase == Showing {
			s.Phase = Input
		}
		return s, nil

	case Tap:
		if !s.Accepting() || e.Cell < 0 || e.Cell >= GridSize {
			return s, nil
		}
		s.Busy = true
		expected := s.Sequence[len(s.Entered)]
		if e.Cell != expected {
			s.Errored = e.Cell
			return s, []tasks.Effect{tasks.After{Delay: ErrorFlash, Event: errorCleared{}}}
		}
		s.Active = e.Cell
		s.Entered = append(slices.Clip(s.Entered), e.Cell)
		return s, []tasks.Effect{tasks.After{Delay: CorrectFlash, Event: tapSettled{}}}

	case tapSettled:
		if s.Phase != Input || !s.Busy || s.Errored != none {
			return s, nil
		}
		s.Active = none
		s.Busy = false
		if len(s.Entered) < len(s.Sequence) {
			return s, nil
		}
		s.Score++
		return s.advance()

	case errorCleared:
		if s.Phase != Input || !s.Busy || s.Errored == none {
			return s, nil
		}
		s.Errored = none
		s.Busy = false
		return s.advance()
	}
	return s, nil
}

// advance moves past the current level, finishing after the last one.
func (s State) advance() (State, []tasks.Effect) {
	if s.Level >= Levels {
		s.Phase = Done
		result := models.MemoryResult{MemoryScore: s.Score, LevelsPlayed: s.Level}
		return s, []tasks.Effect{tasks.Complete{Result: result}}
	}
	s.Phase = Waiting
	s.Level++
	return s, []tasks.Effect{tasks.After{Delay: LevelPause, Event: levelStart{}}}
}

func (s State) beginLevel(effects []tasks.Effect) (State, []tasks.Effect) {
	s.Phase = Waiting
	s.awaitingSequence = true
	s.Active = none
	s.Errored = none
	length := SequenceLength(s.Level)
	return s, append(effects, tasks.Roll{
		Draw: func(r *rand.Rand) tasks.Event {
			return SequenceReady{Cells: RandomSequence(r, length)}
		},
	})
}

// RandomSequence draws length independent cells; repeats are allowed.
func RandomSequence(r *rand.Rand, length int) []int {
	cells := make([]int, length)
	for i := range cells {
		cells[i] = r.IntN(GridSize)
	}
	return cells
}

func validSequence(cells []int, length int) bool {
	if len(cells) != length {
		return false
	}
	for _, c := range cells {
		if c < 0 || c >= GridSize {
			return false
		}
	}
	return true
}

// DecodeTrace parses a recorded memory trace. Playback and flash timers are
// reconstructed during replay, so a trace only carries the start, the drawn
// sequences and the taps.
func DecodeTrace(data []byte) ([]tasks.Step, error) {
	return tasks.DecodeTrace(data, decodeEvent)
}

func decodeEvent(w tasks.WireEvent) (tasks.Event, error) {
	switch w.Type {
	case "start":
		return Start{}, nil
	case "sequence":
		return SequenceReady{Cells: w.Cells}, nil
	case "tap":
		return Tap{Cell: w.Cell}, nil
	}
	return nil, tasks.UnknownType(w.Type)
}
