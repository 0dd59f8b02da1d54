// Package tasks runs the mini-game state machines. Every task is a value
// type with a pure transition method; the Runner interprets the effects a
// transition returns (timers, random draws, completion) and feeds the
// resulting events back in.
package tasks

import (
	"math/rand/v2"
	"time"

	"neuroscreen/internal/models"
)

// Event is any input to a task: a user action, a fired timer or the outcome
// of a random draw.
type Event any

// Effect is an instruction from a transition to its interpreter.
type Effect interface {
	isEffect()
}

// After schedules Event to be delivered once Delay has elapsed.
type After struct {
	Delay time.Duration
	Event Event
}

// Roll delivers the event produced by Draw after Delay. All randomness a task
// needs goes through Roll so transitions stay deterministic.
type Roll struct {
	Delay time.Duration
	Draw  func(r *rand.Rand) Event
}

// Complete carries the task's result. A task emits it exactly once.
type Complete struct {
	Result models.TrialResult
}

// ResetTimers cancels every timer the task still has pending.
type ResetTimers struct{}

func (After) isEffect()       {}
func (Roll) isEffect()        {}
func (Complete) isEffect()    {}
func (ResetTimers) isEffect() {}

// Machine is implemented by every task state. Next must not mutate the
// receiver; it returns the successor state.
type Machine[S any] interface {
	Next(at time.Duration, ev Event) (S, []Effect)
}

// Step is one timestamped event of a recorded trace. At is measured from the
// moment the task was mounted.
type Step struct {
	At    time.Duration
	Event Event
}
