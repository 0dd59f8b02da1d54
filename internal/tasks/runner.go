package tasks

import (
	"math/rand/v2"
	"sync"
	"time"

	"neuroscreen/internal/models"
	"neuroscreen/internal/timing"

	"go.uber.org/zap"
)

// Options configures a Runner. Zero values fall back to the wall clock, a
// time-seeded generator and a no-op logger.
type Options struct {
	Clock      timing.Clock
	Rand       *rand.Rand
	Log        *zap.Logger
	OnChange   func()
	OnComplete func(models.TrialResult)
}

// Runner owns one mounted task. It serialises every event (user input and
// timer callbacks alike), so a task sees a single logical event loop.
type Runner[S Machine[S]] struct {
	mu        sync.Mutex
	state     S
	opts      Options
	watch     *timing.Stopwatch
	timers    map[int]timing.Timer
	nextTimer int
	alive     bool
	completed bool
	result    models.TrialResult
}

// NewRunner mounts a task. Elapsed times reported to the task are measured
// from this call.
func NewRunner[S Machine[S]](initial S, opts Options) *Runner[S] {
	if opts.Clock == nil {
		opts.Clock = timing.System
	}
	if opts.Rand == nil {
		seed := uint64(time.Now().UnixNano())
		opts.Rand = rand.New(rand.NewPCG(seed, seed>>17|1))
	}
	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}
	return &Runner[S]{
		state:  initial,
		opts:   opts,
		watch:  timing.StartStopwatch(opts.Clock),
		timers: make(map[int]timing.Timer),
		alive:  true,
	}
}

// Send delivers a user event. Events sent after Stop are dropped.
func (r *Runner[S]) Send(ev Event) {
	r.mu.Lock()
	if !r.alive {
		r.mu.Unlock()
		return
	}
	notify := r.run(ev)
	r.mu.Unlock()
	notify()
}

// State returns a snapshot of the current task state.
func (r *Runner[S]) State() S {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Result returns the emitted result once the task has completed.
func (r *Runner[S]) Result() (models.TrialResult, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.result, r.completed
}

// Elapsed is the time since the task was mounted.
func (r *Runner[S]) Elapsed() time.Duration {
	return r.watch.Elapsed()
}

// Pending reports how many timers are outstanding.
func (r *Runner[S]) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.timers)
}

// Stop tears the task down. Pending timers are cancelled and any callback
// already in flight becomes a no-op.
func (r *Runner[S]) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.alive = false
	r.stopTimersLocked()
}

// run applies ev and every zero-delay follow-up. Caller holds r.mu. The
// returned func invokes the observer callbacks and must be called after the
// lock is released.
func (r *Runner[S]) run(ev Event) func() {
	var completed models.TrialResult
	queue := []Event{ev}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		next, effects := r.state.Next(r.watch.Elapsed(), current)
		r.state = next

		for _, effect := range effects {
			switch e := effect.(type) {
			case ResetTimers:
				r.stopTimersLocked()
			case After:
				if e.Delay <= 0 {
					queue = append(queue, e.Event)
					continue
				}
				event := e.Event
				r.scheduleLocked(e.Delay, func() Event { return event })
			case Roll:
				if e.Delay <= 0 {
					queue = append(queue, e.Draw(r.opts.Rand))
					continue
				}
				draw := e.Draw
				r.scheduleLocked(e.Delay, func() Event { return draw(r.opts.Rand) })
			case Complete:
				if r.completed {
					r.opts.Log.Warn("Task emitted a second result; ignoring",
						zap.String("task", string(e.Result.Task())))
					continue
				}
				r.completed = true
				r.result = e.Result
				completed = e.Result
				r.stopTimersLocked()
				r.opts.Log.Debug("Task completed",
					zap.String("task", string(e.Result.Task())),
					zap.Duration("elapsed", r.watch.Elapsed()))
			}
		}
	}

	onChange, onComplete := r.opts.OnChange, r.opts.OnComplete
	return func() {
		if onChange != nil {
			onChange()
		}
		if completed != nil && onComplete != nil {
			onComplete(completed)
		}
	}
}

func (r *Runner[S]) scheduleLocked(d time.Duration, produce func() Event) {
	r.nextTimer++
	id := r.nextTimer
	r.timers[id] = r.opts.Clock.AfterFunc(d, func() { r.fire(id, produce) })
}

// fire is the timer callback. A timer that was reset or outlived its task is
// recognised by its missing id and ignored.
func (r *Runner[S]) fire(id int, produce func() Event) {
	r.mu.Lock()
	if _, ok := r.timers[id]; !ok || !r.alive {
		r.mu.Unlock()
		return
	}
	delete(r.timers, id)
	notify := r.run(produce())
	r.mu.Unlock()
	notify()
}

func (r *Runner[S]) stopTimersLocked() {
	for id, t := range r.timers {
		t.Stop()
		delete(r.timers, id)
	}
}
