package tasks

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"reflect"
	"sort"
	"time"

	"neuroscreen/internal/models"
)

var (
	// ErrTraceOrder is returned when trace timestamps go backwards.
	ErrTraceOrder = errors.New("trace timestamps are not in order")
	// ErrTraceIncomplete is returned when a trace ends before the task emits
	// its result.
	ErrTraceIncomplete = errors.New("trace ended before the task completed")
	// ErrUnknownEvent is returned for a wire event type the task does not know.
	ErrUnknownEvent = errors.New("unknown trace event")
)

// maxTimerEvents bounds how many self-scheduled events a replay will process,
// so a malformed machine cannot loop forever.
const maxTimerEvents = 10000

type virtualTimer struct {
	due   time.Duration
	seq   int
	event Event
}

// pendingDraw is a Roll the trace still has to answer. The answering event
// has the type Draw produces and may not arrive before due.
type pendingDraw struct {
	due  time.Duration
	kind reflect.Type
}

// drawKind reports which event type a Roll produces. Draw is pure, so a
// throwaway generator is enough to find out.
func drawKind(r Roll) reflect.Type {
	return reflect.TypeOf(r.Draw(rand.New(rand.NewPCG(0, 0))))
}

// Replay folds a recorded trace through a task without real timers. The
// trace carries the user inputs and the outcomes of random draws; After
// effects are simulated on a virtual clock and interleaved with the trace by
// timestamp. The outcome of a Roll is rejected with ErrTraceOrder when it
// arrives before the Roll's delay has elapsed. Steps after the task completes
// are ignored.
func Replay[S Machine[S]](initial S, steps []Step) (models.TrialResult, S, error) {
	state := initial
	var (
		queue []virtualTimer
		draw  *pendingDraw
		seq   int
		fired int
		prev  time.Duration
	)

	apply := func(at time.Duration, ev Event) models.TrialResult {
		next, effects := state.Next(at, ev)
		state = next
		var result models.TrialResult
		for _, effect := range effects {
			switch e := effect.(type) {
			case ResetTimers:
				queue = queue[:0]
				draw = nil
			case Roll:
				draw = &pendingDraw{due: at + e.Delay, kind: drawKind(e)}
			case After:
				seq++
				queue = append(queue, virtualTimer{due: at + e.Delay, seq: seq, event: e.Event})
			case Complete:
				if result == nil {
					result = e.Result
				}
			}
		}
		sort.SliceStable(queue, func(i, j int) bool {
			if queue[i].due == queue[j].due {
				return queue[i].seq < queue[j].seq
			}
			return queue[i].due < queue[j].due
		})
		return result
	}

	// drain fires virtual timers due at or before limit.
	drain := func(limit time.Duration, unbounded bool) (models.TrialResult, error) {
		for len(queue) > 0 && (unbounded || queue[0].due <= limit) {
			fired++
			if fired > maxTimerEvents {
				return nil, fmt.Errorf("replay exceeded %d timer events", maxTimerEvents)
			}
			t := queue[0]
			queue = queue[1:]
			if res := apply(t.due, t.event); res != nil {
				return res, nil
			}
		}
		return nil, nil
	}

	for i, step := range steps {
		if step.At < prev {
			return nil, state, fmt.Errorf("step %d at %s after %s: %w", i, step.At, prev, ErrTraceOrder)
		}
		prev = step.At

		res, err := drain(step.At, false)
		if err != nil {
			return nil, state, err
		}
		if res != nil {
			return res, state, nil
		}
		if draw != nil && reflect.TypeOf(step.Event) == draw.kind {
			if step.At < draw.due {
				return nil, state, fmt.Errorf("step %d at %s answers a draw not due until %s: %w", i, step.At, draw.due, ErrTraceOrder)
			}
			draw = nil
		}
		if res := apply(step.At, step.Event); res != nil {
			return res, state, nil
		}
	}

	res, err := drain(0, true)
	if err != nil {
		return nil, state, err
	}
	if res != nil {
		return res, state, nil
	}
	return nil, state, ErrTraceIncomplete
}
