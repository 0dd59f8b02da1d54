package timing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func TestManualFiresInDeadlineOrder(t *testing.T) {
	clock := NewManual(epoch)
	var fired []string

	clock.AfterFunc(300*time.Millisecond, func() { fired = append(fired, "late") })
	clock.AfterFunc(100*time.Millisecond, func() { fired = append(fired, "early") })
	clock.AfterFunc(100*time.Millisecond, func() { fired = append(fired, "early-second") })

	clock.Advance(200 * time.Millisecond)
	assert.Equal(t, []string{"early", "early-second"}, fired)
	assert.Equal(t, 1, clock.Pending())

	clock.Advance(100 * time.Millisecond)
	assert.Equal(t, []string{"early", "early-second", "late"}, fired)
	assert.Equal(t, epoch.Add(300*time.Millisecond), clock.Now())
}

func TestManualChainedTimers(t *testing.T) {
	clock := NewManual(epoch)
	var at []time.Duration

	var step func()
	step = func() {
		at = append(at, clock.Now().Sub(epoch))
		if len(at) < 3 {
			clock.AfterFunc(50*time.Millisecond, step)
		}
	}
	clock.AfterFunc(50*time.Millisecond, step)

	clock.Advance(time.Second)
	require.Len(t, at, 3)
	assert.Equal(t, []time.Duration{50 * time.Millisecond, 100 * time.Millisecond, 150 * time.Millisecond}, at)
}

func TestManualStop(t *testing.T) {
	clock := NewManual(epoch)
	called := false
	timer := clock.AfterFunc(10*time.Millisecond, func() { called = true })

	assert.True(t, timer.Stop())
	assert.False(t, timer.Stop())
	clock.Advance(time.Second)
	assert.False(t, called)
	assert.Zero(t, clock.Pending())
}

func TestStopwatchElapsed(t *testing.T) {
	clock := NewManual(epoch)
	sw := StartStopwatch(clock)
	clock.Advance(1234 * time.Millisecond)

	assert.Equal(t, 1234*time.Millisecond, sw.Elapsed())
}
