package sequencing

import (
	"math/rand/v2"
	"testing"
	"time"

	"neuroscreen/internal/models"
	"neuroscreen/internal/tasks"
	"neuroscreen/internal/timing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRunner(t *testing.T) (*tasks.Runner[State], *timing.Manual, *[]models.TrialResult) {
	t.Helper()
	var results []models.TrialResult
	clock := timing.NewManual(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))
	r := tasks.NewRunner(New(), tasks.Options{
		Clock: clock,
		Rand:  rand.New(rand.NewPCG(9, 9)),
		OnComplete: func(res models.TrialResult) {
			results = append(results, res)
		},
	})
	return r, clock, &results
}

func TestOrderedTapsComplete(t *testing.T) {
	r, clock, results := newRunner(t)
	r.Send(Start{})
	require.True(t, r.State().Ready())
	require.Len(t, r.State().Markers, Markers)

	for id := 1; id <= Markers; id++ {
		clock.Advance(700 * time.Millisecond)
		r.Send(Tap{ID: id})
	}

	require.Len(t, *results, 1)
	assert.Equal(t, models.SequencingResult{SequencingTime: 4200}, (*results)[0])
	assert.True(t, r.State().Finished)
}

func TestStrayTapsAreNoOps(t *testing.T) {
	s := New()
	s, _ = s.Next(0, Start{})
	s, _ = s.Next(0, MarkersReady{Markers: RandomMarkers(rand.New(rand.NewPCG(1, 1)))})

	s, _ = s.Next(time.Second, Tap{ID: 1})
	before := s
	for _, id := range []int{1, 3, 6, 0, 99} {
		var effects []tasks.Effect
		s, effects = s.Next(2*time.Second, Tap{ID: id})
		assert.Empty(t, effects)
	}
	assert.Equal(t, before, s)
	assert.Equal(t, 2, s.NextExpected)
	assert.True(t, s.Cleared(1))
	assert.False(t, s.Cleared(2))
}

func TestOutOfOrderNeverTerminates(t *testing.T) {
	r, _, results := newRunner(t)
	r.Send(Start{})
	for _, id := range []int{6, 5, 4, 3, 2} {
		r.Send(Tap{ID: id})
	}
	assert.Empty(t, *results)
	assert.Equal(t, 1, r.State().NextExpected)
}

func TestTapsBeforeMarkersIgnored(t *testing.T) {
	s := New()
	s, _ = s.Next(0, Start{})
	s, _ = s.Next(0, Tap{ID: 1})
	assert.Equal(t, 1, s.NextExpected)
}

func TestRandomMarkersWithinInset(t *testing.T) {
	r := rand.New(rand.NewPCG(2, 3))
	for i := 0; i < 50; i++ {
		for j, m := range RandomMarkers(r) {
			assert.Equal(t, j+1, m.ID)
			assert.GreaterOrEqual(t, m.X, MinCoord)
			assert.Less(t, m.X, MaxCoord)
			assert.GreaterOrEqual(t, m.Y, MinCoord)
			assert.Less(t, m.Y, MaxCoord)
		}
	}
}

func TestRejectsMalformedMarkers(t *testing.T) {
	s := New()
	s, _ = s.Next(0, Start{})
	bad, _ := s.Next(0, MarkersReady{Markers: []Marker{{ID: 1, X: 20, Y: 20}}})
	assert.False(t, bad.Ready())
}

func TestReplayMeasuresFromMount(t *testing.T) {
	trace := `[
		{"at":0,"type":"start"},
		{"at":0,"type":"markers","markers":[
			{"id":1,"x":20,"y":20},{"id":2,"x":40,"y":30},{"id":3,"x":60,"y":50},
			{"id":4,"x":30,"y":70},{"id":5,"x":80,"y":80},{"id":6,"x":50,"y":50}]},
		{"at":900,"type":"tap","id":1},
		{"at":1200,"type":"tap","id":3},
		{"at":1800,"type":"tap","id":2},
		{"at":2500,"type":"tap","id":3},
		{"at":3300,"type":"tap","id":4},
		{"at":4100,"type":"tap","id":5},
		{"at":5250.7,"type":"tap","id":6},
		{"at":6000,"type":"tap","id":1}
	]`
	steps, err := DecodeTrace([]byte(trace))
	require.NoError(t, err)

	res, _, err := tasks.Replay(New(), steps)
	require.NoError(t, err)
	assert.Equal(t, models.SequencingResult{SequencingTime: 5250}, res)
}

func TestReplayOutOfOrderTimestamps(t *testing.T) {
	steps, err := DecodeTrace([]byte(`[{"at":10,"type":"start"},{"at":5,"type":"tap","id":1}]`))
	require.NoError(t, err)
	_, _, err = tasks.Replay(New(), steps)
	assert.ErrorIs(t, err, tasks.ErrTraceOrder)
}
