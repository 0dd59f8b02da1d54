package repository

import (
	"errors"
	"sync"
	"testing"
	"time"

	"neuroscreen/internal/models"
	"neuroscreen/internal/session"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) (*Store, *time.Time) {
	t.Helper()
	a, err := models.LoadAssessment("")
	require.NoError(t, err)
	s := NewStore(a, nil)
	now := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }
	return s, &now
}

func TestCreateAndUpdate(t *testing.T) {
	s, _ := newStore(t)
	id := s.CreateSession()
	assert.Equal(t, 1, s.Len())

	require.NoError(t, s.UpdateSession(id, func(sess *session.Session) error {
		assert.Equal(t, id, sess.ID)
		return sess.Begin()
	}))
	require.NoError(t, s.ViewSession(id, func(sess *session.Session) error {
		assert.Equal(t, session.StageQuestionnaire, sess.Stage)
		return nil
	}))

	boom := errors.New("boom")
	assert.ErrorIs(t, s.UpdateSession(id, func(*session.Session) error { return boom }), boom)
}

func TestUnknownSession(t *testing.T) {
	s, _ := newStore(t)
	err := s.UpdateSession(uuid.New(), func(*session.Session) error { return nil })
	assert.ErrorIs(t, err, ErrSessionNotFound)

	s.DeleteSession(uuid.New())
	assert.Zero(t, s.Len())
}

func TestEvictIdle(t *testing.T) {
	s, now := newStore(t)
	old := s.CreateSession()
	*now = now.Add(20 * time.Minute)
	fresh := s.CreateSession()
	*now = now.Add(20 * time.Minute)

	assert.Equal(t, 1, s.EvictIdle(30*time.Minute))
	assert.ErrorIs(t, s.ViewSession(old, func(*session.Session) error { return nil }), ErrSessionNotFound)
	assert.NoError(t, s.ViewSession(fresh, func(*session.Session) error { return nil }))

	// The view above refreshed the session.
	*now = now.Add(29 * time.Minute)
	assert.Zero(t, s.EvictIdle(30*time.Minute))
}

func TestConcurrentUpdatesSerialise(t *testing.T) {
	s, _ := newStore(t)
	id := s.CreateSession()
	require.NoError(t, s.UpdateSession(id, func(sess *session.Session) error { return sess.Begin() }))

	var wg sync.WaitGroup
	var mu sync.Mutex
	var ok, failed int
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.UpdateSession(id, func(sess *session.Session) error {
				return sess.Answer("memory_1", 1)
			})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				ok++
			} else {
				failed++
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, ok)
	assert.Equal(t, 19, failed)
}

func TestChartData(t *testing.T) {
	s, _ := newStore(t)
	id := s.CreateSession()

	samples, err := s.GetReactionSamples(id)
	require.NoError(t, err)
	assert.Nil(t, samples)

	require.NoError(t, s.UpdateSession(id, func(sess *session.Session) error {
		require.NoError(t, sess.Begin())
		for _, q := range sess.Assessment().Questions {
			require.NoError(t, sess.Answer(q.ID, 0))
		}
		require.NoError(t, sess.Record(models.ReactionResult{AverageReactionTime: 300, Samples: []float64{250, 350}}))
		return sess.Record(models.MemoryResult{MemoryScore: 4, LevelsPlayed: 5})
	}))

	samples, err = s.GetReactionSamples(id)
	require.NoError(t, err)
	assert.Equal(t, []SampleDataPoint{{Target: 1, Value: 250}, {Target: 2, Value: 350}}, samples)

	points, err := s.GetTaskMetrics(id)
	require.NoError(t, err)
	require.Len(t, points, 2)
	assert.Equal(t, models.TaskMemory, points[1].Task)
	assert.Equal(t, 4.0, points[1].Value)
}
