package repository

import (
	"errors"
	"sync"
	"time"

	"neuroscreen/internal/models"
	"neuroscreen/internal/session"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrSessionNotFound is returned for an unknown or evicted session ID.
var ErrSessionNotFound = errors.New("session not found")

type entry struct {
	mu       sync.Mutex
	sess     *session.Session
	lastSeen time.Time
}

// Store keeps assessment sessions in memory, keyed by ID. Nothing outlives
// the process.
type Store struct {
	mu         sync.RWMutex
	sessions   map[uuid.UUID]*entry
	assessment *models.Assessment
	log        *zap.Logger
	now        func() time.Time
}

func NewStore(assessment *models.Assessment, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{
		sessions:   make(map[uuid.UUID]*entry),
		assessment: assessment,
		log:        log,
		now:        time.Now,
	}
}

// CreateSession starts a new session and returns its ID.
func (s *Store) CreateSession() uuid.UUID {
	sess := session.New(s.assessment)
	s.mu.Lock()
	s.sessions[sess.ID] = &entry{sess: sess, lastSeen: s.now()}
	s.mu.Unlock()
	s.log.Debug("Session created", zap.String("sessionID", sess.ID.String()))
	return sess.ID
}

// UpdateSession runs fn with exclusive access to the session. The error fn
// returns is passed through unchanged.
func (s *Store) UpdateSession(id uuid.UUID, fn func(*session.Session) error) error {
	e, err := s.lookup(id)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.lastSeen = s.now()
	return fn(e.sess)
}

// ViewSession is UpdateSession for read-only callers; it still refreshes the
// idle timer.
func (s *Store) ViewSession(id uuid.UUID, fn func(*session.Session) error) error {
	return s.UpdateSession(id, fn)
}

// DeleteSession forgets a session. Deleting an unknown ID is not an error.
func (s *Store) DeleteSession(id uuid.UUID) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}

// EvictIdle removes sessions not touched within idle and reports how many
// were dropped.
func (s *Store) EvictIdle(idle time.Duration) int {
	cutoff := s.now().Add(-idle)
	s.mu.Lock()
	defer s.mu.Unlock()

	evicted := 0
	for id, e := range s.sessions {
		e.mu.Lock()
		stale := e.lastSeen.Before(cutoff)
		e.mu.Unlock()
		if stale {
			delete(s.sessions, id)
			evicted++
		}
	}
	return evicted
}

// Len is the number of live sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Assessment returns the questionnaire new sessions are created with.
func (s *Store) Assessment() *models.Assessment {
	return s.assessment
}

func (s *Store) lookup(id uuid.UUID) (*entry, error) {
	s.mu.RLock()
	e, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	return e, nil
}
