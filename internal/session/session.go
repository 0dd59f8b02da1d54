// Package session aggregates one assessment run: it walks the user through
// the questionnaire and the four tasks in a fixed order and collects their
// results into a single record for scoring.
package session

import (
	"errors"
	"fmt"
	"time"

	"neuroscreen/internal/models"

	"github.com/google/uuid"
)

var (
	ErrOutOfOrder      = errors.New("step is not allowed at the current stage")
	ErrAlreadyRecorded = errors.New("task result already recorded")
	ErrUnknownQuestion = errors.New("answer does not match the current question")
	ErrInvalidOption   = errors.New("answer is not one of the question's options")
)

// Stage is a screen of the assessment flow.
type Stage int

const (
	StageOnboarding Stage = iota
	StageQuestionnaire
	StageReaction
	StageMemory
	StageInterference
	StageSequencing
	StageAnalysis
	StageResults
)

var stageNames = map[Stage]string{
	StageOnboarding:    "onboarding",
	StageQuestionnaire: "questionnaire",
	StageReaction:      "reaction",
	StageMemory:        "memory",
	StageInterference:  "interference",
	StageSequencing:    "sequencing",
	StageAnalysis:      "analysis",
	StageResults:       "results",
}

var stageTitles = map[Stage]string{
	StageQuestionnaire: "1. Cognitive Self-Report",
	StageReaction:      "2. Motor Speed",
	StageMemory:        "3. Pattern Recall",
	StageInterference:  "4. Cognitive Control",
	StageSequencing:    "5. Visuospatial Planning",
}

func (s Stage) String() string {
	if name, ok := stageNames[s]; ok {
		return name
	}
	return fmt.Sprintf("stage(%d)", int(s))
}

// Title is the round heading shown above a stage, empty outside the rounds.
func (s Stage) Title() string {
	return stageTitles[s]
}

func (s Stage) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Task returns the task played at this stage.
func (s Stage) Task() (models.TaskName, bool) {
	switch s {
	case StageReaction:
		return models.TaskReaction, true
	case StageMemory:
		return models.TaskMemory, true
	case StageInterference:
		return models.TaskInterference, true
	case StageSequencing:
		return models.TaskSequencing, true
	}
	return "", false
}

// Rounds is the number of progress steps: the questionnaire plus four tasks.
const Rounds = 5

// Scorer turns a complete record into an outcome.
type Scorer func(models.SessionRecord) (models.ScoringOutcome, error)

// Session is one assessment run. It is not safe for concurrent use; callers
// that share a session serialise access themselves.
type Session struct {
	ID            uuid.UUID              `json:"id"`
	Stage         Stage                  `json:"stage"`
	QuestionIndex int                    `json:"questionIndex"`
	Data          models.SessionRecord   `json:"data"`
	Outcome       *models.ScoringOutcome `json:"outcome,omitempty"`
	CreatedAt     time.Time              `json:"createdAt"`
	UpdatedAt     time.Time              `json:"updatedAt"`
	CompletedAt   *time.Time             `json:"completedAt,omitempty"`

	assessment *models.Assessment
	now        func() time.Time
}

// New starts a session at the onboarding screen.
func New(assessment *models.Assessment) *Session {
	return newWithClock(assessment, time.Now)
}

func newWithClock(assessment *models.Assessment, now func() time.Time) *Session {
	if assessment == nil {
		assessment = &models.Assessment{}
	}
	t := now()
	return &Session{
		ID:         uuid.New(),
		Stage:      StageOnboarding,
		Data:       models.NewSessionRecord(),
		CreatedAt:  t,
		UpdatedAt:  t,
		assessment: assessment,
		now:        now,
	}
}

// Assessment returns the questionnaire this session uses.
func (s *Session) Assessment() *models.Assessment {
	return s.assessment
}

// CurrentQuestion is the question awaiting an answer.
func (s *Session) CurrentQuestion() (models.Question, bool) {
	if s.Stage != StageQuestionnaire || s.QuestionIndex >= len(s.assessment.Questions) {
		return models.Question{}, false
	}
	return s.assessment.Questions[s.QuestionIndex], true
}

// Begin leaves onboarding.
func (s *Session) Begin() error {
	if s.Stage != StageOnboarding {
		return fmt.Errorf("begin at %s: %w", s.Stage, ErrOutOfOrder)
	}
	s.Stage = StageQuestionnaire
	if len(s.assessment.Questions) == 0 {
		s.Stage = StageReaction
	}
	s.touch()
	return nil
}

// Answer records the value for the current question and moves on. Questions
// are answered in order, each exactly once.
func (s *Session) Answer(questionID string, value int) error {
	q, ok := s.CurrentQuestion()
	if !ok {
		return fmt.Errorf("answer at %s: %w", s.Stage, ErrOutOfOrder)
	}
	if q.ID != questionID {
		return fmt.Errorf("%w: got %q, expected %q", ErrUnknownQuestion, questionID, q.ID)
	}
	if _, ok := q.Option(value); !ok {
		return fmt.Errorf("%w: %d for %q", ErrInvalidOption, value, questionID)
	}

	s.Data.Answers[questionID] = value
	s.QuestionIndex++
	if s.QuestionIndex >= len(s.assessment.Questions) {
		s.Stage = StageReaction
	}
	s.touch()
	return nil
}

// Record stores a task result and advances to the next task. The result
// must belong to the task currently being played.
func (s *Session) Record(result models.TrialResult) error {
	if result == nil {
		return errors.New("record: nil result")
	}
	task := result.Task()
	if s.Data.Has(task) {
		return fmt.Errorf("record %s: %w", task, ErrAlreadyRecorded)
	}
	current, ok := s.Stage.Task()
	if !ok || current != task {
		return fmt.Errorf("record %s at %s: %w", task, s.Stage, ErrOutOfOrder)
	}

	s.Data.Results[task] = result
	s.Stage++
	s.touch()
	return nil
}

// Analyze scores the completed record. Any scoring failure resets the whole
// session back to onboarding and the error is returned.
func (s *Session) Analyze(score Scorer) (models.ScoringOutcome, error) {
	if s.Stage != StageAnalysis {
		return models.ScoringOutcome{}, fmt.Errorf("analyze at %s: %w", s.Stage, ErrOutOfOrder)
	}
	outcome, err := score(s.Data.Clone())
	if err != nil {
		s.Reset()
		return models.ScoringOutcome{}, fmt.Errorf("failed to analyze session: %w", err)
	}
	s.Outcome = &outcome
	s.Stage = StageResults
	t := s.now()
	s.CompletedAt = &t
	s.touch()
	return outcome, nil
}

// Reset discards every answer and result and returns to onboarding. The
// session keeps its ID.
func (s *Session) Reset() {
	s.Stage = StageOnboarding
	s.QuestionIndex = 0
	s.Data = models.NewSessionRecord()
	s.Outcome = nil
	s.CompletedAt = nil
	s.touch()
}

// Progress returns the 1-based round being played, 0 before the
// questionnaire and Rounds once every round is done.
func (s *Session) Progress() int {
	switch {
	case s.Stage <= StageOnboarding:
		return 0
	case s.Stage >= StageAnalysis:
		return Rounds
	}
	return int(s.Stage - StageOnboarding)
}

// Fraction is Progress scaled to [0, 1].
func (s *Session) Fraction() float64 {
	return float64(s.Progress()) / Rounds
}

func (s *Session) touch() {
	s.UpdatedAt = s.now()
}
