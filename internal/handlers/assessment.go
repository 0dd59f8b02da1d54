package handlers

import (
	"errors"
	"net/http"

	"neuroscreen/internal/models"
	"neuroscreen/internal/repository"
	"neuroscreen/internal/scoring"
	"neuroscreen/internal/session"
	"neuroscreen/internal/tasks"
	"neuroscreen/internal/utils"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// SessionCookieKey is the cookie-session key holding the assessment ID.
	SessionCookieKey = "sessionID"
	// SessionContextKey is where the router puts the resolved assessment ID.
	SessionContextKey = "sessionID"
	// CSPNonceContextKey holds the script nonce for the current response.
	CSPNonceContextKey = "csp_nonce"
)

// SessionView is the JSON shape of an assessment session.
type SessionView struct {
	ID       uuid.UUID              `json:"id"`
	Stage    session.Stage          `json:"stage"`
	Title    string                 `json:"title,omitempty"`
	Progress int                    `json:"progress"`
	Rounds   int                    `json:"rounds"`
	Question *models.Question       `json:"question,omitempty"`
	Record   models.SessionRecord   `json:"record"`
	Outcome  *models.ScoringOutcome `json:"outcome,omitempty"`
}

// NewSessionView snapshots sess. Call it while holding the session.
func NewSessionView(sess *session.Session) SessionView {
	v := SessionView{
		ID:       sess.ID,
		Stage:    sess.Stage,
		Title:    sess.Stage.Title(),
		Progress: sess.Progress(),
		Rounds:   session.Rounds,
		Record:   sess.Data.Clone(),
		Outcome:  sess.Outcome,
	}
	if q, ok := sess.CurrentQuestion(); ok {
		v.Question = &q
	}
	return v
}

type AssessmentHandler struct {
	log   *zap.Logger
	store *repository.Store
}

func NewAssessmentHandler(log *zap.Logger, store *repository.Store) *AssessmentHandler {
	return &AssessmentHandler{log: log, store: store}
}

// GetQuestions lists the questionnaire.
func (h *AssessmentHandler) GetQuestions(c *gin.Context) {
	c.JSON(http.StatusOK, h.store.Assessment())
}

// CreateSession starts a new assessment and binds it to the caller's cookie.
func (h *AssessmentHandler) CreateSession(c *gin.Context) {
	id := h.store.CreateSession()

	cookie := sessions.Default(c)
	cookie.Set(SessionCookieKey, id.String())
	if err := cookie.Save(); err != nil {
		h.store.DeleteSession(id)
		h.log.Error("Failed to save cookie session", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start session"})
		return
	}

	h.log.Info("Assessment session created", zap.String("sessionID", id.String()))
	h.respondWithView(c, http.StatusCreated, id)
}

// GetSession returns the current state of the caller's session.
func (h *AssessmentHandler) GetSession(c *gin.Context) {
	h.respondWithView(c, http.StatusOK, CurrentSessionID(c))
}

// Begin leaves the onboarding screen.
func (h *AssessmentHandler) Begin(c *gin.Context) {
	id := CurrentSessionID(c)
	if err := h.store.UpdateSession(id, (*session.Session).Begin); err != nil {
		respondError(c, h.log, err)
		return
	}
	h.respondWithView(c, http.StatusOK, id)
}

type answerRequest struct {
	QuestionID string `json:"questionId" binding:"required"`
	Value      *int   `json:"value" binding:"required"`
}

// Answer records the reply to the current question.
func (h *AssessmentHandler) Answer(c *gin.Context) {
	var req answerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Warn("Failed to bind answer", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid answer"})
		return
	}
	if !utils.IsValidQuestionID(req.QuestionID) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid question ID"})
		return
	}

	id := CurrentSessionID(c)
	err := h.store.UpdateSession(id, func(sess *session.Session) error {
		return sess.Answer(req.QuestionID, *req.Value)
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	h.respondWithView(c, http.StatusOK, id)
}

// Reset discards all progress and returns to onboarding.
func (h *AssessmentHandler) Reset(c *gin.Context) {
	id := CurrentSessionID(c)
	err := h.store.UpdateSession(id, func(sess *session.Session) error {
		sess.Reset()
		return nil
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	h.respondWithView(c, http.StatusOK, id)
}

func (h *AssessmentHandler) respondWithView(c *gin.Context, status int, id uuid.UUID) {
	var view SessionView
	err := h.store.ViewSession(id, func(sess *session.Session) error {
		view = NewSessionView(sess)
		return nil
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(status, view)
}

// CurrentSessionID returns the session resolved by the router middleware.
func CurrentSessionID(c *gin.Context) uuid.UUID {
	if v, ok := c.Get(SessionContextKey); ok {
		if id, ok := v.(uuid.UUID); ok {
			return id
		}
	}
	return uuid.Nil
}

// respondError maps domain errors onto HTTP statuses.
func respondError(c *gin.Context, log *zap.Logger, err error) {
	switch {
	case errors.Is(err, repository.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
	case errors.Is(err, session.ErrOutOfOrder),
		errors.Is(err, session.ErrAlreadyRecorded),
		errors.Is(err, scoring.ErrIncompleteSession):
		log.Warn("Rejected out-of-order request", zap.Error(err))
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, session.ErrUnknownQuestion),
		errors.Is(err, session.ErrInvalidOption),
		errors.Is(err, tasks.ErrTraceOrder),
		errors.Is(err, tasks.ErrTraceIncomplete),
		errors.Is(err, tasks.ErrUnknownEvent),
		errors.Is(err, errInvalidTrace):
		log.Warn("Rejected invalid request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		log.Error("Request failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
