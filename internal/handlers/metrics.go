package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"neuroscreen/internal/models"
	"neuroscreen/internal/repository"
	"neuroscreen/internal/session"
	"neuroscreen/internal/tasks"
	"neuroscreen/internal/tasks/interference"
	"neuroscreen/internal/tasks/memory"
	"neuroscreen/internal/tasks/reaction"
	"neuroscreen/internal/tasks/sequencing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// MaxTraceBytes caps the size of an uploaded task trace.
const MaxTraceBytes = 1 << 20

var errInvalidTrace = errors.New("invalid trace")

// MetricsHandler ingests recorded task traces. The client is authoritative
// for timing and stimuli; the server replays the trace through the task
// state machine and stores the result it produces.
type MetricsHandler struct {
	log   *zap.Logger
	store *repository.Store
}

func NewMetricsHandler(log *zap.Logger, store *repository.Store) *MetricsHandler {
	return &MetricsHandler{log: log, store: store}
}

// SaveTaskTrace replays the trace for :task and records the result.
func (h *MetricsHandler) SaveTaskTrace(c *gin.Context) {
	task, err := models.ParseTaskName(c.Param("task"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, MaxTraceBytes))
	if err != nil {
		h.log.Warn("Failed to read trace", zap.String("task", string(task)), zap.Error(err))
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Trace too large"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "Could not read trace"})
		return
	}

	result, err := ReplayTrace(task, body)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	id := CurrentSessionID(c)
	var view SessionView
	err = h.store.UpdateSession(id, func(sess *session.Session) error {
		if err := sess.Record(result); err != nil {
			return err
		}
		view = NewSessionView(sess)
		return nil
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	h.log.Info("Task result recorded",
		zap.String("sessionID", id.String()),
		zap.String("task", string(task)),
		zap.Any("result", result))
	c.JSON(http.StatusOK, gin.H{"result": result, "session": view})
}

// ReplayTrace decodes a JSON trace for task and folds it through the task's
// state machine.
func ReplayTrace(task models.TaskName, data []byte) (models.TrialResult, error) {
	switch task {
	case models.TaskReaction:
		return replay(reaction.New(), reaction.DecodeTrace, data)
	case models.TaskMemory:
		return replay(memory.New(), memory.DecodeTrace, data)
	case models.TaskInterference:
		return replay(interference.New(), interference.DecodeTrace, data)
	case models.TaskSequencing:
		return replay(sequencing.New(), sequencing.DecodeTrace, data)
	}
	return nil, fmt.Errorf("%w: unknown task %q", errInvalidTrace, task)
}

func replay[S tasks.Machine[S]](initial S, decode func([]byte) ([]tasks.Step, error), data []byte) (models.TrialResult, error) {
	steps, err := decode(data)
	if err != nil {
		if errors.Is(err, tasks.ErrUnknownEvent) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", errInvalidTrace, err)
	}
	result, _, err := tasks.Replay(initial, steps)
	if err != nil {
		return nil, err
	}
	return result, nil
}
