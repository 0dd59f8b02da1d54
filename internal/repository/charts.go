package repository

import (
	"neuroscreen/internal/models"
	"neuroscreen/internal/session"

	"github.com/google/uuid"
)

// SampleDataPoint is one reaction time sample, numbered from 1.
type SampleDataPoint struct {
	Target int     `json:"target"`
	Value  float64 `json:"value"`
}

// TaskDataPoint is one headline metric of a finished task.
type TaskDataPoint struct {
	Task  models.TaskName `json:"task"`
	Label string          `json:"label"`
	Value float64         `json:"value"`
}

// GetReactionSamples returns the per-target reaction times of a session, or
// nil when the reaction task has not been recorded yet.
func (s *Store) GetReactionSamples(id uuid.UUID) ([]SampleDataPoint, error) {
	var data []SampleDataPoint
	err := s.ViewSession(id, func(sess *session.Session) error {
		res, ok := sess.Data.Reaction()
		if !ok {
			return nil
		}
		data = make([]SampleDataPoint, len(res.Samples))
		for i, v := range res.Samples {
			data[i] = SampleDataPoint{Target: i + 1, Value: v}
		}
		return nil
	})
	return data, err
}

// GetTaskMetrics lists the headline metric of each recorded task in session
// order.
func (s *Store) GetTaskMetrics(id uuid.UUID) ([]TaskDataPoint, error) {
	var data []TaskDataPoint
	err := s.ViewSession(id, func(sess *session.Session) error {
		data = TaskMetrics(sess.Data)
		return nil
	})
	return data, err
}

// TaskMetrics extracts the headline metric of each recorded task.
func TaskMetrics(rec models.SessionRecord) []TaskDataPoint {
	var data []TaskDataPoint
	if r, ok := rec.Reaction(); ok {
		data = append(data, TaskDataPoint{models.TaskReaction, "Reaction time (ms)", r.AverageReactionTime})
	}
	if m, ok := rec.Memory(); ok {
		data = append(data, TaskDataPoint{models.TaskMemory, "Memory span", float64(m.MemoryScore)})
	}
	if i, ok := rec.Interference(); ok {
		data = append(data, TaskDataPoint{models.TaskInterference, "Interference accuracy (%)", i.Accuracy})
	}
	if sq, ok := rec.Sequencing(); ok {
		data = append(data, TaskDataPoint{models.TaskSequencing, "Sequencing time (ms)", float64(sq.SequencingTime)})
	}
	return data
}
