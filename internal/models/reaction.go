package models

// ReactionResult holds the processed metrics from the reaction task.
type ReactionResult struct {
	AverageReactionTime float64   `json:"averageReactionTime"` // milliseconds
	Accuracy            float64   `json:"accuracy"`            // percent, 0-100
	Stability           float64   `json:"stability"`           // 0-100
	Hits                int       `json:"hits"`
	Misses              int       `json:"misses"`
	Samples             []float64 `json:"samples,omitempty"` // per-target reaction times in ms
}

func (ReactionResult) Task() TaskName { return TaskReaction }
