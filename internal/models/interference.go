package models

// InterferenceResult holds the processed metrics from the color/word task.
type InterferenceResult struct {
	Accuracy float64 `json:"accuracy"` // percent, 0-100
	Correct  int     `json:"correct"`
	Rounds   int     `json:"rounds"`
}

func (InterferenceResult) Task() TaskName { return TaskInterference }
