package models

// SequencingResult holds the processed metrics from the numeric path task.
type SequencingResult struct {
	SequencingTime int64 `json:"sequencingTime"` // milliseconds from mount to the final correct tap
}

func (SequencingResult) Task() TaskName { return TaskSequencing }
