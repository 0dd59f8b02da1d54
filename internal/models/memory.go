package models

// MemoryResult holds the processed metrics from the sequence-memory task.
type MemoryResult struct {
	MemoryScore  int `json:"memoryScore"` // fully-correct levels, 0-5
	LevelsPlayed int `json:"levelsPlayed"`
}

func (MemoryResult) Task() TaskName { return TaskMemory }
