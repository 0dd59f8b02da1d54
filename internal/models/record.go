package models

import (
	"fmt"
	"strings"
)

// TaskName identifies one of the four mini-games.
type TaskName string

const (
	TaskReaction     TaskName = "reaction"
	TaskMemory       TaskName = "memory"
	TaskInterference TaskName = "interference"
	TaskSequencing   TaskName = "sequencing"
)

// Tasks lists every task in the order a session runs them.
var Tasks = []TaskName{TaskReaction, TaskMemory, TaskInterference, TaskSequencing}

// ParseTaskName accepts the canonical names plus "stroop", the key older
// clients use for the interference task.
func ParseTaskName(s string) (TaskName, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "reaction":
		return TaskReaction, nil
	case "memory":
		return TaskMemory, nil
	case "interference", "stroop":
		return TaskInterference, nil
	case "sequencing":
		return TaskSequencing, nil
	}
	return "", fmt.Errorf("unknown task %q", s)
}

// TrialResult is the immutable outcome of one task run.
type TrialResult interface {
	Task() TaskName
}

// SessionRecord accumulates task results and questionnaire answers for one
// assessment run. Keys are written once and never overwritten.
type SessionRecord struct {
	Results map[TaskName]TrialResult `json:"roundStats"`
	Answers map[string]int           `json:"questions"`
}

// NewSessionRecord returns an empty record.
func NewSessionRecord() SessionRecord {
	return SessionRecord{
		Results: make(map[TaskName]TrialResult),
		Answers: make(map[string]int),
	}
}

// Has reports whether a result for task has been recorded.
func (r SessionRecord) Has(task TaskName) bool {
	_, ok := r.Results[task]
	return ok
}

// Missing returns the tasks that have no result yet, in session order.
func (r SessionRecord) Missing() []TaskName {
	var missing []TaskName
	for _, t := range Tasks {
		if !r.Has(t) {
			missing = append(missing, t)
		}
	}
	return missing
}

// Complete reports whether all four task results are present.
func (r SessionRecord) Complete() bool {
	return len(r.Missing()) == 0
}

func (r SessionRecord) Reaction() (ReactionResult, bool) {
	res, ok := r.Results[TaskReaction].(ReactionResult)
	return res, ok
}

func (r SessionRecord) Memory() (MemoryResult, bool) {
	res, ok := r.Results[TaskMemory].(MemoryResult)
	return res, ok
}

func (r SessionRecord) Interference() (InterferenceResult, bool) {
	res, ok := r.Results[TaskInterference].(InterferenceResult)
	return res, ok
}

func (r SessionRecord) Sequencing() (SequencingResult, bool) {
	res, ok := r.Results[TaskSequencing].(SequencingResult)
	return res, ok
}

// Clone returns a deep copy so callers can hand the record out without
// exposing the session's maps.
func (r SessionRecord) Clone() SessionRecord {
	out := NewSessionRecord()
	for k, v := range r.Results {
		out.Results[k] = v
	}
	for k, v := range r.Answers {
		out.Answers[k] = v
	}
	return out
}

// ScoringOutcome is the composite health index plus its narrative. Produced
// once per session.
type ScoringOutcome struct {
	HealthScore     int      `json:"healthScore"`
	Summary         string   `json:"summary"`
	RiskIndicators  []string `json:"riskIndicators"`
	Recommendations []string `json:"recommendations"`
}
