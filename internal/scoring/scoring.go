// Package scoring turns a finished session record into the composite health
// index and its narrative.
package scoring

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"neuroscreen/internal/models"
)

const (
	Baseline = 92
	MinScore = 5
)

// ErrIncompleteSession is matched by every error Analyze returns for a record
// that is missing task results.
var ErrIncompleteSession = errors.New("session is incomplete")

// IncompleteSessionError lists the tasks a record is missing.
type IncompleteSessionError struct {
	Missing []models.TaskName
}

func (e *IncompleteSessionError) Error() string {
	names := make([]string, len(e.Missing))
	for i, t := range e.Missing {
		names[i] = string(t)
	}
	return fmt.Sprintf("session is incomplete: missing %s", strings.Join(names, ", "))
}

func (e *IncompleteSessionError) Is(target error) bool {
	return target == ErrIncompleteSession
}

// Recommendations is the fixed advisory list attached to every outcome.
var Recommendations = []string{
	"Keep a digital log of these results to track cognitive trends over time.",
	"Engage in processing-speed drills (like rapid naming or reaction games).",
	"Consult a healthcare professional if you notice persistent changes in daily coordination or memory.",
}

// Penalty is one deduction applied to the baseline.
type Penalty struct {
	Task   models.TaskName `json:"task"`
	Reason string          `json:"reason"`
	Points int             `json:"points"`
}

// Penalties evaluates the deduction rules against a complete record.
func Penalties(rec models.SessionRecord) ([]Penalty, error) {
	reaction, memory, interference, sequencing, err := unpack(rec)
	if err != nil {
		return nil, err
	}

	var out []Penalty
	if reaction.AverageReactionTime > 400 {
		out = append(out, Penalty{models.TaskReaction, "average reaction time above 400ms", 12})
	}
	if reaction.AverageReactionTime > 600 {
		out = append(out, Penalty{models.TaskReaction, "average reaction time above 600ms", 15})
	}

	switch {
	case memory.MemoryScore < 3:
		out = append(out, Penalty{models.TaskMemory, "fewer than 3 levels recalled", 20})
	case memory.MemoryScore < 5:
		out = append(out, Penalty{models.TaskMemory, "fewer than 5 levels recalled", 5})
	}

	switch {
	case interference.Accuracy < 80:
		out = append(out, Penalty{models.TaskInterference, "interference accuracy below 80%", 15})
	case interference.Accuracy < 95:
		out = append(out, Penalty{models.TaskInterference, "interference accuracy below 95%", 5})
	}

	if sequencing.SequencingTime > 8000 {
		out = append(out, Penalty{models.TaskSequencing, "sequencing time above 8000ms", 10})
	}
	return out, nil
}

// Analyze computes the outcome for a record. Every task result must be
// present; a partial record fails with an *IncompleteSessionError.
func Analyze(rec models.SessionRecord) (models.ScoringOutcome, error) {
	penalties, err := Penalties(rec)
	if err != nil {
		return models.ScoringOutcome{}, err
	}
	reaction, memory, interference, _, _ := unpack(rec)

	score := Baseline
	for _, p := range penalties {
		score -= p.Points
	}
	score = Clamp(score)

	return models.ScoringOutcome{
		HealthScore:     score,
		Summary:         summary(score, reaction.AverageReactionTime),
		RiskIndicators:  riskIndicators(reaction, memory, interference),
		Recommendations: append([]string(nil), Recommendations...),
	}, nil
}

// Clamp applies the lower bound of the health index.
func Clamp(score int) int {
	return max(MinScore, score)
}

func summary(score int, latency float64) string {
	return fmt.Sprintf("Quantitative analysis complete. Your screening indicates a performance index of %d/100. "+
		"This is calculated based on your motor latency (%dms), cognitive interference resolution, "+
		"and visual-spatial memory capacity.", score, int64(math.Round(latency)))
}

// riskIndicators uses its own cut points, which deliberately differ from the
// penalty thresholds.
func riskIndicators(r models.ReactionResult, m models.MemoryResult, i models.InterferenceResult) []string {
	out := make([]string, 0, 3)
	if r.AverageReactionTime > 450 {
		out = append(out, "Slightly elevated motor response latency.")
	} else {
		out = append(out, "Motor processing speed is optimal.")
	}
	if m.MemoryScore < 3 {
		out = append(out, "Pattern retention capacity is below reference baseline.")
	} else {
		out = append(out, "Strong short-term visual memory recall.")
	}
	if i.Accuracy < 85 {
		out = append(out, "Evidence of cognitive interference during executive tasks.")
	} else {
		out = append(out, "High level of inhibitory control detected.")
	}
	return out
}

func unpack(rec models.SessionRecord) (
	models.ReactionResult, models.MemoryResult, models.InterferenceResult, models.SequencingResult, error,
) {
	reaction, okR := rec.Reaction()
	memory, okM := rec.Memory()
	interference, okI := rec.Interference()
	sequencing, okS := rec.Sequencing()
	if !okR || !okM || !okI || !okS {
		return reaction, memory, interference, sequencing, &IncompleteSessionError{Missing: missing(rec)}
	}
	return reaction, memory, interference, sequencing, nil
}

// missing also reports keys holding a result of the wrong type.
func missing(rec models.SessionRecord) []models.TaskName {
	var out []models.TaskName
	if _, ok := rec.Reaction(); !ok {
		out = append(out, models.TaskReaction)
	}
	if _, ok := rec.Memory(); !ok {
		out = append(out, models.TaskMemory)
	}
	if _, ok := rec.Interference(); !ok {
		out = append(out, models.TaskInterference)
	}
	if _, ok := rec.Sequencing(); !ok {
		out = append(out, models.TaskSequencing)
	}
	return out
}
