package metrics

import "neuroscreen/internal/models"

// CalculateInterferenceMetrics scores correct answers over the fixed round
// count.
func CalculateInterferenceMetrics(correct, rounds int) models.InterferenceResult {
	return models.InterferenceResult{
		Accuracy: Percent(correct, rounds),
		Correct:  correct,
		Rounds:   rounds,
	}
}
