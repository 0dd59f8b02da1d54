package metrics

import (
	"math"

	"neuroscreen/internal/models"
)

// CalculateAverageReactionTime averages samples over the configured target
// count.
func CalculateAverageReactionTime(samples []float64, totalTargets int) float64 {
	return Mean(samples, totalTargets)
}

// CalculateReactionTimeSD is the population standard deviation over the
// configured target count.
func CalculateReactionTimeSD(samples []float64, totalTargets int) float64 {
	avg := CalculateAverageReactionTime(samples, totalTargets)
	return math.Sqrt(PopulationVariance(samples, avg, totalTargets))
}

// CalculateStability maps reaction time spread to 0-100: every 10ms of
// standard deviation costs one point.
func CalculateStability(sd float64) float64 {
	return math.Max(0, 100-sd/10)
}

// CalculateAccuracy is hits over all taps, in percent.
func CalculateAccuracy(hits, misses int) float64 {
	return Percent(hits, hits+misses)
}

// CalculateReactionMetrics builds the reaction task result.
func CalculateReactionMetrics(samples []float64, hits, misses, totalTargets int) models.ReactionResult {
	kept := make([]float64, len(samples))
	copy(kept, samples)
	return models.ReactionResult{
		AverageReactionTime: CalculateAverageReactionTime(samples, totalTargets),
		Accuracy:            CalculateAccuracy(hits, misses),
		Stability:           CalculateStability(CalculateReactionTimeSD(samples, totalTargets)),
		Hits:                hits,
		Misses:              misses,
		Samples:             kept,
	}
}
