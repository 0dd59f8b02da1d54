// Package metrics turns raw trial samples into the headline numbers each
// task reports.
package metrics

import "math"

// Mean returns sum(samples)/divisor. The divisor is passed explicitly because
// task formulas divide by the configured trial count, not len(samples).
func Mean(samples []float64, divisor int) float64 {
	if divisor <= 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		sum += s
	}
	return sum / float64(divisor)
}

// PopulationVariance returns the mean squared deviation from mean, divided by
// divisor (not divisor-1).
func PopulationVariance(samples []float64, mean float64, divisor int) float64 {
	if divisor <= 0 {
		return 0
	}
	var sumSquaredDiff float64
	for _, s := range samples {
		diff := s - mean
		sumSquaredDiff += diff * diff
	}
	return sumSquaredDiff / float64(divisor)
}

// Percent returns part/whole*100, or 0 when whole is 0.
func Percent(part, whole int) float64 {
	if whole <= 0 {
		return 0
	}
	return float64(part) / float64(whole) * 100
}

// Round rounds half away from zero to the given number of decimals.
func Round(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}
