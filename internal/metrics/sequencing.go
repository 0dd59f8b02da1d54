package metrics

import (
	"time"

	"neuroscreen/internal/models"
)

// CalculateSequencingMetrics converts the mount-to-finish duration into
// whole milliseconds.
func CalculateSequencingMetrics(elapsed time.Duration) models.SequencingResult {
	if elapsed < 0 {
		elapsed = 0
	}
	return models.SequencingResult{SequencingTime: elapsed.Milliseconds()}
}
