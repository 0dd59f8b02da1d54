package tasks

import (
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// WireEvent is the JSON shape of one trace entry. At is milliseconds since
// the task was mounted; the remaining fields are interpreted per Type.
type WireEvent struct {
	At      float64      `json:"at"`
	Type    string       `json:"type"`
	X       float64      `json:"x,omitempty"`
	Y       float64      `json:"y,omitempty"`
	Width   float64      `json:"width,omitempty"`
	Height  float64      `json:"height,omitempty"`
	Cell    int          `json:"cell,omitempty"`
	Cells   []int        `json:"cells,omitempty"`
	Word    int          `json:"word,omitempty"`
	Ink     int          `json:"ink,omitempty"`
	Choice  string       `json:"choice,omitempty"`
	ID      int          `json:"id,omitempty"`
	Markers []WireMarker `json:"markers,omitempty"`
}

// WireMarker is a numbered marker position in percent of the play area.
type WireMarker struct {
	ID int     `json:"id"`
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
}

// Decoder converts one wire event into a task event.
type Decoder func(WireEvent) (Event, error)

// DecodeTrace parses a JSON array of wire events using the task's decoder.
func DecodeTrace(data []byte, decode Decoder) ([]Step, error) {
	var wire []WireEvent
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, fmt.Errorf("failed to decode trace: %w", err)
	}
	steps := make([]Step, 0, len(wire))
	for i, w := range wire {
		if math.IsNaN(w.At) || math.IsInf(w.At, 0) || w.At < 0 {
			return nil, fmt.Errorf("event %d has invalid timestamp %v", i, w.At)
		}
		ev, err := decode(w)
		if err != nil {
			return nil, fmt.Errorf("event %d (%q): %w", i, w.Type, err)
		}
		steps = append(steps, Step{At: Millis(w.At), Event: ev})
	}
	return steps, nil
}

// Millis converts a fractional millisecond count to a Duration.
func Millis(ms float64) time.Duration {
	return time.Duration(ms * float64(time.Millisecond))
}

// ToMillis converts a Duration to fractional milliseconds.
func ToMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

// UnknownType builds the error decoders return for an unrecognised type.
func UnknownType(t string) error {
	return fmt.Errorf("%w %q", ErrUnknownEvent, t)
}
