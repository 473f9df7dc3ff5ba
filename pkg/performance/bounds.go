package performance

import (
	"errors"
	"maps"
	"slices"
)

var (
	// ErrValueAboveMaximum is returned when a metric exceeds the value it is scored out of.
	ErrValueAboveMaximum = errors.New("performance: value exceeds maximum")
	// ErrUnknownCategory is returned for a metric key the engine does not score.
	ErrUnknownCategory = errors.New("performance: unknown category")
)

// CheckInputs rejects unknown categories and values above a positive maximum.
// Non-positive maxima are left to the Normalizer policy. Categories are
// checked in sorted order so the reported one is stable.
func CheckInputs(inputs map[Category]MetricInput) error {
	for _, category := range slices.Sorted(maps.Keys(inputs)) {
		if _, ok := ParseCategory(string(category)); !ok {
			return &CategoryError{Category: category, Err: ErrUnknownCategory}
		}
		in := inputs[category]
		if in.Max > 0 && in.Value > in.Max {
			return &CategoryError{Category: category, Err: ErrValueAboveMaximum}
		}
	}
	return nil
}
