// Package performance turns raw academic metrics into a weighted score and
// classifies the result into risk or success tiers.
//
// Every function in this package is pure: no I/O, no shared state, safe to
// call concurrently.
package performance

import (
	"errors"
	"math"

	"go.uber.org/zap"
)

// ErrInvalidMaximum is returned when a metric maximum is not a positive finite number.
var ErrInvalidMaximum = errors.New("performance: maximum must be a positive finite number")

// MetricInput is a raw measurement together with the value it is scored out of.
type MetricInput struct {
	Value float64 `json:"value" yaml:"value"`
	Max   float64 `json:"max" yaml:"max"`
}

// Percent is Normalize applied to the input.
func (m MetricInput) Percent() (float64, error) {
	return Normalize(m.Value, m.Max)
}

// Normalize rescales value to a percentage of max. Negative values clamp to
// zero. Values above max are not rejected here; the result is left unrounded.
func Normalize(value, max float64) (float64, error) {
	if max <= 0 || math.IsNaN(max) || math.IsInf(max, 0) {
		return 0, ErrInvalidMaximum
	}
	if value < 0 || math.IsNaN(value) {
		value = 0
	}
	return value / max * 100, nil
}

// NormalizeOrZero is Normalize with invalid maxima mapped to zero.
func NormalizeOrZero(value, max float64) float64 {
	pct, err := Normalize(value, max)
	if err != nil {
		return 0
	}
	return pct
}

// Normalizer applies a configured policy for invalid maxima. Strict
// normalizers surface ErrInvalidMaximum; lenient ones log and return zero.
type Normalizer struct {
	Strict bool
	Logger *zap.Logger
}

// NewNormalizer builds a Normalizer.
func NewNormalizer(strict bool, logger *zap.Logger) Normalizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return Normalizer{Strict: strict, Logger: logger}
}

// Normalize converts a single input.
func (n Normalizer) Normalize(category Category, in MetricInput) (float64, error) {
	pct, err := Normalize(in.Value, in.Max)
	if err == nil {
		return pct, nil
	}
	if n.Strict {
		return 0, &CategoryError{Category: category, Err: err}
	}
	if n.Logger != nil {
		n.Logger.Warn("invalid metric maximum, scoring as zero",
			zap.String("category", string(category)),
			zap.Float64("max", in.Max),
		)
	}
	return 0, nil
}

// NormalizeAll converts every input, keyed by category.
func (n Normalizer) NormalizeAll(inputs map[Category]MetricInput) (map[Category]float64, error) {
	out := make(map[Category]float64, len(inputs))
	for category, in := range inputs {
		pct, err := n.Normalize(category, in)
		if err != nil {
			return nil, err
		}
		out[category] = pct
	}
	return out, nil
}

// CategoryError ties a normalization failure to the metric that caused it.
type CategoryError struct {
	Category Category
	Err      error
}

func (e *CategoryError) Error() string {
	return string(e.Category) + ": " + e.Err.Error()
}

func (e *CategoryError) Unwrap() error { return e.Err }
