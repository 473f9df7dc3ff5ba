package performance

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// Category names a metric that takes part in the weighted score.
type Category string

const (
	CategoryAttendance    Category = "attendance"
	CategoryAssignments   Category = "assignments"
	CategoryQuizzes       Category = "quizzes"
	CategoryParticipation Category = "participation"
	CategoryInternal      Category = "internal"
	CategoryExternal      Category = "external"
	CategorySubjectPerf   Category = "subjectPerf"
	CategoryPreviousGrade Category = "previousGrade"
	CategoryStudyHours    Category = "studyHours"
)

var knownCategories = []Category{
	CategoryAttendance,
	CategoryAssignments,
	CategoryQuizzes,
	CategoryParticipation,
	CategoryInternal,
	CategoryExternal,
	CategorySubjectPerf,
	CategoryPreviousGrade,
	CategoryStudyHours,
}

// ParseCategory resolves a category name.
func ParseCategory(name string) (Category, bool) {
	for _, c := range knownCategories {
		if string(c) == name {
			return c, true
		}
	}
	return "", false
}

// KnownCategories returns every category the engine understands.
func KnownCategories() []Category {
	out := make([]Category, len(knownCategories))
	copy(out, knownCategories)
	return out
}

// WeightTolerance is the allowed drift of a weight set's sum from 1.0.
const WeightTolerance = 1e-6

var (
	ErrEmptyWeights   = errors.New("performance: weight set is empty")
	ErrNegativeWeight = errors.New("performance: weight must not be negative")
	ErrWeightSum      = errors.New("performance: weights must sum to 1.0")
)

// WeightSet maps each category of a formula variant to its weight.
type WeightSet map[Category]float64

// Sum returns the total of all weights.
func (w WeightSet) Sum() float64 {
	total := 0.0
	for _, c := range w.Categories() {
		total += w[c]
	}
	return total
}

// Validate checks the set is non-empty, non-negative and sums to 1.0.
func (w WeightSet) Validate() error {
	if len(w) == 0 {
		return ErrEmptyWeights
	}
	for _, c := range w.Categories() {
		if w[c] < 0 || math.IsNaN(w[c]) {
			return fmt.Errorf("%w: %s=%v", ErrNegativeWeight, c, w[c])
		}
	}
	if sum := w.Sum(); math.Abs(sum-1.0) > WeightTolerance {
		return fmt.Errorf("%w: got %.6f", ErrWeightSum, sum)
	}
	return nil
}

// Categories returns the categories in a stable order so sums are reproducible.
func (w WeightSet) Categories() []Category {
	out := make([]Category, 0, len(w))
	for c := range w {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Clone returns an independent copy.
func (w WeightSet) Clone() WeightSet {
	out := make(WeightSet, len(w))
	for c, v := range w {
		out[c] = v
	}
	return out
}

// LegacyWeights is the four-factor formula over raw engagement metrics.
func LegacyWeights() WeightSet {
	return WeightSet{
		CategoryAttendance:    0.2,
		CategoryAssignments:   0.3,
		CategoryQuizzes:       0.3,
		CategoryParticipation: 0.2,
	}
}

// CurrentWeights is the four-factor formula over marks.
func CurrentWeights() WeightSet {
	return WeightSet{
		CategoryAttendance:  0.2,
		CategoryInternal:    0.3,
		CategoryExternal:    0.3,
		CategorySubjectPerf: 0.2,
	}
}

// PredictionWeights is the five-factor formula used by the prediction form.
func PredictionWeights() WeightSet {
	return WeightSet{
		CategoryAttendance:    0.2,
		CategoryInternal:      0.35,
		CategoryAssignments:   0.2,
		CategoryPreviousGrade: 0.15,
		CategoryStudyHours:    0.1,
	}
}

// Named weight set identifiers accepted by WeightsByName.
const (
	WeightsLegacy     = "legacy"
	WeightsCurrent    = "current"
	WeightsPrediction = "prediction"
)

// ErrUnknownWeights is returned for an unrecognised weight set name.
var ErrUnknownWeights = errors.New("performance: unknown weight set")

// WeightsByName resolves a named weight set.
func WeightsByName(name string) (WeightSet, error) {
	switch name {
	case WeightsLegacy:
		return LegacyWeights(), nil
	case WeightsCurrent, "":
		return CurrentWeights(), nil
	case WeightsPrediction:
		return PredictionWeights(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownWeights, name)
	}
}
