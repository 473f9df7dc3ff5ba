package performance

import "math"

// PassProbabilityFactor scales the final score into the pass-probability
// heuristic. It is a fixed multiplier, not a calibrated probability.
const PassProbabilityFactor = 1.1

// Aggregate is the weighted score derived from normalized metrics.
type Aggregate struct {
	FinalScore      int `json:"finalScore"`
	PassProbability int `json:"passProbability"`
}

// ScoreResult is an Aggregate classified under the three-tier risk scheme.
// It is always recomputed from inputs and never stored as the source of truth.
type ScoreResult struct {
	FinalScore      int       `json:"finalScore"`
	PassProbability int       `json:"passProbability"`
	RiskLevel       RiskLevel `json:"riskLevel"`
}

// AggregateScores combines normalized percentages with the given weights.
// Categories the weight set names but normalized lacks contribute zero;
// categories outside the weight set are ignored.
func AggregateScores(normalized map[Category]float64, weights WeightSet) (Aggregate, error) {
	if err := weights.Validate(); err != nil {
		return Aggregate{}, err
	}
	total := 0.0
	for _, c := range weights.Categories() {
		total += normalized[c] * weights[c]
	}
	final := Round(total)
	return Aggregate{FinalScore: final, PassProbability: PassProbability(final)}, nil
}

// Score aggregates and classifies in one step.
func Score(normalized map[Category]float64, weights WeightSet) (ScoreResult, error) {
	agg, err := AggregateScores(normalized, weights)
	if err != nil {
		return ScoreResult{}, err
	}
	return ScoreResult{
		FinalScore:      agg.FinalScore,
		PassProbability: agg.PassProbability,
		RiskLevel:       ClassifyRisk(agg.FinalScore),
	}, nil
}

// PassProbability returns min(round(score*1.1), 100).
func PassProbability(finalScore int) int {
	p := Round(float64(finalScore) * PassProbabilityFactor)
	if p > 100 {
		return 100
	}
	if p < 0 {
		return 0
	}
	return p
}

// Round rounds half up, matching the scoring rules used across the product.
func Round(v float64) int {
	return int(math.Floor(v + 0.5))
}
