package performance

import (
	"errors"
	"fmt"
)

// RiskLevel is the three-tier risk classification. "high" means high risk.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// SuccessLevel is the four-tier success likelihood. "High" means likely to succeed.
type SuccessLevel string

const (
	SuccessHigh             SuccessLevel = "High"
	SuccessMedium           SuccessLevel = "Medium"
	SuccessAverage          SuccessLevel = "Average"
	SuccessNeedsImprovement SuccessLevel = "Needs Improvement"
)

// RiskScheme selects which tier table Classify uses.
type RiskScheme string

const (
	SchemeRisk    RiskScheme = "risk"
	SchemeSuccess RiskScheme = "success"
)

// ErrUnknownScheme is returned by Classify for an unsupported scheme.
var ErrUnknownScheme = errors.New("performance: unknown classification scheme")

// ClassifyRisk maps a final score to low (>=70), medium (>=50) or high risk.
func ClassifyRisk(score int) RiskLevel {
	switch {
	case score >= 70:
		return RiskLow
	case score >= 50:
		return RiskMedium
	default:
		return RiskHigh
	}
}

// ClassifySuccess maps a final score to the success-likelihood tiers.
func ClassifySuccess(score int) SuccessLevel {
	switch {
	case score >= 85:
		return SuccessHigh
	case score >= 70:
		return SuccessMedium
	case score >= 50:
		return SuccessAverage
	default:
		return SuccessNeedsImprovement
	}
}

// Classify dispatches to the scheme chosen by the caller.
func Classify(scheme RiskScheme, score int) (string, error) {
	switch scheme {
	case SchemeRisk:
		return string(ClassifyRisk(score)), nil
	case SchemeSuccess:
		return string(ClassifySuccess(score)), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownScheme, scheme)
	}
}

// RiskLevels lists the risk tiers from lowest to highest risk.
func RiskLevels() []RiskLevel {
	return []RiskLevel{RiskLow, RiskMedium, RiskHigh}
}

// SuccessLevels lists the success tiers from best to worst.
func SuccessLevels() []SuccessLevel {
	return []SuccessLevel{SuccessHigh, SuccessMedium, SuccessAverage, SuccessNeedsImprovement}
}
