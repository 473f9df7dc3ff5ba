package performance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyBoundaries(t *testing.T) {
	riskCases := []struct {
		score int
		want  RiskLevel
	}{
		{0, RiskHigh}, {49, RiskHigh}, {50, RiskMedium}, {69, RiskMedium}, {70, RiskLow}, {100, RiskLow},
	}
	for _, tc := range riskCases {
		assert.Equal(t, tc.want, ClassifyRisk(tc.score), "score=%d", tc.score)
	}

	successCases := []struct {
		score int
		want  SuccessLevel
	}{
		{0, SuccessNeedsImprovement}, {49, SuccessNeedsImprovement}, {50, SuccessAverage},
		{69, SuccessAverage}, {70, SuccessMedium}, {84, SuccessMedium}, {85, SuccessHigh}, {100, SuccessHigh},
	}
	for _, tc := range successCases {
		assert.Equal(t, tc.want, ClassifySuccess(tc.score), "score=%d", tc.score)
	}
}

func TestClassifySchemesStayDistinct(t *testing.T) {
	risk, err := Classify(SchemeRisk, 72)
	require.NoError(t, err)
	assert.Equal(t, "low", risk)

	success, err := Classify(SchemeSuccess, 72)
	require.NoError(t, err)
	assert.Equal(t, "Medium", success)

	_, err = Classify("grade", 72)
	assert.ErrorIs(t, err, ErrUnknownScheme)
}

func TestEveryScoreHasExactlyOneTier(t *testing.T) {
	for score := 0; score <= 100; score++ {
		matches := 0
		for _, level := range RiskLevels() {
			if ClassifyRisk(score) == level {
				matches++
			}
		}
		assert.Equal(t, 1, matches, "risk score=%d", score)

		matches = 0
		for _, level := range SuccessLevels() {
			if ClassifySuccess(score) == level {
				matches++
			}
		}
		assert.Equal(t, 1, matches, "success score=%d", score)
	}
}

func TestOverallFromSubjects(t *testing.T) {
	subjects := []SubjectMarks{
		{Internal: 81, External: 90},
		{Internal: 70, External: 75},
		{Internal: 0, External: 0},
	}
	assert.Equal(t, 86, subjects[0].PredictedScore())
	assert.Equal(t, 73, subjects[1].PredictedScore())
	assert.True(t, AnyMarks(subjects))

	overall, ok := OverallFromSubjects(subjects)
	require.True(t, ok)
	assert.Equal(t, 53, overall)

	_, ok = OverallFromSubjects(nil)
	assert.False(t, ok)
	assert.False(t, AnyMarks([]SubjectMarks{{}}))
}
