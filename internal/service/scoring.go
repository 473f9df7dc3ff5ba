package service

import (
	"errors"

	"github.com/noah-isme/edupredict-api/internal/models"
	appErrors "github.com/noah-isme/edupredict-api/pkg/errors"
	"github.com/noah-isme/edupredict-api/pkg/performance"
)

// studentScore is the derived standing of one student.
type studentScore struct {
	performance.ScoreResult
	Success        performance.SuccessLevel
	Source         models.ScoreSource
	HasSubjectData bool
}

func subjectMarks(subjects []models.Subject) []performance.SubjectMarks {
	marks := make([]performance.SubjectMarks, len(subjects))
	for i, s := range subjects {
		marks[i] = performance.SubjectMarks{Internal: s.InternalMarks, External: s.ExternalMarks}
	}
	return marks
}

// legacyInputs are the stored profile percentages keyed for the legacy weights.
func legacyInputs(st *models.Student) map[performance.Category]performance.MetricInput {
	return map[performance.Category]performance.MetricInput{
		performance.CategoryAttendance:    {Value: st.Attendance, Max: 100},
		performance.CategoryAssignments:   {Value: st.AssignmentCompletion, Max: 100},
		performance.CategoryQuizzes:       {Value: st.QuizScores, Max: 100},
		performance.CategoryParticipation: {Value: st.Participation, Max: 100},
	}
}

// scoreStudent scores from subject marks when any were entered, otherwise
// from the profile metrics under the legacy weights.
func scoreStudent(n performance.Normalizer, st *models.Student) (studentScore, error) {
	marks := subjectMarks(st.Subjects)
	if performance.AnyMarks(marks) {
		overall, _ := performance.OverallFromSubjects(marks)
		return studentScore{
			ScoreResult: performance.ScoreResult{
				FinalScore:      overall,
				PassProbability: performance.PassProbability(overall),
				RiskLevel:       performance.ClassifyRisk(overall),
			},
			Success:        performance.ClassifySuccess(overall),
			Source:         models.ScoreSourceSubjects,
			HasSubjectData: true,
		}, nil
	}

	normalized, err := n.NormalizeAll(legacyInputs(st))
	if err != nil {
		return studentScore{}, scoringError(err)
	}
	result, err := performance.Score(normalized, performance.LegacyWeights())
	if err != nil {
		return studentScore{}, scoringError(err)
	}
	return studentScore{
		ScoreResult: result,
		Success:     performance.ClassifySuccess(result.FinalScore),
		Source:      models.ScoreSourceMetrics,
	}, nil
}

// scoringError maps engine errors onto API errors.
func scoringError(err error) error {
	switch {
	case errors.Is(err, performance.ErrInvalidMaximum):
		return appErrors.Wrap(err, appErrors.ErrInvalidMetric.Code, appErrors.ErrInvalidMetric.Status, err.Error())
	case errors.Is(err, performance.ErrWeightSum), errors.Is(err, performance.ErrNegativeWeight), errors.Is(err, performance.ErrEmptyWeights):
		return appErrors.Wrap(err, appErrors.ErrInvalidWeights.Code, appErrors.ErrInvalidWeights.Status, appErrors.ErrInvalidWeights.Message)
	case errors.Is(err, performance.ErrUnknownWeights), errors.Is(err, performance.ErrUnknownScheme),
		errors.Is(err, performance.ErrValueAboveMaximum), errors.Is(err, performance.ErrUnknownCategory):
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	default:
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to compute score")
	}
}
