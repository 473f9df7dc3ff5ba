package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/edupredict-api/internal/models"
	appErrors "github.com/noah-isme/edupredict-api/pkg/errors"
	"github.com/noah-isme/edupredict-api/pkg/insight"
	"github.com/noah-isme/edupredict-api/pkg/llm"
	"github.com/noah-isme/edupredict-api/pkg/performance"
)

type studentFixture struct {
	svc     *StudentService
	store   *studentStore
	cache   *memCache
	awarder *awarderStub
}

func newStudentFixture(t *testing.T, generator llm.Generator, details ...models.StudentDetail) studentFixture {
	t.Helper()
	store := newStudentStore(details...)
	cache := newMemCache()
	awarder := &awarderStub{}
	svc := NewStudentService(store, awarder, newTestCache(cache), generator, nil, performance.NewNormalizer(true, zap.NewNop()), nil, zap.NewNop(), StudentServiceConfig{
		XPPerWhatIf:   20,
		XPPerSubjects: 15,
	})
	return studentFixture{svc: svc, store: store, cache: cache, awarder: awarder}
}

func TestStudentServiceProgressFromMetrics(t *testing.T) {
	f := newStudentFixture(t, nil, sampleStudent("u1"))

	progress, err := f.svc.Progress(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 77, progress.OverallScore)
	assert.Equal(t, 85, progress.PassProbability)
	assert.Equal(t, performance.RiskLow, progress.RiskLevel)
	assert.Equal(t, performance.SuccessMedium, progress.SuccessPrediction)
	assert.Equal(t, models.ScoreSourceMetrics, progress.Source)
	assert.False(t, progress.HasSubjectData)
	assert.Equal(t, 80.0, progress.Metrics.Assignments.Value)
	assert.Empty(t, progress.SubjectAverages)
	assert.NotNil(t, progress.Subjects)
	assert.Equal(t, 1000, progress.Gamification.XPToNextLevel)
	assert.True(t, f.cache.has(progressCacheKey("u1")))
}

func TestStudentServiceProgressServedFromCache(t *testing.T) {
	f := newStudentFixture(t, nil, sampleStudent("u1"))
	ctx := context.Background()

	first, err := f.svc.Progress(ctx, "u1")
	require.NoError(t, err)

	f.store.byUser["u1"].Attendance = 0
	second, err := f.svc.Progress(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, first.OverallScore, second.OverallScore)
}

func TestStudentServiceProgressFromSubjects(t *testing.T) {
	detail := sampleStudent("u1")
	detail.Subjects = []models.Subject{
		{Name: "Mathematics", InternalMarks: 80, ExternalMarks: 90},
		{Name: "Physics", InternalMarks: 60, ExternalMarks: 70},
	}
	f := newStudentFixture(t, nil, detail)

	progress, err := f.svc.Progress(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 75, progress.OverallScore)
	assert.Equal(t, models.ScoreSourceSubjects, progress.Source)
	assert.True(t, progress.HasSubjectData)
	assert.Equal(t, 75.0, progress.Metrics.Attendance.Value)
	assert.Equal(t, 75.0, progress.Metrics.Participation.Value)
	require.Len(t, progress.SubjectAverages, 2)
	assert.Equal(t, 85, progress.SubjectAverages[0].Average)
	assert.Equal(t, 65, progress.SubjectAverages[1].Average)
}

func TestStudentServiceProfileNotFound(t *testing.T) {
	f := newStudentFixture(t, nil)
	_, err := f.svc.Profile(context.Background(), "ghost")
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestStudentServiceUpdateMetrics(t *testing.T) {
	f := newStudentFixture(t, nil, sampleStudent("u1"))
	ctx := context.Background()
	_, err := f.svc.Progress(ctx, "u1")
	require.NoError(t, err)

	attendance := 55.0
	grade := "11th"
	detail, err := f.svc.UpdateMetrics(ctx, "u1", models.MetricsUpdate{Attendance: &attendance, Grade: &grade})
	require.NoError(t, err)
	assert.Equal(t, 55.0, detail.Attendance)
	assert.Equal(t, "11th", f.store.byUser["u1"].Grade)
	assert.False(t, f.cache.has(progressCacheKey("u1")))
	assert.Contains(t, f.cache.patterns, "distribution:*")
}

func TestStudentServiceUpdateMetricsRejectsInvalid(t *testing.T) {
	f := newStudentFixture(t, nil, sampleStudent("u1"))
	ctx := context.Background()

	_, err := f.svc.UpdateMetrics(ctx, "u1", models.MetricsUpdate{})
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	over := 150.0
	_, err = f.svc.UpdateMetrics(ctx, "u1", models.MetricsUpdate{Attendance: &over})
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrValidation)
	assert.Zero(t, f.store.updates)
}

func TestStudentServiceReplaceSubjects(t *testing.T) {
	f := newStudentFixture(t, nil, sampleStudent("u1"))

	subjects, award, err := f.svc.ReplaceSubjects(context.Background(), "u1", []models.SubjectInput{
		{Name: "  Chemistry ", InternalMarks: 71, ExternalMarks: 80},
		{Name: "Biology", InternalMarks: 0, ExternalMarks: 0},
	})
	require.NoError(t, err)
	require.Len(t, subjects, 2)
	assert.Equal(t, "Chemistry", subjects[0].Name)
	assert.Equal(t, 76, subjects[0].PredictedScore)
	assert.Equal(t, 0, subjects[1].PredictedScore)
	require.NotNil(t, award)
	assert.Equal(t, []int{15}, f.awarder.calls)
	assert.Len(t, f.store.byUser["u1"].Subjects, 2)
}

func TestStudentServiceReplaceSubjectsValidation(t *testing.T) {
	f := newStudentFixture(t, nil, sampleStudent("u1"))
	ctx := context.Background()

	_, _, err := f.svc.ReplaceSubjects(ctx, "u1", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, _, err = f.svc.ReplaceSubjects(ctx, "u1", []models.SubjectInput{
		{Name: "Math", InternalMarks: 50, ExternalMarks: 50},
		{Name: "Physics", InternalMarks: 120, ExternalMarks: 50},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "index 1")
	assert.Empty(t, f.awarder.calls)
}

func TestStudentServiceReplaceSubjectsAllowsEmptyList(t *testing.T) {
	f := newStudentFixture(t, nil, sampleStudent("u1"))
	subjects, _, err := f.svc.ReplaceSubjects(context.Background(), "u1", []models.SubjectInput{})
	require.NoError(t, err)
	assert.Empty(t, subjects)
}

func TestStudentServiceWhatIf(t *testing.T) {
	var prompt string
	generator := llm.Func(func(ctx context.Context, req llm.Request) (string, error) {
		prompt = req.Prompt
		return `Sure! {"impact":"Grades rise","projectedScores":{"quizzes":85},"timeline":"6 weeks","actionSteps":["Plan"],"challenges":["Focus"],"encouragement":"You can do it"} Good luck`, nil
	})
	f := newStudentFixture(t, generator, sampleStudent("u1"))

	result, err := f.svc.WhatIf(context.Background(), "u1", models.WhatIfRequest{Scenario: " Study two\nmore hours\r\n daily "})
	require.NoError(t, err)
	assert.Equal(t, "Study two more hours  daily", result.Scenario)
	assert.True(t, strings.Contains(prompt, `Scenario: "Study two more hours  daily"`))
	assert.True(t, result.Analysis.Structured)
	assert.Equal(t, insight.MethodScan, result.Analysis.Method)
	assert.Equal(t, insight.FlexString("6 weeks"), result.Analysis.Value.Timeline)
	require.NotNil(t, result.XPAward)
	assert.Equal(t, []int{20}, f.awarder.calls)
}

func TestStudentServiceWhatIfProviderFailure(t *testing.T) {
	generator := llm.Func(func(ctx context.Context, req llm.Request) (string, error) {
		return "", errors.New("upstream timeout")
	})
	f := newStudentFixture(t, generator, sampleStudent("u1"))

	_, err := f.svc.WhatIf(context.Background(), "u1", models.WhatIfRequest{Scenario: "skip homework"})
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrLLMUnavailable)
	assert.Empty(t, f.awarder.calls)
}

func TestStudentServiceWhatIfRequiresScenario(t *testing.T) {
	f := newStudentFixture(t, llm.Static("{}"), sampleStudent("u1"))
	_, err := f.svc.WhatIf(context.Background(), "u1", models.WhatIfRequest{Scenario: "   "})
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}
