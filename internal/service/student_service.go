package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/edupredict-api/internal/models"
	appErrors "github.com/noah-isme/edupredict-api/pkg/errors"
	"github.com/noah-isme/edupredict-api/pkg/insight"
	"github.com/noah-isme/edupredict-api/pkg/llm"
	"github.com/noah-isme/edupredict-api/pkg/performance"
)

type studentRepository interface {
	FindByUserID(ctx context.Context, userID string) (*models.StudentDetail, error)
	UpdateMetrics(ctx context.Context, student *models.Student) error
	ReplaceSubjects(ctx context.Context, studentID string, subjects []models.Subject) error
}

type xpAwarder interface {
	Award(ctx context.Context, userID string, amount int) (*models.XPAward, error)
}

// StudentServiceConfig tunes caching and XP rewards.
type StudentServiceConfig struct {
	ProgressTTL   time.Duration
	XPPerWhatIf   int
	XPPerSubjects int
}

// StudentService serves a student's profile, marks and derived progress.
type StudentService struct {
	repo       studentRepository
	awarder    xpAwarder
	cache      *CacheService
	completer  completer
	normalizer performance.Normalizer
	validator  *validator.Validate
	logger     *zap.Logger
	cfg        StudentServiceConfig
}

// NewStudentService constructs the student service.
func NewStudentService(repo studentRepository, awarder xpAwarder, cache *CacheService, generator llm.Generator, metrics *MetricsService, normalizer performance.Normalizer, validate *validator.Validate, logger *zap.Logger, cfg StudentServiceConfig) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{
		repo:       repo,
		awarder:    awarder,
		cache:      cache,
		completer:  newCompleter(generator, metrics, logger),
		normalizer: normalizer,
		validator:  validate,
		logger:     logger,
		cfg:        cfg,
	}
}

// Profile returns the student with identity fields and subjects.
func (s *StudentService) Profile(ctx context.Context, userID string) (*models.StudentDetail, error) {
	return s.load(ctx, userID)
}

// UpdateMetrics applies the whitelisted fields present in req.
func (s *StudentService) UpdateMetrics(ctx context.Context, userID string, req models.MetricsUpdate) (*models.StudentDetail, error) {
	if req.Empty() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "no valid update fields provided")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid metrics payload")
	}

	detail, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	req.Apply(&detail.Student)
	if err := s.repo.UpdateMetrics(ctx, &detail.Student); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update student")
	}
	s.invalidate(ctx, userID)
	return detail, nil
}

// Progress derives the dashboard view. Results are cached until the
// student's data changes.
func (s *StudentService) Progress(ctx context.Context, userID string) (*models.Progress, error) {
	var cached models.Progress
	if s.cache.Get(ctx, progressCacheKey(userID), &cached) {
		return &cached, nil
	}

	detail, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	progress, err := buildProgress(s.normalizer, detail)
	if err != nil {
		return nil, err
	}
	s.cache.Set(ctx, progressCacheKey(userID), progress, s.cfg.ProgressTTL)
	return progress, nil
}

// Subjects returns the student's subject list.
func (s *StudentService) Subjects(ctx context.Context, userID string) ([]models.Subject, error) {
	detail, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	return detail.Subjects, nil
}

// ReplaceSubjects validates and stores a full subject list, recomputing each
// predicted score.
func (s *StudentService) ReplaceSubjects(ctx context.Context, userID string, inputs []models.SubjectInput) ([]models.Subject, *models.XPAward, error) {
	if inputs == nil {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "subjects array is required")
	}
	subjects := make([]models.Subject, len(inputs))
	for i, in := range inputs {
		in.Name = strings.TrimSpace(in.Name)
		if err := s.validator.Struct(in); err != nil {
			return nil, nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, fmt.Sprintf("invalid subject at index %d", i))
		}
		marks := performance.SubjectMarks{Internal: in.InternalMarks, External: in.ExternalMarks}
		subjects[i] = models.Subject{
			Name:           in.Name,
			InternalMarks:  in.InternalMarks,
			ExternalMarks:  in.ExternalMarks,
			PredictedScore: marks.PredictedScore(),
		}
	}

	detail, err := s.load(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	if err := s.repo.ReplaceSubjects(ctx, detail.ID, subjects); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update subjects")
	}
	s.invalidate(ctx, userID)

	return subjects, s.award(ctx, userID, s.cfg.XPPerSubjects), nil
}

// WhatIf asks the model to project the effect of a hypothetical change.
func (s *StudentService) WhatIf(ctx context.Context, userID string, req models.WhatIfRequest) (*models.WhatIfResult, error) {
	req.Scenario = strings.TrimSpace(req.Scenario)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "scenario is required and must be under 500 characters")
	}
	detail, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	scenario := sanitizeScenario(req.Scenario)
	text, err := s.completer.complete(ctx, "what_if", whatIfRequest(detail, scenario))
	if err != nil {
		return nil, err
	}
	return &models.WhatIfResult{
		Scenario: scenario,
		Analysis: extractInsight[insight.WhatIfInsight](s.completer, "what_if", text, insight.ShapeObject),
		XPAward:  s.award(ctx, userID, s.cfg.XPPerWhatIf),
	}, nil
}

func (s *StudentService) award(ctx context.Context, userID string, amount int) *models.XPAward {
	if s.awarder == nil || amount <= 0 {
		return nil
	}
	award, err := s.awarder.Award(ctx, userID, amount)
	if err != nil {
		s.logger.Warn("failed to award xp", zap.String("user_id", userID), zap.Error(err))
		return nil
	}
	return award
}

func (s *StudentService) invalidate(ctx context.Context, userID string) {
	s.cache.Delete(ctx, progressCacheKey(userID))
	s.cache.Invalidate(ctx, "distribution:*")
}

func (s *StudentService) load(ctx context.Context, userID string) (*models.StudentDetail, error) {
	detail, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return detail, nil
}

func buildProgress(n performance.Normalizer, detail *models.StudentDetail) (*models.Progress, error) {
	score, err := scoreStudent(n, &detail.Student)
	if err != nil {
		return nil, err
	}

	subjects := detail.Subjects
	if subjects == nil {
		subjects = []models.Subject{}
	}
	averages := []models.SubjectAverage{}
	if score.HasSubjectData {
		for _, sub := range subjects {
			averages = append(averages, models.SubjectAverage{
				Name:     sub.Name,
				Internal: sub.InternalMarks,
				External: sub.ExternalMarks,
				Average:  performance.SubjectMarks{Internal: sub.InternalMarks, External: sub.ExternalMarks}.PredictedScore(),
			})
		}
	}

	// With subject data every tile shows the overall score.
	tile := func(raw float64) models.MetricTile {
		if score.HasSubjectData {
			return models.MetricTile{Value: float64(score.FinalScore)}
		}
		return models.MetricTile{Value: raw}
	}

	return &models.Progress{
		StudentID:         detail.ID,
		Name:              detail.Name,
		RollNumber:        detail.RollNumber,
		Gender:            detail.Gender,
		OverallScore:      score.FinalScore,
		PassProbability:   score.PassProbability,
		RiskLevel:         score.RiskLevel,
		SuccessPrediction: score.Success,
		Source:            score.Source,
		HasSubjectData:    score.HasSubjectData,
		Subjects:          subjects,
		SubjectAverages:   averages,
		Metrics: models.ProgressMetrics{
			Attendance:    tile(detail.Attendance),
			Assignments:   tile(detail.AssignmentCompletion),
			Quizzes:       tile(detail.QuizScores),
			Participation: tile(detail.Participation),
		},
		Gamification:     gamificationSummary(&detail.Student),
		WeeklyStudyHours: detail.StudyHours,
	}, nil
}
