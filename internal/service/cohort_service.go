package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/edupredict-api/internal/models"
	appErrors "github.com/noah-isme/edupredict-api/pkg/errors"
	"github.com/noah-isme/edupredict-api/pkg/performance"
)

type cohortRepository interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.StudentDetail, int, error)
	ListAll(ctx context.Context, filter models.StudentFilter) ([]models.StudentDetail, error)
}

// CohortService scores groups of students for staff listings and reports.
type CohortService struct {
	repo            cohortRepository
	cache           *CacheService
	metrics         *MetricsService
	normalizer      performance.Normalizer
	distributionTTL time.Duration
	logger          *zap.Logger
}

// NewCohortService constructs the service.
func NewCohortService(repo cohortRepository, cache *CacheService, metrics *MetricsService, normalizer performance.Normalizer, distributionTTL time.Duration, logger *zap.Logger) *CohortService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CohortService{repo: repo, cache: cache, metrics: metrics, normalizer: normalizer, distributionTTL: distributionTTL, logger: logger}
}

// List returns a page of scored students.
func (s *CohortService) List(ctx context.Context, filter models.StudentFilter) ([]models.CohortEntry, *models.Pagination, error) {
	details, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	entries, err := s.score(details)
	if err != nil {
		return nil, nil, err
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	return entries, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Entries scores every student matching filter, optionally keeping only one
// risk tier.
func (s *CohortService) Entries(ctx context.Context, filter models.StudentFilter, risk performance.RiskLevel) ([]models.CohortEntry, error) {
	details, err := s.repo.ListAll(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	entries, err := s.score(details)
	if err != nil {
		return nil, err
	}
	if risk == "" {
		return entries, nil
	}
	filtered := entries[:0]
	for _, e := range entries {
		if e.RiskLevel == risk {
			filtered = append(filtered, e)
		}
	}
	return filtered, nil
}

// Distribution counts students per tier under both schemes.
func (s *CohortService) Distribution(ctx context.Context, grade string) (*models.RiskDistribution, error) {
	key := distributionCacheKey(grade)
	var cached models.RiskDistribution
	if s.cache.Get(ctx, key, &cached) {
		return &cached, nil
	}

	entries, err := s.Entries(ctx, models.StudentFilter{Grade: grade}, "")
	if err != nil {
		return nil, err
	}
	dist := summarize(entries)
	s.cache.Set(ctx, key, dist, s.distributionTTL)
	return dist, nil
}

func (s *CohortService) score(details []models.StudentDetail) ([]models.CohortEntry, error) {
	entries := make([]models.CohortEntry, 0, len(details))
	for i := range details {
		d := &details[i]
		score, err := scoreStudent(s.normalizer, &d.Student)
		if err != nil {
			return nil, err
		}
		s.metrics.RecordScore(string(performance.SchemeRisk), string(score.RiskLevel))
		entry := models.CohortEntry{
			StudentID:       d.ID,
			UserID:          d.UserID,
			Name:            d.Name,
			Grade:           d.Grade,
			OverallScore:    score.FinalScore,
			PassProbability: score.PassProbability,
			RiskLevel:       score.RiskLevel,
			SuccessLevel:    score.Success,
			Source:          score.Source,
		}
		if d.RollNumber != nil {
			entry.RollNumber = *d.RollNumber
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func summarize(entries []models.CohortEntry) *models.RiskDistribution {
	dist := &models.RiskDistribution{
		Total:   len(entries),
		Risk:    make(map[performance.RiskLevel]int),
		Success: make(map[performance.SuccessLevel]int),
	}
	for _, level := range performance.RiskLevels() {
		dist.Risk[level] = 0
	}
	for _, level := range performance.SuccessLevels() {
		dist.Success[level] = 0
	}
	total := 0
	for _, e := range entries {
		dist.Risk[e.RiskLevel]++
		dist.Success[e.SuccessLevel]++
		total += e.OverallScore
	}
	if len(entries) > 0 {
		dist.Average = float64(total) / float64(len(entries))
	}
	return dist
}
