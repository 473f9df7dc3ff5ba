package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/edupredict-api/internal/models"
	"github.com/noah-isme/edupredict-api/pkg/performance"
)

type cohortServiceStub struct {
	filter models.StudentFilter
	grade  string
}

func (s *cohortServiceStub) List(ctx context.Context, filter models.StudentFilter) ([]models.CohortEntry, *models.Pagination, error) {
	s.filter = filter
	entries := []models.CohortEntry{{Name: "Rina", OverallScore: 82, RiskLevel: performance.RiskLow}}
	return entries, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: 1}, nil
}

func (s *cohortServiceStub) Distribution(ctx context.Context, grade string) (*models.RiskDistribution, error) {
	s.grade = grade
	return &models.RiskDistribution{
		Total: 3,
		Risk:  map[performance.RiskLevel]int{performance.RiskLow: 1, performance.RiskMedium: 1, performance.RiskHigh: 1},
	}, nil
}

func TestCohortHandlerListPagination(t *testing.T) {
	svc := &cohortServiceStub{}
	h := NewCohortHandler(svc)

	c, w := newGinContext(http.MethodGet, "/students?grade=10th&page=2&page_size=5", nil)
	withUser(c, "fac-1", models.RoleFaculty)
	h.List(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "10th", svc.filter.Grade)
	assert.Equal(t, 2, svc.filter.Page)
	assert.Equal(t, 5, svc.filter.PageSize)
	env := decodeEnvelope(t, w)
	assert.Equal(t, float64(1), env.Pagination["total_count"])
}

func TestCohortHandlerRiskDistribution(t *testing.T) {
	svc := &cohortServiceStub{}
	h := NewCohortHandler(svc)

	c, w := newGinContext(http.MethodGet, "/reports/risk-distribution?grade=12th", nil)
	h.RiskDistribution(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "12th", svc.grade)
	assert.Contains(t, string(decodeEnvelope(t, w).Data), `"high":1`)
}
