package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/edupredict-api/internal/models"
	"github.com/noah-isme/edupredict-api/pkg/performance"
	"github.com/noah-isme/edupredict-api/pkg/storage"
)

type cohortStub struct {
	entries []models.CohortEntry
	err     error
	risk    performance.RiskLevel
	filter  models.StudentFilter
}

func (c *cohortStub) Entries(ctx context.Context, filter models.StudentFilter, risk performance.RiskLevel) ([]models.CohortEntry, error) {
	c.filter, c.risk = filter, risk
	if c.err != nil {
		return nil, c.err
	}
	return c.entries, nil
}

func sampleEntries() []models.CohortEntry {
	return []models.CohortEntry{
		{StudentID: "s1", Name: "Rina", RollNumber: "R-01", Grade: "10th", OverallScore: 82, PassProbability: 90, RiskLevel: performance.RiskLow, SuccessLevel: performance.SuccessMedium, Source: models.ScoreSourceSubjects},
		{StudentID: "s2", Name: "Budi", Grade: "10th", OverallScore: 41, PassProbability: 45, RiskLevel: performance.RiskHigh, SuccessLevel: performance.SuccessNeedsImprovement, Source: models.ScoreSourceMetrics},
	}
}

func newExportServiceForTest(t *testing.T, cohort cohortSource) *ExportService {
	t.Helper()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("secret", time.Hour)
	return NewExportService(cohort, store, signer, ExportConfig{APIPrefix: "/api/v1/", ResultTTL: time.Hour}, zap.NewNop())
}

func TestExportServiceGenerateCSV(t *testing.T) {
	cohort := &cohortStub{entries: sampleEntries()}
	svc := newExportServiceForTest(t, cohort)
	job := &models.ReportJob{
		ID:     "job-1",
		Type:   models.ReportTypeCohortRisk,
		Params: models.ReportJobParams{Format: models.ReportFormatCSV, Grade: "10th", RiskLevel: "high"},
	}

	result, err := svc.Generate(context.Background(), job)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(result.URL, "/api/v1/export/"))
	assert.True(t, strings.HasSuffix(result.RelativePath, ".csv"))
	assert.Contains(t, result.RelativePath, "cohort_risk_10th_high_")
	assert.Equal(t, "10th", cohort.filter.Grade)
	assert.Equal(t, performance.RiskHigh, cohort.risk)

	claims, err := svc.ParseToken(result.Token, false)
	require.NoError(t, err)
	assert.Equal(t, "job-1", claims.JobID)

	file, size, err := svc.Open(claims.Path)
	require.NoError(t, err)
	defer file.Close()
	data, err := io.ReadAll(file)
	require.NoError(t, err)
	assert.Equal(t, int64(len(data)), size)
	content := string(data)
	assert.Contains(t, content, "# Students,2")
	assert.Contains(t, content, "# Risk high,1")
	assert.Contains(t, content, "Name,Roll Number,Grade,Score,Pass %,Risk,Success,Source")
	assert.Contains(t, content, "Rina,R-01,10th,82,90,low,Medium,subjects")
}

func TestExportServiceGeneratePDF(t *testing.T) {
	svc := newExportServiceForTest(t, &cohortStub{entries: sampleEntries()})
	job := &models.ReportJob{ID: "job-2", Type: models.ReportTypeCohortRisk, Params: models.ReportJobParams{Format: models.ReportFormatPDF}}

	result, err := svc.Generate(context.Background(), job)
	require.NoError(t, err)
	assert.Contains(t, result.RelativePath, "cohort_risk_all_")
	assert.Equal(t, "application/pdf", svc.ContentType(models.ReportFormatPDF))
}

func TestExportServiceGenerateErrors(t *testing.T) {
	svc := newExportServiceForTest(t, &cohortStub{err: errors.New("db down")})
	ctx := context.Background()

	_, err := svc.Generate(ctx, nil)
	require.Error(t, err)

	_, err = svc.Generate(ctx, &models.ReportJob{ID: "j", Type: "grades", Params: models.ReportJobParams{Format: models.ReportFormatCSV}})
	require.Error(t, err)

	_, err = svc.Generate(ctx, &models.ReportJob{ID: "j", Type: models.ReportTypeCohortRisk, Params: models.ReportJobParams{Format: "xlsx"}})
	require.Error(t, err)

	_, err = svc.Generate(ctx, &models.ReportJob{ID: "j", Type: models.ReportTypeCohortRisk, Params: models.ReportJobParams{Format: models.ReportFormatCSV}})
	require.EqualError(t, err, "db down")
}

func TestCohortDatasetHighlightsRisk(t *testing.T) {
	ds := cohortDataset(sampleEntries(), models.ReportJobParams{}, time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC))
	assert.Equal(t, riskColumn, ds.HighlightColumn)
	assert.Len(t, ds.Rows, 2)
	assert.Equal(t, "high", ds.Rows[1][riskColumn])
	assert.Equal(t, "All grades", ds.Summary[0].Value)
	assert.Equal(t, "61.5", ds.Summary[2].Value)
	assert.Equal(t, "2024-01-02T03:04:05Z", ds.Summary[len(ds.Summary)-1].Value)
}
