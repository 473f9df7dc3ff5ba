package service

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/edupredict-api/internal/models"
	"github.com/noah-isme/edupredict-api/pkg/export"
	"github.com/noah-isme/edupredict-api/pkg/performance"
	"github.com/noah-isme/edupredict-api/pkg/storage"
)

type cohortSource interface {
	Entries(ctx context.Context, filter models.StudentFilter, risk performance.RiskLevel) ([]models.CohortEntry, error)
}

type fileStorage interface {
	Save(relPath string, data []byte) (string, error)
	Open(relPath string) (*os.File, int64, error)
	Delete(relPath string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
	ResultTTL time.Duration
}

// ExportResult captures successful generation metadata.
type ExportResult struct {
	RelativePath string
	Token        string
	URL          string
	Format       models.ReportFormat
	ExpiresAt    time.Time
}

const riskColumn = "Risk"

var cohortHeaders = []string{"Name", "Roll Number", "Grade", "Score", "Pass %", riskColumn, "Success", "Source"}

// ExportService renders cohort risk reports and persists them behind signed URLs.
type ExportService struct {
	cohort    cohortSource
	storage   fileStorage
	renderers map[models.ReportFormat]export.Renderer
	signer    *storage.SignedURLSigner
	logger    *zap.Logger
	cfg       ExportConfig
	now       func() time.Time
}

// NewExportService constructs an ExportService with CSV and PDF renderers.
func NewExportService(cohort cohortSource, store fileStorage, signer *storage.SignedURLSigner, cfg ExportConfig, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	return &ExportService{
		cohort:  cohort,
		storage: store,
		renderers: map[models.ReportFormat]export.Renderer{
			models.ReportFormatCSV: export.NewCSVExporter(),
			models.ReportFormatPDF: export.NewPDFExporter(),
		},
		signer: signer,
		logger: logger,
		cfg:    cfg,
		now:    time.Now,
	}
}

// Generate builds the cohort dataset for job, renders it and returns a signed URL.
func (s *ExportService) Generate(ctx context.Context, job *models.ReportJob) (*ExportResult, error) {
	if job == nil {
		return nil, fmt.Errorf("job nil")
	}
	if job.Type != models.ReportTypeCohortRisk {
		return nil, fmt.Errorf("unsupported report type %s", job.Type)
	}
	renderer, ok := s.renderers[job.Params.Format]
	if !ok {
		return nil, fmt.Errorf("unsupported format %s", job.Params.Format)
	}

	entries, err := s.cohort.Entries(ctx, models.StudentFilter{Grade: job.Params.Grade}, performance.RiskLevel(job.Params.RiskLevel))
	if err != nil {
		return nil, err
	}
	payload, err := renderer.Render(cohortDataset(entries, job.Params, s.now()))
	if err != nil {
		return nil, err
	}

	relPath, err := s.storage.Save(s.buildFilename(job, renderer.Extension()), payload)
	if err != nil {
		return nil, err
	}
	token, expiresAt, err := s.signer.Generate(job.ID, relPath)
	if err != nil {
		return nil, err
	}
	prefix := strings.TrimRight(s.cfg.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api/v1"
	}
	s.logger.Info("cohort report generated",
		zap.String("job_id", job.ID),
		zap.Int("rows", len(entries)),
		zap.String("format", string(job.Params.Format)),
	)
	return &ExportResult{
		RelativePath: relPath,
		Token:        token,
		URL:          prefix + "/export/" + token,
		Format:       job.Params.Format,
		ExpiresAt:    expiresAt,
	}, nil
}

// ParseToken validates a download token.
func (s *ExportService) ParseToken(token string, allowExpired bool) (storage.DownloadClaims, error) {
	return s.signer.Parse(token, allowExpired)
}

// Open returns a handle to a stored file and its size.
func (s *ExportService) Open(relPath string) (*os.File, int64, error) {
	return s.storage.Open(relPath)
}

// Delete removes a stored export file.
func (s *ExportService) Delete(relPath string) error {
	return s.storage.Delete(relPath)
}

// Cleanup removes files older than ttl, or the configured ResultTTL when ttl <= 0.
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	if ttl <= 0 {
		ttl = s.cfg.ResultTTL
	}
	return s.storage.CleanupOlderThan(ttl)
}

// ContentType returns the MIME type for format.
func (s *ExportService) ContentType(format models.ReportFormat) string {
	if r, ok := s.renderers[format]; ok {
		return r.ContentType()
	}
	return "application/octet-stream"
}

func (s *ExportService) buildFilename(job *models.ReportJob, ext string) string {
	scope := sanitizeFilename(job.Params.Grade)
	if job.Params.RiskLevel != "" {
		scope += "_" + job.Params.RiskLevel
	}
	timestamp := s.now().UTC().Format("20060102_150405")
	return fmt.Sprintf("%s_%s_%s.%s", job.Type, scope, timestamp, ext)
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "all"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".")
	result := replacer.Replace(raw)
	if len(result) > 60 {
		return result[:60]
	}
	return result
}

func cohortDataset(entries []models.CohortEntry, params models.ReportJobParams, generatedAt time.Time) export.Dataset {
	rows := make([]map[string]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, map[string]string{
			"Name":        e.Name,
			"Roll Number": e.RollNumber,
			"Grade":       e.Grade,
			"Score":       strconv.Itoa(e.OverallScore),
			"Pass %":      strconv.Itoa(e.PassProbability),
			riskColumn:    string(e.RiskLevel),
			"Success":     string(e.SuccessLevel),
			"Source":      string(e.Source),
		})
	}

	dist := summarize(entries)
	scope := "All grades"
	if params.Grade != "" {
		scope = "Grade " + params.Grade
	}
	summary := []export.SummaryLine{
		{Label: "Scope", Value: scope},
		{Label: "Students", Value: strconv.Itoa(dist.Total)},
		{Label: "Average score", Value: strconv.FormatFloat(dist.Average, 'f', 1, 64)},
	}
	for _, level := range performance.RiskLevels() {
		summary = append(summary, export.SummaryLine{Label: "Risk " + string(level), Value: strconv.Itoa(dist.Risk[level])})
	}
	if params.RiskLevel != "" {
		summary = append(summary, export.SummaryLine{Label: "Filtered to", Value: params.RiskLevel + " risk"})
	}
	summary = append(summary, export.SummaryLine{Label: "Generated", Value: generatedAt.UTC().Format(time.RFC3339)})
	return export.Dataset{
		Title:           "Cohort Risk Report",
		Headers:         cohortHeaders,
		Rows:            rows,
		Summary:         summary,
		HighlightColumn: riskColumn,
	}
}
