package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/edupredict-api/internal/models"
	appErrors "github.com/noah-isme/edupredict-api/pkg/errors"
	"github.com/noah-isme/edupredict-api/pkg/insight"
	"github.com/noah-isme/edupredict-api/pkg/llm"
)

// completer runs one text completion with metrics and logging.
type completer struct {
	generator llm.Generator
	metrics   *MetricsService
	logger    *zap.Logger
}

func newCompleter(generator llm.Generator, metrics *MetricsService, logger *zap.Logger) completer {
	if generator == nil {
		generator = llm.Disabled{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return completer{generator: generator, metrics: metrics, logger: logger}
}

func (c completer) complete(ctx context.Context, operation string, req llm.Request) (string, error) {
	start := time.Now()
	text, err := c.generator.Generate(ctx, req)
	c.metrics.ObserveLLM(operation, err, time.Since(start))
	if err != nil {
		c.logger.Warn("completion failed", zap.String("operation", operation), zap.Error(err))
		return "", appErrors.Wrap(err, appErrors.ErrLLMUnavailable.Code, appErrors.ErrLLMUnavailable.Status, "failed to generate "+operation)
	}
	return text, nil
}

func extractInsight[T any](c completer, operation, text string, shape insight.Shape) insight.Result[T] {
	result := insight.Extract[T](text, shape)
	c.metrics.RecordExtraction(operation, result.Method)
	if !result.Structured {
		c.logger.Debug("insight returned as raw text", zap.String("operation", operation), zap.Int("length", len(text)))
	}
	return result
}

// AIService serves the free-form generation endpoints.
type AIService struct {
	completer completer
	validator *validator.Validate
}

// NewAIService constructs the service.
func NewAIService(generator llm.Generator, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *AIService {
	if validate == nil {
		validate = validator.New()
	}
	return &AIService{completer: newCompleter(generator, metrics, logger), validator: validate}
}

// StudyAdvice returns a free-text study plan.
func (s *AIService) StudyAdvice(ctx context.Context, req models.StudyAdviceRequest) (*models.TextResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid study advice payload")
	}
	text, err := s.completer.complete(ctx, "study_advice", studyAdviceRequest(req))
	if err != nil {
		return nil, err
	}
	return &models.TextResult{Text: text}, nil
}

// ComicNarrative returns four comic panels, or the raw text when the model
// did not produce a parseable array.
func (s *AIService) ComicNarrative(ctx context.Context, req models.ComicRequest) (*models.ComicResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid comic payload")
	}
	text, err := s.completer.complete(ctx, "comic", comicRequest(req))
	if err != nil {
		return nil, err
	}
	return &models.ComicResult{Panels: extractInsight[[]insight.ComicPanel](s.completer, "comic", text, insight.ShapeArray)}, nil
}

// Chat answers one message using the persona selected by req.Context.
func (s *AIService) Chat(ctx context.Context, req models.ChatRequest) (*models.TextResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid chat payload")
	}
	text, err := s.completer.complete(ctx, "chat", chatRequest(req))
	if err != nil {
		return nil, err
	}
	return &models.TextResult{Text: text}, nil
}
