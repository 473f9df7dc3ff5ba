package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/edupredict-api/internal/models"
	appErrors "github.com/noah-isme/edupredict-api/pkg/errors"
	"github.com/noah-isme/edupredict-api/pkg/insight"
	"github.com/noah-isme/edupredict-api/pkg/llm"
	"github.com/noah-isme/edupredict-api/pkg/performance"
)

// PredictionConfig tunes scoring defaults and rewards.
type PredictionConfig struct {
	DefaultWeights  string
	InsightTTL      time.Duration
	XPPerPrediction int
}

// PredictionService computes deterministic scores and, for the prediction
// form, enriches them with generated insight.
type PredictionService struct {
	completer  completer
	cache      *CacheService
	awarder    xpAwarder
	metrics    *MetricsService
	normalizer performance.Normalizer
	validator  *validator.Validate
	logger     *zap.Logger
	cfg        PredictionConfig
}

// NewPredictionService constructs the service.
func NewPredictionService(generator llm.Generator, cache *CacheService, awarder xpAwarder, metrics *MetricsService, normalizer performance.Normalizer, validate *validator.Validate, logger *zap.Logger, cfg PredictionConfig) *PredictionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PredictionService{
		completer:  newCompleter(generator, metrics, logger),
		cache:      cache,
		awarder:    awarder,
		metrics:    metrics,
		normalizer: normalizer,
		validator:  validate,
		logger:     logger,
		cfg:        cfg,
	}
}

// Score normalizes arbitrary metrics and scores them under a named weight set.
func (s *PredictionService) Score(ctx context.Context, req models.ScoreRequest) (*models.ScoreResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid score payload")
	}
	if err := performance.CheckInputs(req.Metrics); err != nil {
		return nil, scoringError(err)
	}
	weightsName := req.Weights
	if weightsName == "" {
		weightsName = s.cfg.DefaultWeights
	}
	if weightsName == "" {
		weightsName = performance.WeightsCurrent
	}
	scheme := req.Scheme
	if scheme == "" {
		scheme = performance.SchemeRisk
	}

	weights, err := performance.WeightsByName(weightsName)
	if err != nil {
		return nil, scoringError(err)
	}
	normalized, err := s.normalizer.NormalizeAll(req.Metrics)
	if err != nil {
		return nil, scoringError(err)
	}
	result, err := performance.Score(normalized, weights)
	if err != nil {
		return nil, scoringError(err)
	}
	label, err := performance.Classify(scheme, result.FinalScore)
	if err != nil {
		return nil, scoringError(err)
	}
	s.metrics.RecordScore(string(scheme), label)

	return &models.ScoreResponse{
		ScoreResult:    result,
		Weights:        weightsName,
		Scheme:         scheme,
		Classification: label,
		Normalized:     normalized,
	}, nil
}

// Predict scores the prediction form with the five-factor weights, then asks
// the model for insight. The score is always returned; when the model fails
// the prediction is marked degraded and carries no insight.
func (s *PredictionService) Predict(ctx context.Context, userID string, in models.PredictionInput) (*models.Prediction, error) {
	if err := s.validator.Struct(in); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student data")
	}
	inputs := predictionInputs(in)
	if err := performance.CheckInputs(inputs); err != nil {
		return nil, scoringError(err)
	}

	normalized, err := s.normalizer.NormalizeAll(inputs)
	if err != nil {
		return nil, scoringError(err)
	}
	result, err := performance.Score(normalized, performance.PredictionWeights())
	if err != nil {
		return nil, scoringError(err)
	}
	s.metrics.RecordScore(string(performance.SchemeRisk), string(result.RiskLevel))

	prediction := &models.Prediction{
		ScoreResult:  result,
		SuccessLevel: performance.ClassifySuccess(result.FinalScore),
		Normalized:   normalized,
	}

	if text, ok := s.insightText(ctx, predictionRequest(in, result)); ok {
		extracted := extractInsight[insight.PredictionInsight](s.completer, "prediction", text, insight.ShapeObject)
		prediction.Insight = &extracted
	} else {
		prediction.Degraded = true
		s.metrics.RecordDegraded("prediction")
	}

	if userID != "" && s.awarder != nil && s.cfg.XPPerPrediction > 0 {
		award, err := s.awarder.Award(ctx, userID, s.cfg.XPPerPrediction)
		if err != nil {
			s.logger.Warn("failed to award prediction xp", zap.String("user_id", userID), zap.Error(err))
		} else {
			prediction.XPAward = award
		}
	}
	return prediction, nil
}

// insightText returns the model's answer for req, served from cache when the
// same prompt was answered recently.
func (s *PredictionService) insightText(ctx context.Context, req llm.Request) (string, bool) {
	sum := sha256.Sum256([]byte(req.System + "\x00" + req.Prompt))
	key := insightCacheKey(hex.EncodeToString(sum[:]))

	var text string
	if s.cache.Get(ctx, key, &text) {
		return text, true
	}
	text, err := s.completer.complete(ctx, "prediction", req)
	if err != nil {
		return "", false
	}
	s.cache.Set(ctx, key, text, s.cfg.InsightTTL)
	return text, true
}

func predictionInputs(in models.PredictionInput) map[performance.Category]performance.MetricInput {
	inputs := map[performance.Category]performance.MetricInput{
		performance.CategoryAttendance:    {Value: in.Attendance, Max: 100},
		performance.CategoryInternal:      {Value: in.InternalMarks, Max: maxMarksOrDefault(in.MaxMarks)},
		performance.CategoryAssignments:   {Value: in.AssignmentScore, Max: 100},
		performance.CategoryPreviousGrade: {Value: in.PreviousGrade, Max: 100},
		performance.CategoryStudyHours:    {Value: in.StudyHours, Max: 24},
	}
	if in.QuizScores != nil {
		inputs[performance.CategoryQuizzes] = performance.MetricInput{Value: *in.QuizScores, Max: 100}
	}
	if in.Participation != nil {
		inputs[performance.CategoryParticipation] = performance.MetricInput{Value: *in.Participation, Max: 100}
	}
	return inputs
}
