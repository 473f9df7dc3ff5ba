package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/edupredict-api/internal/models"
	appErrors "github.com/noah-isme/edupredict-api/pkg/errors"
	"github.com/noah-isme/edupredict-api/pkg/response"
)

type predictionService interface {
	Predict(ctx context.Context, userID string, in models.PredictionInput) (*models.Prediction, error)
	Score(ctx context.Context, req models.ScoreRequest) (*models.ScoreResponse, error)
}

type aiService interface {
	StudyAdvice(ctx context.Context, req models.StudyAdviceRequest) (*models.TextResult, error)
	ComicNarrative(ctx context.Context, req models.ComicRequest) (*models.ComicResult, error)
	Chat(ctx context.Context, req models.ChatRequest) (*models.TextResult, error)
}

// AIHandler serves the prediction, scoring and generative endpoints.
type AIHandler struct {
	predictions predictionService
	ai          aiService
}

// NewAIHandler constructs the handler.
func NewAIHandler(predictions predictionService, ai aiService) *AIHandler {
	return &AIHandler{predictions: predictions, ai: ai}
}

type predictRequest struct {
	StudentData *models.PredictionInput `json:"studentData"`
}

// Predict godoc
// @Summary Predict student success
// @Description Computes the weighted score and attaches generated insight. When the language model is unavailable the score is still returned with meta.degraded set.
// @Tags AI
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body predictRequest true "Prediction form"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /ai/predict [post]
func (h *AIHandler) Predict(c *gin.Context) {
	var req predictRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.StudentData == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "studentData is required"))
		return
	}
	userID := ""
	if claims := claimsFromContext(c); claims != nil {
		userID = claims.UserID
	}
	prediction, err := h.predictions.Predict(c.Request.Context(), userID, *req.StudentData)
	if err != nil {
		response.Error(c, err)
		return
	}
	if prediction.Degraded {
		response.Degraded(c, prediction, "insight unavailable")
		return
	}
	response.JSON(c, http.StatusOK, prediction, nil)
}

// Score godoc
// @Summary Compute score and risk
// @Description Deterministic scoring with a named weight set; no language model involved
// @Tags AI
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.ScoreRequest true "Metrics"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /score [post]
func (h *AIHandler) Score(c *gin.Context) {
	var req models.ScoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid score payload"))
		return
	}
	res, err := h.predictions.Score(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}

// StudyAdvice godoc
// @Summary Personalised study advice
// @Tags AI
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.StudyAdviceRequest true "Advice request"
// @Success 200 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /ai/study-advice [post]
func (h *AIHandler) StudyAdvice(c *gin.Context) {
	var req models.StudyAdviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	res, err := h.ai.StudyAdvice(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}

// ComicNarrative godoc
// @Summary Four-panel progress story
// @Tags AI
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.ComicRequest true "Story inputs"
// @Success 200 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /ai/comic-narrative [post]
func (h *AIHandler) ComicNarrative(c *gin.Context) {
	var req models.ComicRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	res, err := h.ai.ComicNarrative(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}

// Chat godoc
// @Summary Chat with the assistant
// @Tags AI
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.ChatRequest true "Message"
// @Success 200 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /ai/chat [post]
func (h *AIHandler) Chat(c *gin.Context) {
	var req models.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if req.Context == "" {
		if claims := claimsFromContext(c); claims != nil && claims.Role == models.RoleStudent {
			req.Context = "student"
		}
	}
	res, err := h.ai.Chat(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}
