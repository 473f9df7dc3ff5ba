package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/edupredict-api/internal/models"
	appErrors "github.com/noah-isme/edupredict-api/pkg/errors"
	"github.com/noah-isme/edupredict-api/pkg/response"
)

type gamificationService interface {
	Summary(ctx context.Context, userID string) (*models.GamificationSummary, error)
	AwardRequest(ctx context.Context, req models.AwardXPRequest) (*models.XPAward, error)
}

// GamificationHandler exposes XP state and awards.
type GamificationHandler struct {
	service gamificationService
}

// NewGamificationHandler constructs the handler.
func NewGamificationHandler(svc gamificationService) *GamificationHandler {
	return &GamificationHandler{service: svc}
}

// Me godoc
// @Summary Current gamification state
// @Tags Gamification
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /gamification/me [get]
func (h *GamificationHandler) Me(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	summary, err := h.service.Summary(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}

// AwardXP godoc
// @Summary Award experience points
// @Description Students always credit themselves; faculty and admins may set userId
// @Tags Gamification
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.AwardXPRequest true "Award"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /gamification/xp [post]
func (h *GamificationHandler) AwardXP(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req models.AwardXPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid xp payload"))
		return
	}
	if req.UserID == "" || !claims.Role.IsStaff() {
		req.UserID = claims.UserID
	}
	award, err := h.service.AwardRequest(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, award, nil)
}
