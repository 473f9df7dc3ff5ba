package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/edupredict-api/internal/models"
	"github.com/noah-isme/edupredict-api/pkg/response"
)

type cohortService interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.CohortEntry, *models.Pagination, error)
	Distribution(ctx context.Context, grade string) (*models.RiskDistribution, error)
}

// CohortHandler exposes staff views across many students.
type CohortHandler struct {
	service cohortService
}

// NewCohortHandler constructs the handler.
func NewCohortHandler(svc cohortService) *CohortHandler {
	return &CohortHandler{service: svc}
}

// List godoc
// @Summary List students with score and risk
// @Tags Students
// @Produce json
// @Security BearerAuth
// @Param grade query string false "Grade filter"
// @Param search query string false "Name or roll number"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /students [get]
func (h *CohortHandler) List(c *gin.Context) {
	filter := models.StudentFilter{
		Grade:    c.Query("grade"),
		Search:   c.Query("search"),
		Page:     queryInt(c, "page", 1),
		PageSize: queryInt(c, "page_size", 20),
	}
	entries, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, pagination)
}

// RiskDistribution godoc
// @Summary Risk and success tier counts
// @Tags Reports
// @Produce json
// @Security BearerAuth
// @Param grade query string false "Grade filter"
// @Success 200 {object} response.Envelope
// @Router /reports/risk-distribution [get]
func (h *CohortHandler) RiskDistribution(c *gin.Context) {
	dist, err := h.service.Distribution(c.Request.Context(), c.Query("grade"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dist, nil)
}
