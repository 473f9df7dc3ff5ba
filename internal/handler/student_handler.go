package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/edupredict-api/internal/models"
	appErrors "github.com/noah-isme/edupredict-api/pkg/errors"
	"github.com/noah-isme/edupredict-api/pkg/response"
)

type studentService interface {
	Profile(ctx context.Context, userID string) (*models.StudentDetail, error)
	UpdateMetrics(ctx context.Context, userID string, req models.MetricsUpdate) (*models.StudentDetail, error)
	Progress(ctx context.Context, userID string) (*models.Progress, error)
	Subjects(ctx context.Context, userID string) ([]models.Subject, error)
	ReplaceSubjects(ctx context.Context, userID string, inputs []models.SubjectInput) ([]models.Subject, *models.XPAward, error)
	WhatIf(ctx context.Context, userID string, req models.WhatIfRequest) (*models.WhatIfResult, error)
}

// StudentHandler serves a single student's record. Access is checked by
// the route's RBAC middleware against :userId.
type StudentHandler struct {
	service studentService
}

// NewStudentHandler constructs the handler.
func NewStudentHandler(svc studentService) *StudentHandler {
	return &StudentHandler{service: svc}
}

// Get godoc
// @Summary Get student profile
// @Tags Students
// @Produce json
// @Security BearerAuth
// @Param userId path string true "User ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /students/{userId} [get]
func (h *StudentHandler) Get(c *gin.Context) {
	detail, err := h.service.Profile(c.Request.Context(), c.Param("userId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// Update godoc
// @Summary Update student metrics
// @Description Only grade, attendance, assignmentCompletion, quizScores, studyHours and participation are applied
// @Tags Students
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param userId path string true "User ID"
// @Param payload body models.MetricsUpdate true "Fields to update"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /students/{userId} [put]
func (h *StudentHandler) Update(c *gin.Context) {
	var req models.MetricsUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	detail, err := h.service.UpdateMetrics(c.Request.Context(), c.Param("userId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// Progress godoc
// @Summary Student progress analytics
// @Tags Students
// @Produce json
// @Security BearerAuth
// @Param userId path string true "User ID"
// @Success 200 {object} response.Envelope
// @Router /students/{userId}/progress [get]
func (h *StudentHandler) Progress(c *gin.Context) {
	progress, err := h.service.Progress(c.Request.Context(), c.Param("userId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, progress, nil)
}

// Subjects godoc
// @Summary List student subjects
// @Tags Students
// @Produce json
// @Security BearerAuth
// @Param userId path string true "User ID"
// @Success 200 {object} response.Envelope
// @Router /students/{userId}/subjects [get]
func (h *StudentHandler) Subjects(c *gin.Context) {
	subjects, err := h.service.Subjects(c.Request.Context(), c.Param("userId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, subjects, nil)
}

// ReplaceSubjects godoc
// @Summary Replace student subjects
// @Description Stores the full subject list; predicted scores are computed server-side
// @Tags Students
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param userId path string true "User ID"
// @Param payload body object true "{subjects: [...]}"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /students/{userId}/subjects [put]
func (h *StudentHandler) ReplaceSubjects(c *gin.Context) {
	var payload struct {
		Subjects []models.SubjectInput `json:"subjects"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	subjects, award, err := h.service.ReplaceSubjects(c.Request.Context(), c.Param("userId"), payload.Subjects)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"subjects": subjects, "xpAward": award}, nil)
}

// WhatIf godoc
// @Summary What-if scenario analysis
// @Tags Students
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param userId path string true "User ID"
// @Param payload body models.WhatIfRequest true "Scenario"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /students/{userId}/what-if [post]
func (h *StudentHandler) WhatIf(c *gin.Context) {
	var req models.WhatIfRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.service.WhatIf(c.Request.Context(), c.Param("userId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
