package main

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/edupredict-api/internal/handler"
	"github.com/noah-isme/edupredict-api/internal/middleware"
	"github.com/noah-isme/edupredict-api/internal/models"
	"github.com/noah-isme/edupredict-api/internal/service"
	"github.com/noah-isme/edupredict-api/pkg/config"
	"github.com/noah-isme/edupredict-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/edupredict-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/edupredict-api/pkg/middleware/requestid"
)

type routeDeps struct {
	auth          *handler.AuthHandler
	students      *handler.StudentHandler
	cohort        *handler.CohortHandler
	ai            *handler.AIHandler
	gamification  *handler.GamificationHandler
	notifications *handler.NotificationHandler
	reports       *handler.ReportHandler
	metrics       *handler.MetricsHandler
	tokens        middleware.TokenValidator
	metricsSvc    *service.MetricsService
}

func newRouter(cfg *config.Config, logr *zap.Logger, d routeDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(d.metricsSvc))

	r.GET("/health", d.metrics.Health)
	r.GET("/ready", d.metrics.Ready)
	r.GET("/metrics", d.metrics.Prometheus)

	if !cfg.IsProduction() {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	auth := middleware.JWT(d.tokens)
	staff := middleware.RequireRoles(models.RoleFaculty, models.RoleAdmin)
	admin := middleware.RequireRoles(models.RoleAdmin)

	r.GET("/metrics/summary", auth, admin, d.metrics.Summary)

	api := r.Group(cfg.APIPrefix)

	authGroup := api.Group("/auth")
	authGroup.POST("/register", d.auth.Register)
	authGroup.POST("/login", d.auth.Login)
	authGroup.GET("/me", auth, d.auth.Me)

	api.GET("/students", auth, staff, d.cohort.List)
	student := api.Group("/students/:userId", auth, middleware.SelfOrStaff())
	student.GET("", d.students.Get)
	student.PUT("", d.students.Update)
	student.GET("/progress", d.students.Progress)
	student.GET("/subjects", d.students.Subjects)
	student.PUT("/subjects", d.students.ReplaceSubjects)
	student.POST("/what-if", d.students.WhatIf)

	ai := api.Group("/ai", auth)
	ai.POST("/predict", d.ai.Predict)
	ai.POST("/study-advice", d.ai.StudyAdvice)
	ai.POST("/comic-narrative", d.ai.ComicNarrative)
	ai.POST("/chat", d.ai.Chat)
	api.POST("/score", auth, d.ai.Score)

	gamification := api.Group("/gamification", auth)
	gamification.GET("/me", d.gamification.Me)
	gamification.POST("/xp", d.gamification.AwardXP)

	notifications := api.Group("/notifications", auth)
	notifications.GET("", d.notifications.List)
	notifications.POST("/:id/read", d.notifications.MarkRead)

	reports := api.Group("/reports", auth, staff)
	reports.GET("/risk-distribution", d.cohort.RiskDistribution)
	if d.reports != nil {
		reports.POST("", d.reports.Create)
		reports.GET("/:id", d.reports.Status)
		api.GET("/export/:token", d.reports.Download)
	}

	return r
}
