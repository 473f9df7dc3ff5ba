package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	_ "github.com/noah-isme/edupredict-api/api/swagger"
	"github.com/noah-isme/edupredict-api/internal/handler"
	"github.com/noah-isme/edupredict-api/internal/repository"
	"github.com/noah-isme/edupredict-api/internal/service"
	"github.com/noah-isme/edupredict-api/pkg/cache"
	"github.com/noah-isme/edupredict-api/pkg/config"
	"github.com/noah-isme/edupredict-api/pkg/database"
	"github.com/noah-isme/edupredict-api/pkg/jobs"
	"github.com/noah-isme/edupredict-api/pkg/llm"
	"github.com/noah-isme/edupredict-api/pkg/logger"
	"github.com/noah-isme/edupredict-api/pkg/performance"
	"github.com/noah-isme/edupredict-api/pkg/storage"
)

// @title EduPredict API
// @version 1.0.0
// @description Student performance scoring, risk prediction and gamification
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if err := run(cfg, logr); err != nil {
		logr.Fatal("server exited", zap.Error(err))
	}
}

func run(cfg *config.Config, logr *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, caching disabled", zap.Error(err))
	}

	generator, err := llm.New(llm.Config{
		Provider:   cfg.LLM.Provider,
		Endpoint:   cfg.LLM.Endpoint,
		APIKey:     cfg.LLM.APIKey,
		Deployment: cfg.LLM.Deployment,
		Timeout:    cfg.LLM.Timeout,
	}, logr.Named("llm"))
	if err != nil {
		return fmt.Errorf("init llm: %w", err)
	}

	validate := validator.New()
	metricsSvc := service.NewMetricsService()
	normalizer := performance.NewNormalizer(cfg.Scoring.Strict, logr.Named("normalizer"))

	var cacheSvc *service.CacheService
	if redisClient != nil {
		defer redisClient.Close()
		cacheRepo := repository.NewCacheRepository(redisClient, "edupredict", logr)
		cacheSvc = service.NewCacheService(cacheRepo, metricsSvc, cfg.Scoring.ProgressTTL, logr, true)
	}

	userRepo := repository.NewUserRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	reportRepo := repository.NewReportRepository(db)

	notifyQueue := jobs.NewQueue("notifications", jobs.QueueConfig{
		Workers:    cfg.Gamification.NotifyWorkers,
		MaxRetries: cfg.Gamification.NotifyRetries,
		RetryDelay: time.Second,
		Logger:     logr,
	})
	reportQueue := jobs.NewQueue("reports", jobs.QueueConfig{
		Workers:    cfg.Reports.WorkerConcurrency,
		MaxRetries: cfg.Reports.WorkerRetries,
		RetryDelay: 5 * time.Second,
		Logger:     logr,
	})

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            "edupredict-api",
	})
	gamificationSvc := service.NewGamificationService(studentRepo, notificationRepo, notifyQueue, cacheSvc, metricsSvc, validate, logr)
	notifyQueue.Register(service.JobTypeLevelUp, gamificationSvc.HandleLevelUp)

	studentSvc := service.NewStudentService(studentRepo, gamificationSvc, cacheSvc, generator, metricsSvc, normalizer, validate, logr, service.StudentServiceConfig{
		ProgressTTL:   cfg.Scoring.ProgressTTL,
		XPPerWhatIf:   cfg.Gamification.XPPerWhatIf,
		XPPerSubjects: cfg.Gamification.XPPerSubjects,
	})
	cohortSvc := service.NewCohortService(studentRepo, cacheSvc, metricsSvc, normalizer, cfg.Reports.DistributionTTL, logr)
	predictionSvc := service.NewPredictionService(generator, cacheSvc, gamificationSvc, metricsSvc, normalizer, validate, logr, service.PredictionConfig{
		DefaultWeights:  cfg.Scoring.DefaultWeights,
		InsightTTL:      cfg.Scoring.InsightTTL,
		XPPerPrediction: cfg.Gamification.XPPerPrediction,
	})
	aiSvc := service.NewAIService(generator, metricsSvc, validate, logr)
	notificationSvc := service.NewNotificationService(notificationRepo, logr)

	var reportSvc *service.ReportService
	if cfg.Reports.Enabled {
		store, err := storage.NewLocalStorage(cfg.Reports.StorageDir)
		if err != nil {
			return fmt.Errorf("init report storage: %w", err)
		}
		signer := storage.NewSignedURLSigner(cfg.Reports.SignedURLSecret, cfg.Reports.SignedURLTTL)
		exportSvc := service.NewExportService(cohortSvc, store, signer, service.ExportConfig{
			APIPrefix: cfg.APIPrefix,
			ResultTTL: cfg.Reports.SignedURLTTL,
		}, logr)
		reportSvc = service.NewReportService(reportRepo, reportQueue, exportSvc, validate, logr, service.ReportServiceConfig{
			ResultTTL:       cfg.Reports.SignedURLTTL,
			CleanupInterval: time.Hour,
			MaxRetries:      cfg.Reports.WorkerRetries,
		})
		worker := service.NewReportWorker(reportRepo, exportSvc, cfg.Reports.WorkerRetries, logr)
		reportQueue.Register(service.JobTypeCohortReport, worker.Handle)
	}

	notifyQueue.Start(ctx)
	defer notifyQueue.Stop()
	reportQueue.Start(ctx)
	defer reportQueue.Stop()

	if reportSvc != nil {
		reportSvc.RecoverPendingJobs(ctx)
		reportSvc.StartCleanup(ctx)
	}

	checks := map[string]handler.Pinger{"postgres": db}
	if redisClient != nil {
		checks["redis"] = cache.Pinger{Client: redisClient}
	}

	deps := routeDeps{
		auth:          handler.NewAuthHandler(authSvc),
		students:      handler.NewStudentHandler(studentSvc),
		cohort:        handler.NewCohortHandler(cohortSvc),
		ai:            handler.NewAIHandler(predictionSvc, aiSvc),
		gamification:  handler.NewGamificationHandler(gamificationSvc),
		notifications: handler.NewNotificationHandler(notificationSvc),
		metrics: handler.NewMetricsHandler(metricsSvc, checks, map[string]handler.QueueStats{
			"notifications": notifyQueue,
			"reports":       reportQueue,
		}, logr),
		tokens:     authSvc,
		metricsSvc: metricsSvc,
	}
	if reportSvc != nil {
		deps.reports = handler.NewReportHandler(reportSvc, logr)
	}

	router := newRouter(cfg, logr, deps)
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env), zap.String("llm_provider", strings.ToLower(cfg.LLM.Provider)))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
