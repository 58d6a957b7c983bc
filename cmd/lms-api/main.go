package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/mavericks-lms/lms-api/api/swagger"
	"github.com/mavericks-lms/lms-api/internal/gateway"
	"github.com/mavericks-lms/lms-api/internal/handler"
	"github.com/mavericks-lms/lms-api/internal/middleware"
	"github.com/mavericks-lms/lms-api/internal/render"
	"github.com/mavericks-lms/lms-api/internal/repository"
	"github.com/mavericks-lms/lms-api/internal/service"
	"github.com/mavericks-lms/lms-api/pkg/cache"
	"github.com/mavericks-lms/lms-api/pkg/config"
	"github.com/mavericks-lms/lms-api/pkg/database"
	"github.com/mavericks-lms/lms-api/pkg/logger"
	corsmiddleware "github.com/mavericks-lms/lms-api/pkg/middleware/cors"
	reqidmiddleware "github.com/mavericks-lms/lms-api/pkg/middleware/requestid"
	"github.com/mavericks-lms/lms-api/pkg/storage"
)

// @title Mavericks LMS Core API
// @version 0.1.0
// @description Grading, progress, certificate and settlement engine
// @BasePath /
// @schemes http

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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	var redisClient *redis.Client
	if client, err := cache.NewRedis(cfg.Redis); err != nil {
		logr.Sugar().Warnw("redis unavailable, progress cache disabled", "error", err)
	} else {
		redisClient = client
		defer redisClient.Close() //nolint:errcheck
	}

	validate := validator.New()

	questionRepo := repository.NewQuestionRepository(db)
	answerRepo := repository.NewAnswerRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	certificateRepo := repository.NewCertificateRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	earningRepo := repository.NewEarningRepository(db)
	courseRepo := repository.NewCourseRepository(db)

	documentStore, err := storage.NewLocalStorage(cfg.Certificates.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init certificate storage", "error", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Certificates.SignedURLSecret, cfg.Certificates.SignedURLTTL)

	renderWorker := render.NewWorker(render.NewPDFRenderer(documentStore), certificateRepo, render.WorkerConfig{
		Concurrency: cfg.Certificates.WorkerConcurrency,
		MaxRetries:  cfg.Certificates.WorkerRetries,
		Logger:      logr,
	})
	renderWorker.Start(context.Background())
	defer renderWorker.Stop()

	var executor gateway.PaymentExecutor
	if cfg.Payments.GatewayAPIKey == "" {
		logr.Warn("payment gateway api key missing, using stub executor")
		executor = gateway.NewStubExecutor()
	} else {
		executor = gateway.NewHTTPExecutor(cfg.Payments.GatewayURL, cfg.Payments.GatewayAPIKey, cfg.Payments.GatewayTimeout, logr)
	}

	var progressCache *service.ProgressCache
	if redisClient != nil {
		progressCache = service.NewProgressCache(redisClient, cfg.Progress.CacheTTL, logr)
	}

	metricsSvc := service.NewMetricsService()
	gradingSvc := service.NewGradingService(answerRepo, questionRepo, validate, logr)
	progressSvc := service.NewProgressService(enrollmentRepo, progressCache, cfg.Progress.RecalcRetries, validate, logr)
	certificateSvc := service.NewCertificateService(certificateRepo, enrollmentRepo, renderWorker, cfg.Certificates.BaseURL, logr)
	paymentSvc := service.NewPaymentService(paymentRepo, earningRepo, enrollmentRepo, courseRepo, executor, cfg.Payments.PlatformFeeRate, cfg.Payments.DefaultCurrency, validate, logr)

	gradingHandler := handler.NewGradingHandler(gradingSvc, metricsSvc)
	progressHandler := handler.NewProgressHandler(progressSvc)
	certificateHandler := handler.NewCertificateHandler(certificateSvc, metricsSvc, signer, documentStore)
	paymentHandler := handler.NewPaymentHandler(paymentSvc, metricsSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	verifier := middleware.NewTokenVerifier(cfg.JWT.Secret)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	// Download auth rides on the signed token, not a bearer token.
	r.GET("/certificates/download", certificateHandler.Download)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.JWT(verifier))
	{
		api.POST("/answers", gradingHandler.SubmitAnswer)
		api.GET("/answers", gradingHandler.ListAnswers)
		api.POST("/answers/grade", gradingHandler.GradeEssay)

		api.POST("/progress", progressHandler.UpdateContent)
		api.POST("/progress/complete", progressHandler.CompleteContent)
		api.GET("/enrollments/:id/progress", progressHandler.Get)
		api.POST("/enrollments/:id/progress/recalculate", progressHandler.Recalculate)

		api.POST("/enrollments/:id/certificate", certificateHandler.Issue)
		api.GET("/enrollments/:id/certificate", certificateHandler.Get)
		api.GET("/enrollments/:id/certificate/download-link", certificateHandler.DownloadLink)

		api.POST("/payments", paymentHandler.Create)
		api.GET("/payments/:id", paymentHandler.Get)
		api.POST("/payments/:id/process", paymentHandler.Process)
		api.POST("/payments/:id/refund", paymentHandler.Refund)

		api.GET("/earnings", paymentHandler.ListEarnings)
		api.POST("/earnings/:id/process", paymentHandler.ProcessPayout)
		api.POST("/earnings/:id/paid", paymentHandler.MarkEarningPaid)

		api.GET("/metrics/summary", metricsHandler.Summary)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
