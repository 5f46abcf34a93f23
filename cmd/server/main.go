package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/quizdeck/assessment-service/internal/cache"
	"github.com/quizdeck/assessment-service/internal/config"
	"github.com/quizdeck/assessment-service/internal/directory"
	"github.com/quizdeck/assessment-service/internal/events"
	"github.com/quizdeck/assessment-service/internal/handlers"
	"github.com/quizdeck/assessment-service/internal/repositories/postgres"
	"github.com/quizdeck/assessment-service/internal/services"
	"github.com/quizdeck/assessment-service/internal/utils"
	"github.com/quizdeck/assessment-service/internal/validator"
	"github.com/quizdeck/assessment-service/pkg"
)

// expireInterval is how often overdue asynchronous assignments are swept.
const expireInterval = 5 * time.Minute

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		panic("failed to load configuration: " + err.Error())
	}

	var logger utils.Logger
	if cfg.IsDevelopment() {
		logger = utils.NewDevelopmentLogger()
	} else {
		logger = utils.NewDefaultLogger()
	}
	slogLogger := utils.ToSlogLogger(logger)

	logger.Info("Starting assessment service",
		"port", cfg.Port,
		"environment", cfg.Environment)

	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		logger.LogError(err, "Failed to connect to database")
		os.Exit(1)
	}

	redisClient, err := pkg.NewRedisClient(cfg)
	if err != nil {
		logger.LogError(err, "Failed to connect to Redis")
		os.Exit(1)
	}
	defer redisClient.Close()

	repo := postgres.NewRepository(db)
	cacheService := cache.NewRedisCache(redisClient, logger)
	draftStore := cache.NewRedisDraftStore(redisClient, cfg.DraftTTL)
	v := validator.New()

	var publisher events.EventPublisher
	if len(cfg.KafkaBrokers) > 0 && cfg.KafkaBrokers[0] != "" {
		publisher, err = events.NewKafkaEventPublisher(events.PublisherConfig{
			KafkaBrokers: cfg.KafkaBrokers,
			TopicName:    cfg.NotificationTopic,
			Logger:       slogLogger,
		})
		if err != nil {
			logger.LogError(err, "Failed to create Kafka publisher")
			os.Exit(1)
		}
	} else {
		logger.Warn("No Kafka brokers configured, events will only be logged")
		publisher = events.NewMockEventPublisher(slogLogger)
	}
	defer publisher.Close()

	broadcaster := events.NewSessionBroadcaster(slogLogger)
	defer broadcaster.Close()

	dir := directory.NewCasdoorDirectory(directory.Config{
		Endpoint:     cfg.CasdoorEndpoint,
		ClientID:     cfg.CasdoorClientID,
		ClientSecret: cfg.CasdoorClientSecret,
		Certificate:  cfg.CasdoorCertificate,
		Organization: cfg.CasdoorOrganization,
		Application:  cfg.CasdoorApplication,
	})

	analysisService := services.NewAnalysisService(repo, cacheService, slogLogger)
	recalcService := services.NewRecalcService(repo, publisher, analysisService, slogLogger)
	distributionService := services.NewDistributionService(repo, publisher, slogLogger, v)

	svcs := handlers.Services{
		Quiz:         services.NewQuizService(repo, recalcService, slogLogger, v),
		Distribution: distributionService,
		Session:      services.NewSessionService(repo, broadcaster, publisher, draftStore, slogLogger),
		Submission:   services.NewSubmissionService(repo, publisher, draftStore, analysisService, slogLogger, v),
		Analysis:     analysisService,
		Export:       services.NewExportService(analysisService, slogLogger),
	}

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.LoggerMiddleware(logger))

	handlerManager := handlers.NewHandlerManager(svcs, dir, logger)
	handlerManager.SetupRoutes(router)

	// Background sweep for overdue asynchronous assignments.
	sweepCtx, sweepCancel := context.WithCancel(context.Background())
	go func() {
		ticker := time.NewTicker(expireInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if _, err := distributionService.ExpireOverdue(sweepCtx); err != nil {
					logger.LogError(err, "Overdue assignment sweep failed")
				}
			case <-sweepCtx.Done():
				return
			}
		}
	}()

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.LogError(err, "Server error")
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	logger.Info("Shutting down", "signal", sig.String())

	sweepCancel()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.LogError(err, "HTTP server shutdown error")
	}

	logger.Info("Shutdown complete")
}
