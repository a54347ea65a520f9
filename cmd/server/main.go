package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"komal-desk/config"
	"komal-desk/internal/api"
	"komal-desk/internal/broker"
	"komal-desk/internal/models"
	"komal-desk/internal/redisclient"
	"komal-desk/internal/remote"
	"komal-desk/internal/service"
	"komal-desk/internal/session"
	"komal-desk/internal/store"
	"komal-desk/internal/util"
	"komal-desk/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

func main() {

	cfg := config.Load()

	if err := util.InitLogger(cfg.Server.Env); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting komal desk", zap.String("api", cfg.Remote.BaseURL))

	if err := models.SetBits(cfg.Business.Bits); err != nil {
		logger.Fatal("Invalid territory bits", zap.Error(err))
	}

	tp, err := util.InitTracer(util.ServiceName, cfg.Server.Env, cfg.Observ.JaegerEndpoint)
	if err != nil {
		logger.Fatal("Failed to initialize tracer", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			logger.Error("Error shutting down tracer", zap.Error(err))
		}
	}()

	db, err := store.NewStore(cfg.Database.URL)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()
	if err := db.EnsureSchema(context.Background()); err != nil {
		logger.Fatal("Failed to apply schema", zap.Error(err))
	}
	logger.Info("Database connected")

	redisClient, err := redisclient.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()
	logger.Info("Redis connected")

	producer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicChanges)
	defer producer.Close()
	logger.Info("Kafka producer initialized")

	eventPublisher := broker.NewEventPublisher(producer)

	komal := remote.NewClient(cfg.Remote.BaseURL, time.Duration(cfg.Remote.TimeoutSeconds)*time.Second)

	registry := session.NewRegistry(session.Deps{
		Backends: session.Backends{
			Orders:    komal,
			Products:  komal,
			Brands:    komal,
			Retailers: komal,
		},
		Journal:   db,
		Publisher: eventPublisher,
		Locker:    redisClient,
		Claims:    redisClient,
		States:    redisClient,
		Options: service.Options{
			SearchWait:      time.Duration(cfg.Business.SearchDebounceMs) * time.Millisecond,
			RetentionDays:   cfg.Business.RetentionDays,
			ReorderRollback: cfg.Business.ReorderRollback,
			DashboardSize:   cfg.Business.DashboardSize,
			Now:             time.Now,
		},
		IdleTimeout: time.Duration(cfg.Business.SessionIdleMinutes) * time.Minute,
	})
	registry.StartReaper(time.Minute)

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	// Every instance refreshes its own sessions, so each needs its own group.
	group := fmt.Sprintf("%s-%s", cfg.Kafka.ConsumerGroup, uuid.New().String()[:8])
	consumer := broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicChanges, group)
	refreshWorker := worker.NewRefreshWorker(consumer, registry)
	go func() {
		if err := refreshWorker.Start(workerCtx); err != nil {
			logger.Error("Refresh worker error", zap.Error(err))
		}
	}()

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Logger())
	limiter := api.NewRateLimiter(cfg.Server.RateLimitPerSec, cfg.Server.RateLimitBurst)
	handler := api.NewHandler(registry, komal, db, limiter, cfg.Business.DashboardSize).
		WithDependency("postgres", db).
		WithDependency("redis", redisClient)
	handler.SetupRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logger.Info("Starting HTTP server", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	registry.Stop(shutdownCtx)
	workerCancel()
	if err := refreshWorker.Stop(); err != nil {
		logger.Error("Error stopping refresh worker", zap.Error(err))
	}

	logger.Info("Server exited")
}
