package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/Shalmalsakpal31/Whisper-tags/api/swagger"
	"github.com/Shalmalsakpal31/Whisper-tags/internal/handler"
	"github.com/Shalmalsakpal31/Whisper-tags/internal/middleware"
	"github.com/Shalmalsakpal31/Whisper-tags/internal/repository"
	"github.com/Shalmalsakpal31/Whisper-tags/internal/service"
	"github.com/Shalmalsakpal31/Whisper-tags/internal/storage"
	"github.com/Shalmalsakpal31/Whisper-tags/pkg/cache"
	"github.com/Shalmalsakpal31/Whisper-tags/pkg/config"
	"github.com/Shalmalsakpal31/Whisper-tags/pkg/database"
	"github.com/Shalmalsakpal31/Whisper-tags/pkg/jobs"
	"github.com/Shalmalsakpal31/Whisper-tags/pkg/logger"
	corsmiddleware "github.com/Shalmalsakpal31/Whisper-tags/pkg/middleware/cors"
	reqidmiddleware "github.com/Shalmalsakpal31/Whisper-tags/pkg/middleware/requestid"
)

// @title Whisper Tags API
// @version 1.0.0
// @description Password-protected audio clip sharing and streaming
// @BasePath /api/v1
// @schemes http
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	mongoDB, mongoClose, err := database.NewMongo(ctx, cfg.Mongo)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to mongo", "error", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = mongoClose(closeCtx)
	}()

	metricsSvc := service.NewMetricsService()

	var cacheRepo service.CacheRepository
	if cfg.Cache.Enabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, clip cache disabled", "error", err)
		} else {
			repo := repository.NewCacheRepository(redisClient, logr)
			defer repo.Close() //nolint:errcheck
			cacheRepo = repo
		}
	}
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Cache.ClipTTL, logr, cacheRepo != nil)

	gridfsStore, err := storage.NewGridFSStore(mongoDB, cfg.Mongo.Bucket, logr)
	if err != nil {
		logr.Sugar().Fatalw("failed to init gridfs store", "error", err)
	}
	stores := service.ContentStores{GridFS: gridfsStore}
	if cfg.Uploads.LegacyDir != "" {
		legacyStore, err := storage.NewLegacyStore(cfg.Uploads.LegacyDir)
		if err != nil {
			logr.Sugar().Warnw("legacy upload dir unusable", "dir", cfg.Uploads.LegacyDir, "error", err)
		} else {
			stores.Legacy = legacyStore
		}
	}

	clipRepo := repository.NewClipRepository(db)

	authSvc := service.NewAuthService(cfg.JWT, cfg.Admin, logr)
	accessSvc := service.NewAccessService(clipRepo, stores, logr)
	streamSvc := service.NewStreamService(clipRepo, stores, metricsSvc, logr)

	var clipSvc *service.ClipService
	reclaimQueue := jobs.NewQueue("blob-reclaim", func(jctx context.Context, job jobs.Job) error {
		return clipSvc.ReclaimHandler()(jctx, job)
	}, jobs.QueueConfig{Workers: 2, MaxRetries: 5, RetryDelay: 5 * time.Second, Logger: logr})
	clipSvc = service.NewClipService(clipRepo, stores, cacheSvc, metricsSvc, reclaimQueue, cfg.Uploads, cfg.Cache.ClipTTL, logr)

	reclaimQueue.Start(ctx)
	defer reclaimQueue.Stop()
	if err := clipSvc.SweepDeleted(ctx); err != nil {
		logr.Sugar().Warnw("failed to sweep pending deletes", "error", err)
	}

	authHandler := handler.NewAuthHandler(authSvc)
	clipHandler := handler.NewClipHandler(clipSvc, accessSvc, streamSvc, metricsSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

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

	api := r.Group(cfg.APIPrefix)
	{
		api.POST("/auth/login", authHandler.Login)

		api.GET("/clips/:id", clipHandler.Get)
		api.POST("/clips/:id/verify", clipHandler.Verify)
		api.GET("/clips/:id/stream/:token", clipHandler.Stream)

		admin := api.Group("/admin", middleware.JWT(authSvc))
		{
			admin.POST("/clips", clipHandler.Upload)
			admin.GET("/clips", clipHandler.List)
			admin.DELETE("/clips/:id", clipHandler.Delete)
			admin.GET("/metrics", metricsHandler.Snapshot)
		}
	}

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("forced shutdown", "error", err)
	}
}
