package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"swagly-backend/docs"
	"swagly-backend/internal/common/cache"
	"swagly-backend/internal/common/config"
	"swagly-backend/internal/common/logger"
	"swagly-backend/internal/common/middleware"
	analyticsHTTP "swagly-backend/internal/features/analytics/delivery/http"
	analyticsPostgres "swagly-backend/internal/features/analytics/repository/postgres"
	analyticsService "swagly-backend/internal/features/analytics/service"
	attestationHTTP "swagly-backend/internal/features/attestation/delivery/http"
	"swagly-backend/internal/features/attestation/ledger"
	"swagly-backend/internal/features/attestation/lock"
	attestationService "swagly-backend/internal/features/attestation/service"
	backupHTTP "swagly-backend/internal/features/backup/delivery/http"
	"swagly-backend/internal/features/backup/repository"
	watermarkMemory "swagly-backend/internal/features/backup/repository/memory"
	recordsPostgres "swagly-backend/internal/features/backup/repository/postgres"
	watermarkRedis "swagly-backend/internal/features/backup/repository/redis"
	backupService "swagly-backend/internal/features/backup/service"
	"swagly-backend/internal/platform/blob"
	"swagly-backend/internal/platform/chain"
	"swagly-backend/internal/platform/postgres"
	"swagly-backend/internal/platform/redis"
	"swagly-backend/internal/workers"
)

// @title           Swagly API
// @version         1.0
// @description     Attestation issuance on the Swagly ledger, incremental backups of scan and activity records, and scan analytics.

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey AdminToken
// @in header
// @name X-Admin-Token
// @description Shared operator token; also accepted as a Bearer token

// @tag.name attestations
// @tag.description Activity completion and proof validation attestations

// @tag.name backup
// @tag.description Incremental backup scheduler and manual runs

// @tag.name analytics
// @tag.description Scan event queries and aggregate statistics

func main() {
	cfg := config.MustLoad()
	logger.Init("swagly-backend", cfg.Debug)

	logger.Info().
		Str("version", "1.0.0").
		Bool("debug", cfg.Debug).
		Msg("Starting Swagly backend")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	postgresClient, err := postgres.NewClient(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer postgresClient.Close()

	var redisClient *goredis.Client
	if cfg.Redis.Enabled {
		redisClient, err = redis.Open(ctx, cfg)
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		defer redisClient.Close()
	} else {
		logger.Warn().Msg("Redis disabled, using in-process locks and watermark")
	}

	chainClient, rpc, err := chain.Dial(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to chain RPC")
	}
	defer rpc.Close()

	if !common.IsHexAddress(cfg.Chain.ContractAddress) {
		logger.Fatal().Str("address", cfg.Chain.ContractAddress).Msg("Invalid attestations contract address")
	}
	ledgerClient := ledger.NewClient(chainClient, common.HexToAddress(cfg.Chain.ContractAddress), cfg.Chain.ExplorerURL)

	// Attestations
	var locker lock.Locker = lock.NewKeyedMutex()
	var watermarks repository.WatermarkStore = watermarkMemory.NewWatermarkStore()
	if redisClient != nil {
		locker = lock.NewRedisLocker(redisClient, cfg.Attestation.LockTTL)
		watermarks = watermarkRedis.NewWatermarkStore(redisClient, cfg.Backup.WatermarkKey)
	}
	cacheService := cache.NewCacheService(redisClient, "swagly:")
	completionSvc := attestationService.NewCompletionService(ledgerClient, locker, cacheService, cfg.Attestation.CacheTTL).
		WithWriteTimeout(cfg.Attestation.WriteTimeout)

	// Backups
	store, err := blob.New(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialise blob store")
	}
	records := recordsPostgres.NewRecordSource(postgresClient.DB())
	accountant := backupService.NewAccountant(records, watermarks, store, cfg.Backup.MaxArtifactBytes)
	scheduler := backupService.NewScheduler(accountant, cfg.Backup.Interval, cfg.Blob.PublicURLTemplate)
	if cfg.Backup.AutoStart {
		scheduler.Start()
	}

	// Analytics
	scanIndex := analyticsPostgres.NewScanIndex(postgresClient.DB())
	analyticsSvc := analyticsService.NewAnalyticsService(scanIndex, cacheService, cfg.Analytics.DashboardCacheTTL)

	logger.Info().Msg("Services initialized")

	var workerDone chan struct{}
	if cfg.Stream.Enabled {
		if redisClient == nil {
			logger.Fatal().Msg("ATTESTATION_STREAM_ENABLED requires Redis")
		}
		worker := workers.NewAttestationStreamWorker(redisClient, completionSvc, cfg.Stream.Key, cfg.Stream.Group, cfg.Stream.Consumer)
		workerDone = make(chan struct{})
		go func() {
			defer close(workerDone)
			worker.Start(ctx)
		}()
	}

	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger("/health", "/live", "/ready"))
	router.Use(middleware.HandleErrors())
	router.Use(middleware.Recovery())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{cfg.Server.Origin}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Content-Type", "Authorization", "Accept", middleware.AdminTokenHeader}
	router.Use(cors.New(corsConfig))

	docs.SwaggerInfo.Host = fmt.Sprintf("localhost:%d", cfg.Server.Port)
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	admin := middleware.RequireAdmin(cfg.Server.AdminToken)
	v1 := router.Group("/api/v1")
	attestationHTTP.NewAttestationHandler(completionSvc, ledgerClient.ExplorerContractURL()).RegisterRoutes(v1, admin)
	backupHTTP.NewBackupHandler(scheduler, accountant).RegisterRoutes(v1, admin)
	analyticsHTTP.NewAnalyticsHandler(analyticsSvc).RegisterRoutes(v1)

	setupProbes(router, postgresClient, redisClient)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Int("port", cfg.Server.Port).Msg("Starting HTTP server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Server forced to shutdown")
	}
	if err := scheduler.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Backup cycle still running at shutdown")
	}
	if workerDone != nil {
		select {
		case <-workerDone:
		case <-shutdownCtx.Done():
			logger.Warn().Msg("Stream worker did not stop in time")
		}
	}

	logger.Info().Msg("Server exited")
}

func setupProbes(router *gin.Engine, postgresClient *postgres.Client, redisClient *goredis.Client) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().UTC(),
			"service":   "swagly-backend",
		})
	})

	router.GET("/live", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	router.GET("/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := postgresClient.HealthCheck(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":  "unready",
				"error":   "postgres unavailable",
				"details": err.Error(),
			})
			return
		}

		if redisClient != nil {
			if err := redisClient.Ping(ctx).Err(); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{
					"status":  "unready",
					"error":   "redis unavailable",
					"details": err.Error(),
				})
				return
			}
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "ready",
			"timestamp": time.Now().UTC(),
			"service":   "swagly-backend",
		})
	})
}
