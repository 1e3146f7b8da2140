package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"micro_marketplace/internal/config"
	"micro_marketplace/internal/handler"
	"micro_marketplace/internal/logger"
	"micro_marketplace/internal/mediahost"
	"micro_marketplace/internal/metrics"
	"micro_marketplace/internal/middleware"
	"micro_marketplace/internal/ratelimit"
	"micro_marketplace/internal/repository"
	"micro_marketplace/internal/service"
	"micro_marketplace/internal/utils"
)

func main() {
	// --- Configuration ---
	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New(os.Stderr, "info", "console")
		bootLog.Fatal().Err(err).Msg("failed to load configuration")
	}
	log := logger.New(os.Stdout, cfg.Log.Level, cfg.Log.Format)
	gin.SetMode(cfg.GinMode)

	m := metrics.New()

	ctx := context.Background()

	// --- Database Connection ---
	dbPool, err := config.ConnectDB(ctx, cfg.DB, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer dbPool.Close()

	// --- Auto Migration ---
	if err := config.AutoMigrate(ctx, dbPool); err != nil {
		log.Fatal().Err(err).Msg("failed to auto-migrate database")
	}

	stageDir, err := config.ResolveStageDir(cfg.Upload)
	if err != nil {
		log.Fatal().Err(err).Msg("no writable stage directory")
	}
	log.Info().Str("dir", stageDir).Msg("uploads will be staged locally")

	host, err := newMediaHost(ctx, cfg.Media, log)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.Media.Driver).Msg("failed to init media host")
	}

	limiter, closeLimiter := newLimiter(ctx, cfg.RateLimit, log)
	defer closeLimiter()

	// --- Initialize Utilities ---
	jwtUtil := utils.NewJWTUtil(cfg.JWT.Secret, cfg.JWT.ExpiresIn)

	// --- Initialize Repositories ---
	userRepo := repository.NewUserRepository(dbPool)
	productRepo := repository.NewProductRepository(dbPool)

	// --- Initialize Services ---
	uploadService := service.NewUploadService(host, service.UploadConfig{
		StageDir:       stageDir,
		Folder:         cfg.Media.Folder,
		ForwardTimeout: cfg.Media.UploadTimeout,
	}, log, m)
	authService := service.NewAuthService(userRepo, productRepo, jwtUtil, cfg.Admin.InitialEmail, log)
	productService := service.NewProductService(productRepo, userRepo, uploadService, log)

	// --- Initialize Handlers ---
	authHandler := handler.NewAuthHandler(authService, log)
	productHandler := handler.NewProductHandler(productService, log)
	uploadHandler := handler.NewUploadHandler(uploadService, log)
	healthHandler := handler.NewHealthHandler(dbPool)

	// --- Setup Gin Router ---
	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.RequestLogger(log, m),
		middleware.SecurityHeaders(cfg.Env == "production"),
		middleware.CORS(),
	)

	// --- Initialize Middlewares ---
	jwtAuthMW := middleware.JWTAuthMiddleware(jwtUtil, userRepo, log)
	adminRoleMW := middleware.AdminMiddleware()

	// --- Register Routes ---
	healthHandler.RegisterHealthRoutes(router)
	router.GET("/metrics", gin.WrapH(m.Handler()))

	apiGroup := router.Group("/api", middleware.RateLimit(limiter, m, log))
	authHandler.RegisterAuthRoutes(apiGroup, jwtAuthMW)
	productHandler.RegisterProductRoutes(apiGroup, jwtAuthMW, adminRoleMW)
	uploadHandler.RegisterUploadRoutes(apiGroup, jwtAuthMW, adminRoleMW)

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"message": "Not Found - " + c.Request.URL.Path})
	})

	// --- Start Server ---
	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.ServerPort).Str("env", cfg.Env).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("listen failed")
		}
	}()

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exiting")
}

func newMediaHost(ctx context.Context, cfg config.MediaConfig, log zerolog.Logger) (mediahost.Host, error) {
	if cfg.Driver == "s3" {
		return mediahost.NewS3Host(ctx, mediahost.S3Config{
			Endpoint:        cfg.S3Endpoint,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretKey,
			Bucket:          cfg.S3Bucket,
			UsePathStyle:    cfg.S3UsePathStyle,
			PublicBaseURL:   cfg.S3PublicBaseURL,
		}, log)
	}
	return mediahost.NewCloudinaryHost(mediahost.CloudinaryConfig{
		CloudName: cfg.CloudinaryCloudName,
		APIKey:    cfg.CloudinaryAPIKey,
		APISecret: cfg.CloudinaryAPISecret,
	}, log)
}

// newLimiter prefers Redis so limits hold across replicas. An unreachable
// Redis at startup falls back to the in-process limiter.
func newLimiter(ctx context.Context, cfg config.RateLimitConfig, log zerolog.Logger) (ratelimit.Limiter, func()) {
	if cfg.RedisAddr == "" {
		return ratelimit.NewMemoryLimiter(cfg.Max, cfg.Window), func() {}
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unavailable, using in-process rate limiter")
		_ = rdb.Close()
		return ratelimit.NewMemoryLimiter(cfg.Max, cfg.Window), func() {}
	}
	return ratelimit.NewRedisLimiter(rdb, cfg.Max, cfg.Window), func() { _ = rdb.Close() }
}
