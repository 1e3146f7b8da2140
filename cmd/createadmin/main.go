// Command createadmin creates the admin account or promotes an existing user.
package main

import (
	"context"
	"os"

	"micro_marketplace/internal/config"
	"micro_marketplace/internal/logger"
	"micro_marketplace/internal/repository"
	"micro_marketplace/internal/service"
	"micro_marketplace/internal/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New(os.Stderr, "info", "console")
		bootLog.Fatal().Err(err).Msg("failed to load configuration")
	}
	log := logger.New(os.Stdout, cfg.Log.Level, cfg.Log.Format)

	ctx := context.Background()
	dbPool, err := config.ConnectDB(ctx, cfg.DB, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer dbPool.Close()

	if err := config.AutoMigrate(ctx, dbPool); err != nil {
		log.Fatal().Err(err).Msg("failed to auto-migrate database")
	}

	userRepo := repository.NewUserRepository(dbPool)
	productRepo := repository.NewProductRepository(dbPool)
	jwtUtil := utils.NewJWTUtil(cfg.JWT.Secret, cfg.JWT.ExpiresIn)
	authService := service.NewAuthService(userRepo, productRepo, jwtUtil, cfg.Admin.InitialEmail, log)

	admin, created, err := authService.EnsureAdmin(ctx, cfg.Admin.Name, cfg.Admin.Email, cfg.Admin.Password)
	if err != nil {
		log.Fatal().Err(err).Str("email", cfg.Admin.Email).Msg("failed to ensure admin")
	}
	if created {
		log.Info().Int64("id", admin.ID).Str("email", admin.Email).Msg("admin user created")
		return
	}
	log.Info().Int64("id", admin.ID).Str("email", admin.Email).Msg("admin user already present, role ensured")
}
