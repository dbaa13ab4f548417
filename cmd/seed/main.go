package main

import (
	"context"
	"log"

	"te-chatbot/internal/repository"
	"te-chatbot/internal/service"
	"te-chatbot/pkg/auth"
	"te-chatbot/pkg/config"
	"te-chatbot/pkg/logger"
	"te-chatbot/pkg/postgres"

	"go.uber.org/zap"
)

// Schema for the chatbot tables. Safe to run repeatedly.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY,
		username TEXT NOT NULL UNIQUE,
		full_name TEXT NOT NULL,
		role TEXT NOT NULL,
		password TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS activity_logs (
		id UUID PRIMARY KEY,
		username TEXT NOT NULL,
		action TEXT NOT NULL,
		details TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_activity_logs_created_at ON activity_logs (created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS analyses (
		id UUID PRIMARY KEY,
		username TEXT NOT NULL,
		ticket_filename TEXT NOT NULL DEFAULT '',
		question TEXT NOT NULL DEFAULT '',
		ticket_info JSONB NOT NULL,
		result JSONB NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_analyses_username ON analyses (username, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS feedback (
		id UUID PRIMARY KEY,
		analysis_id TEXT NOT NULL DEFAULT '',
		username TEXT NOT NULL,
		rating INT NOT NULL,
		issue_type TEXT NOT NULL DEFAULT '',
		comment TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL
	)`,
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Init(cfg.Logger.Level); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()
	appLogger := logger.Get()

	ctx := context.Background()
	db, err := postgres.NewPool(ctx, &cfg.Database, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	appLogger.Info("Creating database schema")
	for _, stmt := range schema {
		if _, err := db.Exec(ctx, stmt); err != nil {
			appLogger.Fatal("Failed to apply schema statement", zap.Error(err))
		}
	}

	userRepo := repository.NewUserRepository(db, appLogger)
	jwtManager := auth.NewJWTManager(cfg.JWT.SecretKey, cfg.JWT.Expiration)
	authService := service.NewAuthService(userRepo, jwtManager, appLogger)

	if err := authService.SeedUsers(ctx); err != nil {
		appLogger.Fatal("Failed to seed default users", zap.Error(err))
	}

	appLogger.Info("Database seeding completed")
}
