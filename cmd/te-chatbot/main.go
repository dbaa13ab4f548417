package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"te-chatbot/internal/api"
	"te-chatbot/internal/api/handlers"
	"te-chatbot/internal/repository"
	"te-chatbot/internal/service"
	"te-chatbot/pkg/auth"
	"te-chatbot/pkg/config"
	"te-chatbot/pkg/logger"
	"te-chatbot/pkg/postgres"

	"go.uber.org/zap"
)

// @title T&E Chatbot API
// @version 1.0
// @description Travel & Expense assistant: policy chat, receipt analysis and admin reporting

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8000
// @BasePath /

// @securityDefinitions.apikey SessionCookie
// @in cookie
// @name session_token

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize global logger
	if err := logger.Init(cfg.Logger.Level); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	appLogger := logger.Get()
	appLogger.Info("Starting T&E chatbot service")

	// Initialize database
	ctx := context.Background()
	db, err := postgres.NewPool(ctx, &cfg.Database, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Initialize repositories
	userRepo := repository.NewUserRepository(db, appLogger)
	activityRepo := repository.NewActivityRepository(db, appLogger)
	analysisRepo := repository.NewAnalysisRepository(db, appLogger)
	feedbackRepo := repository.NewFeedbackRepository(db, appLogger)

	// Initialize JWT manager
	jwtManager := auth.NewJWTManager(cfg.JWT.SecretKey, cfg.JWT.Expiration)

	// Initialize services
	authService := service.NewAuthService(userRepo, jwtManager, appLogger)
	if err := authService.SeedUsers(ctx); err != nil {
		appLogger.Fatal("Failed to seed default users", zap.Error(err))
	}

	llmService, err := service.NewLLMService(&cfg.GigaChat, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize LLM service", zap.Error(err))
	}
	defer llmService.Close()

	extractService, err := service.NewExtractService(llmService, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize extraction service", zap.Error(err))
	}

	policyService := service.NewPolicyService(appLogger)
	analyzerService := service.NewAnalyzerService(policyService, llmService, analysisRepo, appLogger)
	activityService := service.NewActivityService(activityRepo, appLogger)
	feedbackService := service.NewFeedbackService(feedbackRepo, appLogger)

	// Initialize handlers
	h := api.Handlers{
		Auth:     handlers.NewAuthHandler(authService, activityService, appLogger),
		Chat:     handlers.NewChatHandler(analyzerService, activityService, appLogger),
		Ticket:   handlers.NewTicketHandler(extractService, analyzerService, activityService, cfg.Upload.MaxFileSize, appLogger),
		Document: handlers.NewDocumentHandler(policyService, activityService, cfg.Upload.MaxFileSize, appLogger),
		Feedback: handlers.NewFeedbackHandler(feedbackService, activityService, appLogger),
		Admin:    handlers.NewAdminHandler(authService, activityService, feedbackService, appLogger),
	}

	// Setup router
	app := api.SetupRouter(h, jwtManager, appLogger)

	// Start server
	go func() {
		addr := ":" + cfg.Server.Port
		appLogger.Info("Server starting", zap.String("address", addr))
		if err := app.Listen(addr); err != nil {
			appLogger.Fatal("Server failed", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server")
	if err := app.Shutdown(); err != nil {
		appLogger.Error("Server shutdown error", zap.Error(err))
	}
}
