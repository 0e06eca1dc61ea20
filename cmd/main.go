package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/yungbote/smart-advisor-backend/internal/clients/googlebooks"
	"github.com/yungbote/smart-advisor-backend/internal/clients/openai"
	"github.com/yungbote/smart-advisor-backend/internal/clients/tmdb"
	"github.com/yungbote/smart-advisor-backend/internal/db"
	"github.com/yungbote/smart-advisor-backend/internal/handlers"
	"github.com/yungbote/smart-advisor-backend/internal/logger"
	"github.com/yungbote/smart-advisor-backend/internal/middleware"
	"github.com/yungbote/smart-advisor-backend/internal/observability"
	"github.com/yungbote/smart-advisor-backend/internal/repos"
	"github.com/yungbote/smart-advisor-backend/internal/server"
	"github.com/yungbote/smart-advisor-backend/internal/services"
	"github.com/yungbote/smart-advisor-backend/internal/utils"
)

func main() {
	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Tracing
	shutdownOTel := observability.InitOTel(context.Background(), log, observability.OtelConfig{
		ServiceName: "smart-advisor-backend",
		Environment: logMode,
	})
	if shutdownOTel != nil {
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = shutdownOTel(ctx)
		}()
	}

	// Env
	log.Info("Loading environment variables from main...")
	jwtSecretKey := utils.GetEnv("JWT_SECRET_KEY", "defaultsecret", log)
	accessTokenTTL := utils.GetEnvAsInt("ACCESS_TOKEN_TTL", 3600, log)
	refreshTokenTTL := utils.GetEnvAsInt("REFRESH_TOKEN_TTL", 86400, log)

	// Database
	databaseService, err := db.NewDatabaseService(log)
	if err != nil {
		log.Error("Database init failed", "error", err)
		os.Exit(1)
	}
	if err = databaseService.AutoMigrateAll(); err != nil {
		log.Warn("Auto migration failed", "error", err)
	}
	theDB := databaseService.DB()

	// Repos
	log.Info("Setting up repos from main...")
	userRepo := repos.NewUserRepo(theDB, log)
	userTokenRepo := repos.NewUserTokenRepo(theDB, log)
	recommendationRepo := repos.NewRecommendationRepo(theDB, log)
	questionnaireResponseRepo := repos.NewQuestionnaireResponseRepo(theDB, log)

	// Clients
	log.Info("Setting up clients from main...")
	openaiClient, err := openai.NewClient(log)
	if err != nil {
		log.Error("Could not init OpenAI client", "error", err)
		os.Exit(1)
	}
	tmdbClient := tmdb.NewClient(log)
	googleBooksClient := googlebooks.NewClient(log)

	// Services
	log.Info("Setting up services from main...")
	authService := services.NewAuthService(theDB, log, userRepo, userTokenRepo, jwtSecretKey, time.Duration(accessTokenTTL)*time.Second, time.Duration(refreshTokenTTL)*time.Second)
	userService := services.NewUserService(theDB, log, userRepo)
	questionnaireService, err := services.NewQuestionnaireService(theDB, log, openaiClient, questionnaireResponseRepo)
	if err != nil {
		log.Error("Could not init QuestionnaireService", "error", err)
		os.Exit(1)
	}
	recommendationService := services.NewRecommendationService(theDB, log, openaiClient, tmdbClient, googleBooksClient, recommendationRepo)
	sessionGuard := services.NewSessionGuard()

	// Handlers
	log.Info("Setting up handlers from main...")
	authHandler := handlers.NewAuthHandler(authService)
	userHandler := handlers.NewUserHandler(userService)
	questionnaireHandler := handlers.NewQuestionnaireHandler(questionnaireService)
	recommendationHandler := handlers.NewRecommendationHandler(log, recommendationService, questionnaireService, userService, sessionGuard)

	// Middleware
	log.Info("Setting up middleware from main...")
	authMiddleware := middleware.NewAuthMiddleware(log, authService)

	// Router
	log.Info("Setting up router from main...")
	router := server.NewRouter(server.RouterConfig{
		AuthHandler:           authHandler,
		AuthMiddleware:        authMiddleware,
		UserHandler:           userHandler,
		QuestionnaireHandler:  questionnaireHandler,
		RecommendationHandler: recommendationHandler,
	})

	port := utils.GetEnv("PORT", "8080", log)
	log.Info("Server listening", "port", port)
	if err := router.Run(":" + port); err != nil {
		log.Error("Server failed", "error", err)
	}
}
