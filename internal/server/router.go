package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/yungbote/smart-advisor-backend/internal/handlers"
	"github.com/yungbote/smart-advisor-backend/internal/middleware"
)

type RouterConfig struct {
	AuthHandler           *handlers.AuthHandler
	AuthMiddleware        *middleware.AuthMiddleware
	UserHandler           *handlers.UserHandler
	QuestionnaireHandler  *handlers.QuestionnaireHandler
	RecommendationHandler *handlers.RecommendationHandler
	AllowOrigins          []string
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()
	router.Use(otelgin.Middleware("smart-advisor-backend"))

	allowOrigins := cfg.AllowOrigins
	if len(allowOrigins) == 0 {
		allowOrigins = []string{"http://localhost:3000", "http://localhost:5173"}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     allowOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	// Public
	router.GET("/healthcheck", handlers.HealthCheck)
	api := router.Group("/api")
	{
		api.POST("/register", cfg.AuthHandler.Register)
		api.POST("/login", cfg.AuthHandler.Login)
	}

	// Protected
	protected := router.Group("/api")
	protected.Use(cfg.AuthMiddleware.RequireAuth())
	{
		protected.POST("/refresh", cfg.AuthHandler.Refresh)
		protected.POST("/logout", cfg.AuthHandler.Logout)
		protected.GET("/user", cfg.UserHandler.GetMe)
		protected.POST("/questionnaire/questions", cfg.QuestionnaireHandler.GetQuestions)
		protected.POST("/recommendations/generate", cfg.RecommendationHandler.Generate)
		protected.GET("/recommendations", cfg.RecommendationHandler.GetHistory)
		protected.PATCH("/recommendations/:id/favorite", cfg.RecommendationHandler.ToggleFavorite)
		protected.DELETE("/recommendations/:id", cfg.RecommendationHandler.Delete)
	}

	return router
}
