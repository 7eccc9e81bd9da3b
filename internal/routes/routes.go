package routes

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"clinical-lookup/internal/config"
	"clinical-lookup/internal/handlers"
	"clinical-lookup/internal/metrics"
	"clinical-lookup/internal/middleware"
	"clinical-lookup/internal/models"
)

// SetupRoutes configures the application routes.
func SetupRoutes(router *gin.Engine, store models.RecordStore, cfg *config.Config, m *metrics.Collector, log zerolog.Logger) {
	authHandler := handlers.NewAuthHandler(store, cfg.JWTSecret,
		time.Duration(cfg.JWTExpirationMinutes)*time.Minute, log)
	recordsHandler := handlers.NewRecordsHandler(store, log)

	router.Use(middleware.RequestLogger(log, m))

	api := router.Group("/api/v1")
	api.Use(middleware.RateLimit(middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
		Burst:             cfg.RateLimit.Burst,
	}, m))

	// Public routes
	authRoutes := api.Group("/auth")
	{
		authRoutes.POST("/login", authHandler.Login)
	}

	// Lookup routes, any staff role
	private := api.Group("")
	private.Use(middleware.AuthMiddleware(cfg.JWTSecret))
	private.Use(middleware.RoleAuthMiddleware(models.RoleAdmin, models.RoleDoctor, models.RoleStaff))
	{
		private.GET("/search", recordsHandler.Search)
		private.GET("/history/:patientId", recordsHandler.History)
		private.GET("/order/:orderId", recordsHandler.Order)
		private.GET("/result/:resultId", recordsHandler.Result)
	}

	router.GET("/metrics", gin.WrapH(m.Handler()))
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "UP"})
	})
}
