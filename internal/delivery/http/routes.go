package http

import (
	"github.com/gin-gonic/gin"

	"github.com/swytch/backend/config"
)

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler) *gin.Engine {
	// Set Gin mode based on environment
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware
	router.Use(RecoveryMiddleware())
	router.Use(LoggerMiddleware())
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))
	router.Use(RateLimitMiddleware(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst))

	// Health check endpoint
	router.GET("/health", handler.HealthCheck)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		analysis := v1.Group("/analysis")
		{
			analysis.POST("/find", handler.FindAlternatives)
			analysis.POST("/retry", handler.RetryAnalysis)
			analysis.GET("/state", handler.GetState)
		}

		preferences := v1.Group("/preferences")
		{
			preferences.GET("", handler.GetPreferences)
			preferences.PATCH("", handler.UpdatePreferences)
		}

		views := v1.Group("/views")
		{
			views.POST("", handler.TrackProductView)
			views.GET("/:productId", handler.GetProductViewCount)
			views.DELETE("", handler.ClearViewTracker)
		}

		history := v1.Group("/history")
		{
			history.GET("", handler.GetItemsViewed)
			history.DELETE("/:itemId", handler.RemoveItemViewed)
			history.DELETE("", handler.ClearItemsViewed)
		}

		impact := v1.Group("/impact")
		{
			impact.GET("", handler.GetImpactStats)
			impact.POST("/eco-choice", handler.TrackEcoChoice)
		}

		v1.GET("/events", handler.StreamEvents)
	}

	return router
}
