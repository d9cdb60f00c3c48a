package api

import (
	"github.com/gin-gonic/gin"
)

// SetupRoutes sets up the API routes
func SetupRoutes(handler *Handler) *gin.Engine {
	router := gin.New()

	// Middleware
	router.Use(Recovery())
	router.Use(CORS())
	router.Use(Logger())

	// Health check
	router.GET("/health", handler.HealthCheck)

	// API v1
	v1 := router.Group("/api/v1")
	{
		assignments := v1.Group("/assignments/:assignment")
		{
			assignments.GET("", handler.GetSummary)
			assignments.GET("/checkouts", handler.GetCheckouts)

			submissions := assignments.Group("/submissions")
			{
				submissions.GET("", handler.GetSubmissions)
				submissions.GET("/:id", handler.GetSubmission)
				submissions.GET("/:id/report", handler.GetReport)
			}
		}
	}

	return router
}
