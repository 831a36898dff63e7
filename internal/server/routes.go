package server

import (
	"sjsage522/couponradar/config"

	"github.com/gin-gonic/gin"
)

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler) *gin.Engine {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(LoggerMiddleware())

	router.GET("/health", handler.HealthCheck)
	if handler.metrics != nil {
		router.GET("/metrics", gin.WrapH(handler.metrics.Handler()))
	}

	v1 := router.Group("/api/v1")
	{
		v1.GET("/categories", handler.Categories)
		v1.GET("/deals", handler.Deals)
		v1.GET("/deals.csv", handler.DealsCSV)
	}

	return router
}
