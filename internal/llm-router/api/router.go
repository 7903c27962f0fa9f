package api

import (
	"llm-router/internal/llm-router/config"
	"llm-router/internal/llm-router/service"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func NewRouter(cfg *config.Config, routerService *service.RouterService, gatherer prometheus.Gatherer) *gin.Engine {
	// Set Gin mode
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize router
	router := gin.New()

	// Add middleware
	router.Use(gin.Recovery())
	router.Use(LoggingMiddleware())
	router.Use(ErrorMiddleware())
	if cfg.Server.CORS.Enabled {
		router.Use(CORSMiddleware(cfg.Server.CORS))
	}

	handler := NewHandler(routerService)

	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	// API routes
	api := router.Group("/api/v1")
	{
		// Public endpoints
		api.GET("/health", handler.GetHealth)
		api.GET("/models", handler.GetModels)

		// Tenant-scoped endpoints
		scoped := api.Group("")
		scoped.Use(OrganizationMiddleware())
		{
			scoped.POST("/chat/completions", handler.ChatCompletions)
			scoped.POST("/embeddings", handler.Embeddings)
			scoped.GET("/costs", handler.GetCosts)
		}
	}

	return router
}
