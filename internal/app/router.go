package app

import (
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"dispatch/internal/handler"
	"dispatch/internal/middleware"
)

// RouterDeps contains all dependencies needed for the router.
type RouterDeps struct {
	AssignmentHandler *handler.AssignmentHandler
	VehicleHandler    *handler.VehicleHandler
	TariffHandler     *handler.TariffHandler
	RedisClient       *redis.Client // nil disables idempotency
	NewRelicApp       *newrelic.Application
	Logger            *zap.Logger
}

// NewRouter creates a new Gin router with all routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()

	// Global middleware.
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(deps.Logger))
	router.Use(middleware.CORSMiddleware())

	// Add New Relic middleware if enabled.
	if deps.NewRelicApp != nil {
		router.Use(nrgin.Middleware(deps.NewRelicApp))
	}

	router.Use(middleware.IdempotencyMiddleware(deps.RedisClient, deps.Logger))

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// API v1 routes.
	v1 := router.Group("/v1")
	{
		// Assignment routes.
		assignments := v1.Group("/assignments")
		{
			assignments.POST("", deps.AssignmentHandler.FindVehicle)
			assignments.POST("/accept", deps.AssignmentHandler.Accept)
		}

		// Vehicle routes.
		vehicles := v1.Group("/vehicles")
		{
			vehicles.GET("", deps.VehicleHandler.GetAll)
			vehicles.PUT("/:id/status", deps.VehicleHandler.UpdateStatus)
		}

		// Tariff routes.
		v1.GET("/tariff", deps.TariffHandler.GetActive)
		v1.POST("/quotes", deps.TariffHandler.Quote)
	}

	return router
}
