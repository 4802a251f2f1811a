package api

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/jafarshop/exactsync/internal/api/handlers"
	"github.com/jafarshop/exactsync/internal/api/middleware"
	"github.com/jafarshop/exactsync/internal/config"
	"github.com/jafarshop/exactsync/internal/repository"
	"github.com/jafarshop/exactsync/internal/service"
)

// NewRouter creates and configures the Gin router
func NewRouter(
	cfg *config.Config,
	repos *repository.Repositories,
	ingest *service.IngestService,
	reservations service.ReservationGate,
	logger *zap.Logger,
) *gin.Engine {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Middleware
	router.Use(gin.Recovery())
	router.Use(loggingMiddleware(logger))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Storefront webhooks
	webhooks := router.Group("/webhooks")
	webhooks.Use(middleware.VerifyWebhookHMAC(cfg.Shopify.WebhookSecret, logger))
	{
		webhooks.POST("/order-created", handlers.HandleOrderCreated(ingest, logger))
	}

	// Admin routes (internal)
	v1 := router.Group("/v1")
	{
		adminRoutes := v1.Group("/admin")
		adminRoutes.Use(middleware.AuthMiddleware(repos, logger))
		{
			adminRoutes.GET("/reservations", handlers.HandleListReservations(repos, logger))
			adminRoutes.GET("/reservations/:orderID", handlers.HandleGetReservation(repos, logger))
			adminRoutes.DELETE("/reservations/:orderID", handlers.HandleDeleteReservation(reservations, logger))
		}
	}

	return router
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		status := c.Writer.Status()
		logger.Info("HTTP request",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", status),
		)
	}
}
