package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/jafarshop/exactsync/internal/domain"
	"github.com/jafarshop/exactsync/internal/service"
)

// HandleOrderCreated handles POST /webhooks/order-created.
//
// The storefront only understands 200 and 500: duplicates and even
// malformed payloads are absorbed with a 200 so the platform does not
// storm the endpoint with retries, and only a genuine processing failure
// answers 500.
func HandleOrderCreated(ingest *service.IngestService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var order domain.WebhookOrder
		if err := c.ShouldBindJSON(&order); err != nil {
			logger.Warn("Unparseable order webhook payload, absorbing", zap.Error(err))
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
			return
		}

		result, err := ingest.IngestOrder(c.Request.Context(), &order)
		switch result {
		case service.ResultSubmitted, service.ResultDuplicate:
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
	}
}
