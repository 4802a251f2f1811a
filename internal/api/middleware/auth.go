package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/jafarshop/exactsync/internal/domain"
	"github.com/jafarshop/exactsync/internal/repository"
)

const adminKeyContextKey = "admin_key"

// AuthMiddleware authenticates admin requests with a bearer API key
func AuthMiddleware(repos *repository.Repositories, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing API key"})
			return
		}

		apiKey := strings.TrimPrefix(header, "Bearer ")

		key, err := repos.AdminKey.GetByAPIKey(c.Request.Context(), apiKey)
		if err != nil {
			logger.Warn("Admin authentication failed", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid API key"})
			return
		}

		c.Set(adminKeyContextKey, key)
		c.Next()
	}
}

// GetAdminKeyFromContext returns the authenticated admin key, if any
func GetAdminKeyFromContext(c *gin.Context) (*domain.AdminKey, bool) {
	val, ok := c.Get(adminKeyContextKey)
	if !ok {
		return nil, false
	}
	key, ok := val.(*domain.AdminKey)
	return key, ok
}
