package gate

import (
	"go.uber.org/zap"

	"github.com/jafarshop/exactsync/internal/config"
)

// NewCache builds the gate's fast-path cache from configuration. It
// prefers Redis and falls back to the in-memory cache when Redis is
// disabled or unreachable. In-memory state is per-process, which is fine
// for a single instance; multi-instance deployments should run Redis so
// the lock tier is shared.
func NewCache(cfg config.RedisConfig, logger *zap.Logger) TTLCache {
	if !cfg.Enabled {
		logger.Info("Redis disabled, using in-memory reservation cache")
		return NewMemoryCache()
	}

	cache, err := NewRedisCache(RedisOptions{
		Host:     cfg.Host,
		Port:     cfg.Port,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err != nil {
		logger.Warn("Redis unavailable, falling back to in-memory reservation cache",
			zap.Error(err),
		)
		return NewMemoryCache()
	}

	logger.Info("Connected to Redis reservation cache",
		zap.String("host", cfg.Host),
		zap.String("port", cfg.Port),
	)
	return cache
}
