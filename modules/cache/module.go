package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/types"
	"github.com/redis/go-redis/v9"
)

// Module owns the Redis connection. An empty address disables caching.
type Module struct {
	redisAddr string
	prefix    string
	ttl       time.Duration
	logger    types.Logger

	cache *Cache
}

var _ mono.Module = (*Module)(nil)
var _ mono.HealthCheckableModule = (*Module)(nil)

// NewModule creates a cache module.
func NewModule(redisAddr, prefix string, ttl time.Duration, logger types.Logger) *Module {
	return &Module{
		redisAddr: redisAddr,
		prefix:    prefix,
		ttl:       ttl,
		logger:    logger,
	}
}

func (m *Module) Name() string {
	return "cache"
}

// Start connects to Redis. It is a no-op when caching is disabled.
func (m *Module) Start(ctx context.Context) error {
	if m.redisAddr == "" {
		m.logger.Info("Cache disabled, REDIS_ADDR not set")
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:         m.redisAddr,
		PoolSize:     50,
		MinIdleConns: 5,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}

	m.cache = New(client, m.prefix, m.ttl)
	m.logger.Info("Connected to Redis", "addr", m.redisAddr, "prefix", m.prefix, "ttl", m.ttl)
	return nil
}

func (m *Module) Stop(_ context.Context) error {
	if m.cache == nil {
		return nil
	}
	if err := m.cache.Close(); err != nil {
		return fmt.Errorf("failed to close Redis connection: %w", err)
	}
	m.logger.Info("Cache module stopped")
	return nil
}

// Cache returns the active cache, or Noop when caching is disabled.
func (m *Module) Cache() CacheService {
	if m.cache == nil {
		return Noop{}
	}
	return m.cache
}

// Health reports Redis reachability and cache counters.
func (m *Module) Health(ctx context.Context) mono.HealthStatus {
	if m.cache == nil {
		return mono.HealthStatus{
			Healthy: true,
			Message: "disabled",
		}
	}

	if err := m.cache.Ping(ctx); err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("redis ping failed: %v", err),
		}
	}

	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"addr":  m.redisAddr,
			"stats": m.cache.Stats(),
		},
	}
}
