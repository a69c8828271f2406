package session

import (
	"time"

	"github.com/redis/go-redis/v9"
)

// StoreOption configures NewStore. Options that only apply to one driver
// are ignored by the others.
type StoreOption func(*storeConfig)

type storeConfig struct {
	redisClient *redis.Client
	redisTTL    time.Duration
}

// WithRedisClient supplies the Redis connection for the redis driver,
// which fails construction without one.
func WithRedisClient(client *redis.Client) StoreOption {
	return func(c *storeConfig) {
		c.redisClient = client
	}
}

// WithRedisTTL overrides how long an idle chat session survives in Redis.
// Defaults to 24 hours; reads refresh the timer.
func WithRedisTTL(ttl time.Duration) StoreOption {
	return func(c *storeConfig) {
		c.redisTTL = ttl
	}
}
