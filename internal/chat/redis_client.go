package chat

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

var (
	rdb *redis.Client
	ctx = context.Background()
)

// InitRedis initializes the Redis client used for request rate limiting.
// Redis is optional; without it every rate-limit check allows.
func InitRedis(addr string, password string, db int) error {
	opt := &redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	}

	rdb = redis.NewClient(opt)

	_, err := rdb.Ping(ctx).Result()
	if err != nil {
		rdb = nil
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return nil
}

// GetRedisClient returns the Redis client instance, nil when not configured.
func GetRedisClient() *redis.Client {
	return rdb
}

// GetContext returns the default context.
func GetContext() context.Context {
	return ctx
}
