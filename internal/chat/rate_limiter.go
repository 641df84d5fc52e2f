package chat

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RateLimiter throttles completion-heavy operations per conversation so one
// conversation cannot drain the shared provider quota.
type RateLimiter struct {
	rdb *redis.Client
	ctx context.Context
}

// NewRateLimiter creates a new RateLimiter instance.
func NewRateLimiter() *RateLimiter {
	return &RateLimiter{
		rdb: GetRedisClient(),
		ctx: GetContext(),
	}
}

// RateLimitConfig defines rate limit rules.
type RateLimitConfig struct {
	MaxGenerations   int           // per window
	MaxBatches       int           // per window
	GenerationWindow time.Duration // time window for generation calls
	BatchWindow      time.Duration // time window for evaluate-all calls
}

// DefaultRateLimitConfig returns default rate limit configuration.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		MaxGenerations:   5,
		MaxBatches:       2,
		GenerationWindow: time.Minute,
		BatchWindow:      5 * time.Minute,
	}
}

// CheckGenerationRateLimit checks if another angle generation is allowed for
// the conversation. Without a configured Redis client everything is allowed.
func (rl *RateLimiter) CheckGenerationRateLimit(conversationID string, config RateLimitConfig) (bool, error) {
	return rl.check(fmt.Sprintf("rate:generate:%s", conversationID), config.MaxGenerations)
}

// RecordGeneration records a generation call for rate limiting.
func (rl *RateLimiter) RecordGeneration(conversationID string, config RateLimitConfig) error {
	return rl.record(fmt.Sprintf("rate:generate:%s", conversationID), config.GenerationWindow)
}

// CheckBatchRateLimit checks if another evaluate-all run is allowed for the
// conversation.
func (rl *RateLimiter) CheckBatchRateLimit(conversationID string, config RateLimitConfig) (bool, error) {
	return rl.check(fmt.Sprintf("rate:batch:%s", conversationID), config.MaxBatches)
}

// RecordBatch records an evaluate-all run for rate limiting.
func (rl *RateLimiter) RecordBatch(conversationID string, config RateLimitConfig) error {
	return rl.record(fmt.Sprintf("rate:batch:%s", conversationID), config.BatchWindow)
}

func (rl *RateLimiter) check(key string, max int) (bool, error) {
	if rl == nil || rl.rdb == nil {
		// No limiter configured, allow.
		return true, nil
	}

	count, err := rl.rdb.Get(rl.ctx, key).Int()
	if err == redis.Nil {
		return true, nil
	} else if err != nil {
		return false, err
	}

	if count >= max {
		return false, nil
	}

	return true, nil
}

func (rl *RateLimiter) record(key string, window time.Duration) error {
	if rl == nil || rl.rdb == nil {
		return nil
	}

	count, err := rl.rdb.Incr(rl.ctx, key).Result()
	if err != nil {
		return err
	}

	if count == 1 {
		rl.rdb.Expire(rl.ctx, key, window)
	}

	return nil
}
