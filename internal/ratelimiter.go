package internal

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

type RateLimit struct {
	requests int
	window   time.Duration
}

var inboundRateLimits = []RateLimit{
	{requests: 10, window: 10 * time.Second},
	{requests: 60, window: 10 * time.Minute},
}

const localLimiterIdleAge = 10 * time.Minute

// RateLimiter shapes inbound traffic per client key. With Redis it keeps
// shared fixed windows; without it, an in-process token bucket per key.
type RateLimiter struct {
	client  redis.Cmdable
	prefix  string
	limits  []RateLimit
	logger  *Logger
	enabled bool

	mu    sync.Mutex
	local map[string]*localLimiter
}

type localLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func NewRateLimiter(cfg *Config, logger *Logger) *RateLimiter {
	if logger == nil {
		logger = NopLogger()
	}
	rl := &RateLimiter{
		prefix:  cfg.RateLimitRedisPrefix,
		limits:  inboundRateLimits,
		logger:  logger,
		enabled: cfg.CacheEnabled,
		local:   make(map[string]*localLimiter),
	}
	if cfg.CacheEnabled {
		rl.client = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr(),
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
	}
	return rl
}

func (rl *RateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	if !rl.enabled || rl.client == nil {
		return rl.allowLocal(key), nil
	}

	for _, limit := range rl.limits {
		allowed, err := rl.checkLimit(ctx, key, limit)
		if err != nil {
			rl.logger.Error("rate_limit_check_failed").
				Component("rate_limiter").
				Operation("check_limit").
				Err(err).
				Meta("key", key).
				Log()
			return false, err
		}
		if !allowed {
			rl.logger.Debug("rate_limit_blocked").
				Component("rate_limiter").
				Operation("check_limit").
				Meta("key", key).
				Meta("limit_requests", limit.requests).
				Meta("limit_window", limit.window.String()).
				Log()
			return false, nil
		}
	}
	return true, nil
}

func (rl *RateLimiter) checkLimit(ctx context.Context, key string, limit RateLimit) (bool, error) {
	redisKey := fmt.Sprintf("%s:%s:%d", rl.prefix, key, int(limit.window.Seconds()))

	count, err := rl.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return false, err
	}

	if count == 1 {
		if err := rl.client.Expire(ctx, redisKey, limit.window).Err(); err != nil {
			return false, err
		}
	}

	return int(count) <= limit.requests, nil
}

// allowLocal uses the tightest configured window as the bucket: its request
// count is the burst and it refills evenly over the window.
func (rl *RateLimiter) allowLocal(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	if len(rl.local) > 500 {
		cutoff := now.Add(-localLimiterIdleAge)
		for k, entry := range rl.local {
			if entry.lastSeen.Before(cutoff) {
				delete(rl.local, k)
			}
		}
	}

	entry, ok := rl.local[key]
	if !ok {
		limit := rl.limits[0]
		every := limit.window / time.Duration(limit.requests)
		entry = &localLimiter{limiter: rate.NewLimiter(rate.Every(every), limit.requests)}
		rl.local[key] = entry
	}
	entry.lastSeen = now
	return entry.limiter.Allow()
}
