// Package ratelimiter throttles outbound AI calls with a Redis-backed
// token bucket so multiple workers share one budget.
package ratelimiter

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/aadhil-anwer/resume-analyzer/internal/domain"
)

// BucketConfig sizes one token bucket.
type BucketConfig struct {
	Capacity   int64
	RefillRate float64
}

// NewBucketConfigFromPerMinute converts a per-minute allowance into a
// bucket of that capacity refilling continuously.
func NewBucketConfigFromPerMinute(perMinute int) BucketConfig {
	if perMinute <= 0 {
		return BucketConfig{}
	}
	return BucketConfig{
		Capacity:   int64(perMinute),
		RefillRate: float64(perMinute) / 60.0,
	}
}

// RedisLuaLimiter evaluates the bucket atomically in a Lua script. A
// nil limiter allows everything, so callers never need nil checks.
type RedisLuaLimiter struct {
	redis  *redis.Client
	cfg    BucketConfig
	script *redis.Script
}

func NewRedisLuaLimiter(rdb *redis.Client, cfg BucketConfig) *RedisLuaLimiter {
	if rdb == nil {
		return nil
	}
	return &RedisLuaLimiter{
		redis:  rdb,
		cfg:    cfg,
		script: redis.NewScript(luaTokenBucketScript),
	}
}

const luaTokenBucketScript = `
local key = KEYS[1]
local capacity = tonumber(ARGV[1])
local refill_rate = tonumber(ARGV[2])
local now = tonumber(ARGV[3])
local cost = tonumber(ARGV[4])

local tokens = capacity
local last_refill = now

local data = redis.call("HMGET", key, "tokens", "last_refill")
if data[1] ~= false and data[1] ~= nil then
  tokens = tonumber(data[1])
end
if data[2] ~= false and data[2] ~= nil then
  last_refill = tonumber(data[2])
end

if last_refill == nil then
  last_refill = now
end

local delta = now - last_refill
if delta < 0 then
  delta = 0
end

tokens = math.min(capacity, tokens + delta * refill_rate)
last_refill = now

local allowed = 0
local retry_after = 0

if tokens >= cost then
  tokens = tokens - cost
  allowed = 1
else
  local shortage = cost - tokens
  if refill_rate > 0 then
    retry_after = shortage / refill_rate
  else
    retry_after = 0
  end
end

redis.call("HMSET", key, "tokens", tokens, "last_refill", last_refill)

return { allowed, tokens, last_refill, retry_after }
`

// Allow consumes cost tokens from the bucket named by key. Redis errors
// fail open; provider-side 429 handling still applies separately.
func (l *RedisLuaLimiter) Allow(ctx context.Context, key string, cost int64) (bool, time.Duration, error) {
	if l == nil || l.redis == nil {
		return true, 0, nil
	}
	if l.cfg.Capacity <= 0 || l.cfg.RefillRate <= 0 {
		return true, 0, nil
	}
	if cost <= 0 {
		cost = 1
	}

	nowSec := float64(time.Now().UnixNano()) / 1e9
	res, err := l.script.Run(ctx, l.redis, []string{"rate:" + key}, l.cfg.Capacity, l.cfg.RefillRate, nowSec, cost).Result()
	if err != nil {
		slog.Error("redis rate limiter script error", slog.String("key", key), slog.Any("error", err))
		return true, 0, err
	}

	vals, ok := res.([]interface{})
	if !ok || len(vals) < 4 {
		slog.Error("redis rate limiter unexpected script result", slog.String("key", key), slog.Any("result", res))
		return true, 0, nil
	}

	allowed := toInt64(vals[0]) == 1
	retryAfter := time.Duration(toFloat64(vals[3]) * float64(time.Second))
	return allowed, retryAfter, nil
}

// AIWaiter adapts the limiter to the ai.Limiter port: Allow blocks
// until a token is available or the context expires.
type AIWaiter struct {
	Limiter *RedisLuaLimiter
	Key     string
}

func (w *AIWaiter) Allow(ctx domain.Context) error {
	if w == nil || w.Limiter == nil {
		return nil
	}
	for {
		allowed, retryAfter, err := w.Limiter.Allow(ctx, w.Key, 1)
		if err != nil || allowed {
			return nil
		}
		if retryAfter <= 0 {
			return fmt.Errorf("op=ratelimiter.Allow key=%s: %w", w.Key, domain.ErrRateLimited)
		}
		if retryAfter > time.Minute {
			retryAfter = time.Minute
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("op=ratelimiter.Allow key=%s: %w", w.Key, ctx.Err())
		case <-time.After(retryAfter):
		}
	}
}

func toInt64(v interface{}) int64 {
	switch t := v.(type) {
	case int64:
		return t
	case int:
		return int64(t)
	case float64:
		return int64(t)
	default:
		return 0
	}
}

func toFloat64(v interface{}) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case int64:
		return float64(t)
	case int:
		return float64(t)
	default:
		return math.NaN()
	}
}
