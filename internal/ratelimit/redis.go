package ratelimit

import (
	"context"
	"errors"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

// slidingWindowScript counts requests in the trailing window atomically.
// Timestamps are in milliseconds. The reply is {allowed, count, resetMs}
// where resetMs is when the oldest counted request leaves the window.
var slidingWindowScript = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])
local member = ARGV[4]
redis.call("ZREMRANGEBYSCORE", key, 0, now - window)
local count = redis.call("ZCARD", key)
local allowed = 0
if count < limit then
  redis.call("ZADD", key, now, member)
  count = count + 1
  allowed = 1
end
redis.call("PEXPIRE", key, window)
local reset = now + window
local oldest = redis.call("ZRANGE", key, 0, 0, "WITHSCORES")
if oldest[2] then
  reset = tonumber(oldest[2]) + window
end
return {allowed, count, reset}
`)

// RedisLimiter enforces one endpoint class budget against a shared Redis
// client. Instances are bound to a single config tuple and cached by the
// Manager so repeated checks for the same class reuse the same handle.
type RedisLimiter struct {
	client *redis.Client
	prefix string
	cfg    Config
	seq    atomic.Uint64
}

// NewRedisLimiter constructs a RedisLimiter bound to one config.
func NewRedisLimiter(client *redis.Client, prefix string, cfg Config) *RedisLimiter {
	return &RedisLimiter{
		client: client,
		prefix: prefix,
		cfg:    cfg,
	}
}

var _ Limiter = (*RedisLimiter)(nil)

// Allow runs the sliding-window check for identity. Redis guarantees the
// script is atomic across concurrent callers and process instances, which is
// the reason this backend exists. Network and script errors are returned
// untranslated; backend selection is not this layer's job. The config
// argument satisfies the Limiter contract; the instance uses its bound
// config, which the Manager keys the instance cache by.
func (l *RedisLimiter) Allow(ctx context.Context, identity string, _ Config, now time.Time) (Result, error) {
	if l == nil || l.client == nil {
		return Result{Allowed: true}, nil
	}
	if l.cfg.MaxRequests <= 0 || identity == "" {
		return Result{Allowed: true, Limit: l.cfg.MaxRequests}, nil
	}
	windowMs := l.cfg.Window.Milliseconds()
	member := strconv.FormatUint(l.seq.Add(1), 10) + "-" + strconv.FormatInt(now.UnixNano(), 10)
	raw, errEval := slidingWindowScript.Run(ctx, l.client,
		[]string{l.buildKey(identity)},
		now.UnixMilli(), windowMs, l.cfg.MaxRequests, member,
	).Result()
	if errEval != nil {
		return Result{}, errEval
	}
	return resultFromScript(raw, l.cfg, now)
}

func (l *RedisLimiter) buildKey(identity string) string {
	key := l.cfg.Namespace + ":" + identity
	if l.prefix == "" {
		return key
	}
	return l.prefix + ":" + key
}

// resultFromScript translates the script reply into the common Result shape.
// Anything other than three integers is a malformed remote response and is
// reported as a backend error.
func resultFromScript(raw any, cfg Config, now time.Time) (Result, error) {
	vals, ok := raw.([]interface{})
	if !ok || len(vals) != 3 {
		return Result{}, errors.New("rate limit redis: unexpected response shape")
	}
	nums := make([]int64, len(vals))
	for i, v := range vals {
		n, okNum := toInt64(v)
		if !okNum {
			return Result{}, errors.New("rate limit redis: unexpected response type")
		}
		nums[i] = n
	}

	reset := time.UnixMilli(nums[2])
	if !reset.After(now) {
		reset = now.Add(cfg.Window)
	}
	remaining := cfg.MaxRequests - int(nums[1])
	if remaining < 0 {
		remaining = 0
	}

	result := Result{
		Allowed:   nums[0] == 1,
		Limit:     cfg.MaxRequests,
		Remaining: remaining,
		Reset:     reset,
	}
	if !result.Allowed {
		result.Remaining = 0
		result.RetryAfter = retryAfterSeconds(reset, now)
	}
	return result, nil
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case uint64:
		return int64(n), true
	default:
		return 0, false
	}
}
