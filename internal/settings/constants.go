package settings

// Stored settings keys and defaults.
const (
	// RedisURLKey holds the distributed counting store URL.
	RedisURLKey = "RATE_LIMIT_REDIS_URL"
	// RedisTokenKey holds the distributed counting store auth token.
	RedisTokenKey = "RATE_LIMIT_REDIS_TOKEN"
	// RedisPrefixKey holds the Redis key prefix for limiter counters.
	RedisPrefixKey = "RATE_LIMIT_REDIS_PREFIX"
	// DefaultRedisPrefix is the fallback Redis key prefix.
	DefaultRedisPrefix = "rategate"
)
