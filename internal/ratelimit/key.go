package ratelimit

import (
	"strconv"
	"time"
)

// LimiterKey builds the counter key for an identity under a config namespace.
func LimiterKey(cfg Config, identity string) string {
	if cfg.Namespace == "" || identity == "" {
		return ""
	}
	return cfg.Namespace + ":" + identity
}

// instanceKey builds the cache key for a limiter instance bound to one config.
func instanceKey(cfg Config) string {
	return cfg.Namespace + ":" + strconv.Itoa(cfg.MaxRequests) + ":" +
		strconv.FormatInt(int64(cfg.Window/time.Second), 10)
}
