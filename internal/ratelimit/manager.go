package ratelimit

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// redisCallTimeout bounds a single remote check so a slow store cannot stall
// request serving. A timeout is a backend error and propagates; the call is
// never silently re-counted against the local backend.
const redisCallTimeout = 2 * time.Second

// SettingsProvider supplies the latest settings snapshot.
type SettingsProvider func() SettingsConfig

// RedisClientFactory constructs a Redis client for the given options.
type RedisClientFactory func(options *redis.Options) *redis.Client

// Manager is the single entry point for rate limit checks. It picks the
// backend per call from the settings snapshot: the distributed store when
// fully configured, the in-process fallback otherwise. Callers never learn
// which backend served them.
type Manager struct {
	provider       SettingsProvider
	nowFn          func() time.Time
	memoryLimiter  Limiter
	newRedisClient RedisClientFactory

	mu        sync.Mutex
	client    *redis.Client
	clientCfg SettingsConfig
	clientErr error
	limiters  map[string]*RedisLimiter
}

// NewManager constructs a Manager with default dependencies when nil.
func NewManager(provider SettingsProvider, nowFn func() time.Time, newRedisClient RedisClientFactory) *Manager {
	if provider == nil {
		provider = func() SettingsConfig { return LoadSettingsConfig(nil) }
	}
	if nowFn == nil {
		nowFn = time.Now
	}
	if newRedisClient == nil {
		newRedisClient = redis.NewClient
	}
	return &Manager{
		provider:       provider,
		nowFn:          nowFn,
		memoryLimiter:  NewMemoryLimiter(),
		newRedisClient: newRedisClient,
		limiters:       make(map[string]*RedisLimiter),
	}
}

// CheckRequest resolves the caller identity from request headers and runs the
// rate limit check for cfg.
func (m *Manager) CheckRequest(ctx context.Context, r *http.Request, cfg Config) (Result, error) {
	identity := AnonymousIdentity
	if r != nil {
		identity = ClientIdentity(r.Header)
	}
	return m.Check(ctx, identity, cfg)
}

// Check runs a rate limit check for identity under cfg. Denial is a value,
// never an error; only a misbehaving distributed backend returns an error,
// and the caller decides whether that fails open or closed.
func (m *Manager) Check(ctx context.Context, identity string, cfg Config) (Result, error) {
	if m == nil || cfg.MaxRequests <= 0 {
		return Result{Allowed: true, Limit: cfg.MaxRequests}, nil
	}
	if identity == "" {
		identity = AnonymousIdentity
	}
	if ctx == nil {
		ctx = context.Background()
	}
	now := m.nowFn()
	settings := m.provider()

	if !settings.Configured() {
		return m.memoryLimiter.Allow(ctx, LimiterKey(cfg, identity), cfg, now)
	}

	limiter, errEnsure := m.ensureRedisLimiter(settings, cfg)
	if errEnsure != nil {
		// Malformed settings count as "backend absent", not as failure.
		return m.memoryLimiter.Allow(ctx, LimiterKey(cfg, identity), cfg, now)
	}

	ctxCall, cancel := context.WithTimeout(ctx, redisCallTimeout)
	defer cancel()
	return limiter.Allow(ctxCall, identity, cfg, now)
}

// ensureRedisLimiter returns the cached limiter instance for cfg, creating
// the shared client and the instance lazily. The client survives for the
// process lifetime unless the settings change, in which case it is replaced
// and the instance cache is cleared so no limiter keeps a closed client.
func (m *Manager) ensureRedisLimiter(settings SettingsConfig, cfg Config) (*RedisLimiter, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.clientCfg != settings {
		if m.client != nil {
			_ = m.client.Close()
		}
		m.client = nil
		m.clientErr = nil
		m.limiters = make(map[string]*RedisLimiter)
		m.clientCfg = settings

		options, errParse := redis.ParseURL(settings.URL)
		if errParse != nil {
			m.clientErr = fmt.Errorf("rate limit redis: invalid url: %w", errParse)
			log.WithError(errParse).Warn("rate limit: invalid redis url, using in-process fallback")
		} else {
			if settings.Token != "" {
				options.Password = settings.Token
			}
			m.client = m.newRedisClient(options)
		}
	}
	if m.clientErr != nil {
		return nil, m.clientErr
	}

	key := instanceKey(cfg)
	if limiter, ok := m.limiters[key]; ok {
		return limiter, nil
	}
	limiter := NewRedisLimiter(m.client, settings.Prefix, cfg)
	m.limiters[key] = limiter
	return limiter, nil
}
