package ratelimit

import (
	"bytes"
	"encoding/json"
	"os"
	"strings"

	"github.com/gr8monk3ys/rategate/internal/config"
	internalsettings "github.com/gr8monk3ys/rategate/internal/settings"
)

// SettingsConfig captures the distributed store settings for one check.
type SettingsConfig struct {
	URL    string
	Token  string
	Prefix string
}

// Configured reports whether the distributed backend may be used. Both the
// URL and the token must be present; a half-configured backend is treated as
// absent so the protected endpoint never hard-fails on limiter infrastructure.
func (c SettingsConfig) Configured() bool {
	return c.URL != "" && c.Token != ""
}

// SettingsSource exposes stored settings values by key.
type SettingsSource interface {
	Value(key string) (json.RawMessage, bool)
}

// LoadSettingsConfig builds the current settings snapshot. Environment
// variables win over stored settings; src may be nil when no settings store
// is attached.
func LoadSettingsConfig(src SettingsSource) SettingsConfig {
	cfg := SettingsConfig{Prefix: internalsettings.DefaultRedisPrefix}

	if src != nil {
		if raw, ok := src.Value(internalsettings.RedisURLKey); ok {
			if url, okParse := parseString(raw); okParse {
				cfg.URL = url
			}
		}
		if raw, ok := src.Value(internalsettings.RedisTokenKey); ok {
			if token, okParse := parseString(raw); okParse {
				cfg.Token = token
			}
		}
		if raw, ok := src.Value(internalsettings.RedisPrefixKey); ok {
			if prefix, okParse := parseString(raw); okParse && prefix != "" {
				cfg.Prefix = prefix
			}
		}
	}

	if url := strings.TrimSpace(os.Getenv(config.EnvRedisURL)); url != "" {
		cfg.URL = url
	}
	if token := strings.TrimSpace(os.Getenv(config.EnvRedisToken)); token != "" {
		cfg.Token = token
	}
	if prefix := strings.TrimSpace(os.Getenv(config.EnvRedisPrefix)); prefix != "" {
		cfg.Prefix = prefix
	}
	return cfg
}

// parseString decodes a stored settings value leniently: JSON strings are
// unwrapped and trimmed, everything else is rejected.
func parseString(raw json.RawMessage) (string, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return "", false
	}
	var parsed string
	if errUnmarshal := json.Unmarshal(raw, &parsed); errUnmarshal == nil {
		return strings.TrimSpace(parsed), true
	}
	return "", false
}
