package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gr8monk3ys/rategate/internal/http/middleware"
	"github.com/gr8monk3ys/rategate/internal/ratelimit"
	internalsettings "github.com/gr8monk3ys/rategate/internal/settings"
	log "github.com/sirupsen/logrus"
)

// SettingHandler manages the distributed store settings.
type SettingHandler struct {
	store *internalsettings.Store
}

// NewSettingHandler constructs a SettingHandler.
func NewSettingHandler(store *internalsettings.Store) *SettingHandler {
	return &SettingHandler{store: store}
}

// Get returns the current backend settings with the token masked.
func (h *SettingHandler) Get(c *gin.Context) {
	cfg := ratelimit.LoadSettingsConfig(h.store)
	c.JSON(http.StatusOK, gin.H{
		"redis_url":    cfg.URL,
		"redis_token":  maskToken(cfg.Token),
		"redis_prefix": cfg.Prefix,
		"configured":   cfg.Configured(),
	})
}

// settingsUpdateRequest defines the settings update payload. Pointer fields
// distinguish "leave alone" from "set empty".
type settingsUpdateRequest struct {
	RedisURL    *string `json:"redis_url"`
	RedisToken  *string `json:"redis_token"`
	RedisPrefix *string `json:"redis_prefix"`
}

// Update persists backend settings and refreshes the in-process snapshot.
func (h *SettingHandler) Update(c *gin.Context) {
	var req settingsUpdateRequest
	if errBind := c.ShouldBindJSON(&req); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	ctx := c.Request.Context()
	if req.RedisURL != nil {
		if errSet := h.store.Set(ctx, internalsettings.RedisURLKey, strings.TrimSpace(*req.RedisURL)); errSet != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
			return
		}
	}
	if req.RedisToken != nil {
		if errSet := h.store.Set(ctx, internalsettings.RedisTokenKey, strings.TrimSpace(*req.RedisToken)); errSet != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
			return
		}
	}
	if req.RedisPrefix != nil {
		if errSet := h.store.Set(ctx, internalsettings.RedisPrefixKey, strings.TrimSpace(*req.RedisPrefix)); errSet != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
			return
		}
	}

	cfg := ratelimit.LoadSettingsConfig(h.store)
	entry := log.WithField("configured", cfg.Configured())
	if admin, ok := middleware.AdminFromContext(c); ok {
		entry = entry.WithField("admin", admin.Username)
	}
	entry.Info("rate limit settings updated")
	c.JSON(http.StatusOK, gin.H{"configured": cfg.Configured()})
}

func maskToken(token string) string {
	if token == "" {
		return ""
	}
	if len(token) <= 4 {
		return "****"
	}
	return token[:2] + "****" + token[len(token)-2:]
}
