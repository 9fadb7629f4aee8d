package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gr8monk3ys/rategate/internal/ratelimit"
)

// LimitHandler exposes the endpoint class budget registry.
type LimitHandler struct{}

// NewLimitHandler constructs a LimitHandler.
func NewLimitHandler() *LimitHandler {
	return &LimitHandler{}
}

// limitRow is the JSON view of one registry entry.
type limitRow struct {
	Name          string `json:"name"`
	MaxRequests   int    `json:"max_requests"`
	WindowSeconds int    `json:"window_seconds"`
	Namespace     string `json:"namespace"`
}

// List returns every endpoint class budget.
func (h *LimitHandler) List(c *gin.Context) {
	entries := ratelimit.Configs()
	rows := make([]limitRow, 0, len(entries))
	for _, entry := range entries {
		rows = append(rows, limitRow{
			Name:          entry.Name,
			MaxRequests:   entry.Config.MaxRequests,
			WindowSeconds: int(entry.Config.Window / time.Second),
			Namespace:     entry.Config.Namespace,
		})
	}
	c.JSON(http.StatusOK, gin.H{"data": rows, "total": len(rows)})
}
