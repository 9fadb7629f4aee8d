package middleware

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gr8monk3ys/rategate/internal/ratelimit"
	log "github.com/sirupsen/logrus"
)

// ExceededCode is the stable error code carried by denied responses.
const ExceededCode = "RATE_LIMIT_EXCEEDED"

// exceededMessage is the human-readable companion to ExceededCode.
const exceededMessage = "Too many requests. Please try again later."

// WithRateLimit enforces the budget for one endpoint class. Allowed requests
// pass through with informational X-RateLimit-* headers; denied requests are
// answered with 429 and the documented error body. A failing distributed
// backend is logged and the request is allowed; the governor itself never
// turns infrastructure trouble into a 5xx.
func WithRateLimit(manager *ratelimit.Manager, cfg ratelimit.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		result, errCheck := manager.CheckRequest(c.Request.Context(), c.Request, cfg)
		if errCheck != nil {
			log.WithError(errCheck).WithField("namespace", cfg.Namespace).
				Warn("rate limit: backend check failed, allowing request")
			c.Next()
			return
		}
		ApplyRateLimitHeaders(c, result)
		if !result.Allowed {
			c.Header("Retry-After", strconv.Itoa(result.RetryAfter))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, ExceededBody(result))
			return
		}
		c.Next()
	}
}

// ApplyRateLimitHeaders attaches the informational limit headers without
// touching status or body. Reset is epoch milliseconds.
func ApplyRateLimitHeaders(c *gin.Context, result ratelimit.Result) {
	c.Header("X-RateLimit-Limit", strconv.Itoa(result.Limit))
	c.Header("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	c.Header("X-RateLimit-Reset", strconv.FormatInt(result.Reset.UnixMilli(), 10))
}

// ExceededBody builds the denied-response JSON body.
func ExceededBody(result ratelimit.Result) gin.H {
	return gin.H{
		"success": false,
		"error": gin.H{
			"code":       ExceededCode,
			"message":    exceededMessage,
			"retryAfter": result.RetryAfter,
		},
	}
}
