package middleware

import (
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gr8monk3ys/rategate/internal/ratelimit"
)

func newTestRouter(manager *ratelimit.Manager, cfg ratelimit.Config) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/search", WithRateLimit(manager, cfg), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": true})
	})
	return r
}

func localManager(now time.Time) *ratelimit.Manager {
	return ratelimit.NewManager(func() ratelimit.SettingsConfig {
		return ratelimit.SettingsConfig{}
	}, func() time.Time { return now }, nil)
}

func doRequest(r *gin.Engine, identity string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/search", nil)
	req.Header.Set("X-Forwarded-For", identity)
	r.ServeHTTP(w, req)
	return w
}

func TestWithRateLimitAllowedPathSetsHeaders(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cfg := ratelimit.Config{MaxRequests: 2, Window: time.Minute, Namespace: "rl:test"}
	r := newTestRouter(localManager(now), cfg)

	w := doRequest(r, "1.2.3.4")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if got := w.Header().Get("X-RateLimit-Limit"); got != "2" {
		t.Fatalf("expected limit header 2, got %q", got)
	}
	if got := w.Header().Get("X-RateLimit-Remaining"); got != "1" {
		t.Fatalf("expected remaining header 1, got %q", got)
	}
	wantReset := strconv.FormatInt(now.Add(time.Minute).UnixMilli(), 10)
	if got := w.Header().Get("X-RateLimit-Reset"); got != wantReset {
		t.Fatalf("expected reset header %q, got %q", wantReset, got)
	}
	if got := w.Header().Get("Retry-After"); got != "" {
		t.Fatalf("allowed path must not carry Retry-After, got %q", got)
	}
}

func TestWithRateLimitDeniedPath(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cfg := ratelimit.Config{MaxRequests: 2, Window: time.Minute, Namespace: "rl:test"}
	r := newTestRouter(localManager(now), cfg)

	doRequest(r, "1.2.3.4")
	doRequest(r, "1.2.3.4")
	w := doRequest(r, "1.2.3.4")

	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", w.Code)
	}
	if got := w.Header().Get("X-RateLimit-Remaining"); got != "0" {
		t.Fatalf("expected remaining header 0, got %q", got)
	}
	retryHeader := w.Header().Get("Retry-After")
	retrySecs, errParse := strconv.Atoi(retryHeader)
	if errParse != nil || retrySecs < 1 || retrySecs > 60 {
		t.Fatalf("expected Retry-After in [1,60], got %q", retryHeader)
	}

	var body struct {
		Success bool `json:"success"`
		Error   struct {
			Code       string `json:"code"`
			Message    string `json:"message"`
			RetryAfter int    `json:"retryAfter"`
		} `json:"error"`
	}
	if errDecode := json.Unmarshal(w.Body.Bytes(), &body); errDecode != nil {
		t.Fatalf("decode body: %v", errDecode)
	}
	if body.Success {
		t.Fatalf("denied body must have success=false")
	}
	if body.Error.Code != ExceededCode {
		t.Fatalf("expected code %q, got %q", ExceededCode, body.Error.Code)
	}
	if body.Error.Message == "" {
		t.Fatalf("expected human message")
	}
	if body.Error.RetryAfter != retrySecs {
		t.Fatalf("body retryAfter %d disagrees with header %d", body.Error.RetryAfter, retrySecs)
	}
}

func TestWithRateLimitFailsOpenOnBackendError(t *testing.T) {
	lis, errListen := net.Listen("tcp", "127.0.0.1:0")
	if errListen != nil {
		t.Fatalf("reserve port: %v", errListen)
	}
	addr := lis.Addr().String()
	_ = lis.Close()

	m := ratelimit.NewManager(func() ratelimit.SettingsConfig {
		return ratelimit.SettingsConfig{URL: "redis://" + addr, Token: "secret"}
	}, nil, nil)
	cfg := ratelimit.Config{MaxRequests: 1, Window: time.Minute, Namespace: "rl:test"}
	r := newTestRouter(m, cfg)

	// Two requests against a limit of one: an errored check must pass both
	// through and must not advertise rate limit state it does not have.
	for i := 0; i < 2; i++ {
		w := doRequest(r, "1.2.3.4")
		if w.Code != http.StatusOK {
			t.Fatalf("request %d: expected pass-through, got %d", i+1, w.Code)
		}
		if got := w.Header().Get("X-RateLimit-Limit"); got != "" {
			t.Fatalf("request %d: errored check must not set headers, got %q", i+1, got)
		}
		if got := w.Header().Get("Retry-After"); got != "" {
			t.Fatalf("request %d: errored check must not set Retry-After, got %q", i+1, got)
		}
	}
}

func TestWithRateLimitIsolatesCallers(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cfg := ratelimit.Config{MaxRequests: 1, Window: time.Minute, Namespace: "rl:test"}
	r := newTestRouter(localManager(now), cfg)

	if w := doRequest(r, "1.2.3.4"); w.Code != http.StatusOK {
		t.Fatalf("caller A first request: %d", w.Code)
	}
	if w := doRequest(r, "1.2.3.4"); w.Code != http.StatusTooManyRequests {
		t.Fatalf("caller A second request: %d", w.Code)
	}
	if w := doRequest(r, "5.6.7.8"); w.Code != http.StatusOK {
		t.Fatalf("caller B must be unaffected: %d", w.Code)
	}
}
