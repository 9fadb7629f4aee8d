package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/gr8monk3ys/rategate/internal/config"
	"github.com/gr8monk3ys/rategate/internal/models"
	"github.com/gr8monk3ys/rategate/internal/security"
	internalsettings "github.com/gr8monk3ys/rategate/internal/settings"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, errOpen := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if errOpen != nil {
		t.Fatalf("open sqlite: %v", errOpen)
	}
	if errMigrate := conn.AutoMigrate(&models.Admin{}, &models.Setting{}); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}
	return conn
}

func seedAdmin(t *testing.T, conn *gorm.DB, username, password string) {
	t.Helper()
	hashed, errHash := security.HashPassword(password)
	if errHash != nil {
		t.Fatalf("hash: %v", errHash)
	}
	if errCreate := conn.Create(&models.Admin{Username: username, Password: hashed}).Error; errCreate != nil {
		t.Fatalf("seed admin: %v", errCreate)
	}
}

func performJSON(t *testing.T, r *gin.Engine, method, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	if payload != nil {
		if errEncode := json.NewEncoder(&body).Encode(payload); errEncode != nil {
			t.Fatalf("encode payload: %v", errEncode)
		}
	}
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestLogin(t *testing.T) {
	gin.SetMode(gin.TestMode)
	conn := newTestDB(t)
	seedAdmin(t, conn, "root", "hunter2")
	jwtCfg := config.JWTConfig{Secret: "secret", Expiry: time.Hour}

	r := gin.New()
	r.POST("/login", NewAuthHandler(conn, jwtCfg).Login)

	w := performJSON(t, r, http.MethodPost, "/login", gin.H{"username": "root", "password": "hunter2"})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		Token string `json:"token"`
	}
	if errDecode := json.Unmarshal(w.Body.Bytes(), &resp); errDecode != nil {
		t.Fatalf("decode: %v", errDecode)
	}
	claims, errParse := security.ParseAdminToken("secret", resp.Token)
	if errParse != nil {
		t.Fatalf("token should parse: %v", errParse)
	}
	if claims.AdminID == 0 {
		t.Fatalf("expected admin id in claims")
	}

	w = performJSON(t, r, http.MethodPost, "/login", gin.H{"username": "root", "password": "wrong"})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for wrong password, got %d", w.Code)
	}
	w = performJSON(t, r, http.MethodPost, "/login", gin.H{"username": "ghost", "password": "hunter2"})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for unknown admin, got %d", w.Code)
	}
}

func TestLimitList(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/rate-limits", NewLimitHandler().List)

	w := performJSON(t, r, http.MethodGet, "/rate-limits", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp struct {
		Data []struct {
			Name          string `json:"name"`
			MaxRequests   int    `json:"max_requests"`
			WindowSeconds int    `json:"window_seconds"`
			Namespace     string `json:"namespace"`
		} `json:"data"`
		Total int `json:"total"`
	}
	if errDecode := json.Unmarshal(w.Body.Bytes(), &resp); errDecode != nil {
		t.Fatalf("decode: %v", errDecode)
	}
	if resp.Total < 15 || len(resp.Data) != resp.Total {
		t.Fatalf("unexpected listing: total=%d rows=%d", resp.Total, len(resp.Data))
	}
	for _, row := range resp.Data {
		if row.MaxRequests <= 0 || row.WindowSeconds <= 0 || row.Namespace == "" {
			t.Fatalf("invalid row %+v", row)
		}
	}
}

func TestSettingGetMasksToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	t.Setenv(config.EnvRedisURL, "")
	t.Setenv(config.EnvRedisToken, "")
	t.Setenv(config.EnvRedisPrefix, "")

	store := internalsettings.NewStore(newTestDB(t))
	ctx := context.Background()
	if errSet := store.Set(ctx, internalsettings.RedisURLKey, "redis://localhost:6379"); errSet != nil {
		t.Fatalf("set url: %v", errSet)
	}
	if errSet := store.Set(ctx, internalsettings.RedisTokenKey, "super-secret-token"); errSet != nil {
		t.Fatalf("set token: %v", errSet)
	}

	r := gin.New()
	r.GET("/settings", NewSettingHandler(store).Get)

	w := performJSON(t, r, http.MethodGet, "/settings", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp struct {
		RedisURL   string `json:"redis_url"`
		RedisToken string `json:"redis_token"`
		Configured bool   `json:"configured"`
	}
	if errDecode := json.Unmarshal(w.Body.Bytes(), &resp); errDecode != nil {
		t.Fatalf("decode: %v", errDecode)
	}
	if !resp.Configured {
		t.Fatalf("expected configured backend")
	}
	if resp.RedisToken == "super-secret-token" {
		t.Fatalf("token must be masked")
	}
	if resp.RedisToken == "" {
		t.Fatalf("masked token should still indicate presence")
	}
}

func TestSettingUpdatePersists(t *testing.T) {
	gin.SetMode(gin.TestMode)
	t.Setenv(config.EnvRedisURL, "")
	t.Setenv(config.EnvRedisToken, "")
	t.Setenv(config.EnvRedisPrefix, "")

	store := internalsettings.NewStore(newTestDB(t))
	r := gin.New()
	r.PUT("/settings", NewSettingHandler(store).Update)

	w := performJSON(t, r, http.MethodPut, "/settings", gin.H{
		"redis_url":   "redis://localhost:6379",
		"redis_token": "tok",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		Configured bool `json:"configured"`
	}
	if errDecode := json.Unmarshal(w.Body.Bytes(), &resp); errDecode != nil {
		t.Fatalf("decode: %v", errDecode)
	}
	if !resp.Configured {
		t.Fatalf("expected configured after update")
	}
	raw, ok := store.Value(internalsettings.RedisURLKey)
	if !ok || string(raw) != `"redis://localhost:6379"` {
		t.Fatalf("expected persisted url, got %s/%v", raw, ok)
	}
}
