package api

import (
	"github.com/gin-gonic/gin"
	"github.com/gr8monk3ys/rategate/internal/config"
	"github.com/gr8monk3ys/rategate/internal/http/api/handlers"
	"github.com/gr8monk3ys/rategate/internal/http/middleware"
	"github.com/gr8monk3ys/rategate/internal/ratelimit"
	internalsettings "github.com/gr8monk3ys/rategate/internal/settings"
	"gorm.io/gorm"
)

// RegisterRoutes registers routes, middleware, and handlers. The management
// surface runs behind its own budgets: login uses the tight "auth" class,
// everything else the "admin" class.
func RegisterRoutes(r *gin.Engine, db *gorm.DB, store *internalsettings.Store, manager *ratelimit.Manager, jwtCfg config.JWTConfig) {
	if r == nil || manager == nil {
		return
	}

	healthHandler := handlers.NewHealthHandler(db)
	r.GET("/healthz", healthHandler.Healthz)

	adminGroup := r.Group("/v0/admin")

	authCfg, _ := ratelimit.ConfigFor("auth")
	authHandler := handlers.NewAuthHandler(db, jwtCfg)
	adminGroup.POST("/login", middleware.WithRateLimit(manager, authCfg), authHandler.Login)

	adminCfg, _ := ratelimit.ConfigFor("admin")
	authed := adminGroup.Group("")
	authed.Use(middleware.WithRateLimit(manager, adminCfg))
	authed.Use(middleware.AdminAuth(db, jwtCfg))

	limitHandler := handlers.NewLimitHandler()
	authed.GET("/rate-limits", limitHandler.List)

	settingHandler := handlers.NewSettingHandler(store)
	authed.GET("/settings", settingHandler.Get)
	authed.PUT("/settings", settingHandler.Update)
}
