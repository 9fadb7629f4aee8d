package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gr8monk3ys/rategate/internal/config"
	"github.com/gr8monk3ys/rategate/internal/db"
	"github.com/gr8monk3ys/rategate/internal/http/api"
	"github.com/gr8monk3ys/rategate/internal/ratelimit"
	internalsettings "github.com/gr8monk3ys/rategate/internal/settings"
	log "github.com/sirupsen/logrus"
)

// RunServer boots the rate governor service: database, settings cache,
// limiter manager, and the HTTP surface. It blocks until ctx is canceled.
func RunServer(ctx context.Context, cfg config.AppConfig, port int) error {
	configPath := config.ResolveConfigPath(cfg.ConfigPath)
	dsn, errDSN := config.LoadDatabaseDSN(configPath)
	if errDSN != nil {
		return errDSN
	}
	conn, errOpen := db.Open(dsn)
	if errOpen != nil {
		return errOpen
	}
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		return errMigrate
	}
	log.WithField("dialect", db.DialectName(conn)).Info("database ready")

	store := internalsettings.NewStore(conn)
	if errLoad := store.Load(ctx); errLoad != nil {
		return errLoad
	}

	manager := ratelimit.NewManager(func() ratelimit.SettingsConfig {
		return ratelimit.LoadSettingsConfig(store)
	}, nil, nil)

	jwtCfg, _ := config.LoadJWTConfig(configPath)
	if jwtCfg.Secret == "" {
		log.Warn("jwt secret not configured, admin API is locked out")
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	api.RegisterRoutes(engine, conn, store, manager, jwtCfg)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: engine,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("port", port).Info("rate governor listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if errShutdown := srv.Shutdown(shutdownCtx); errShutdown != nil {
			return errShutdown
		}
		return nil
	case errServe := <-errCh:
		if errors.Is(errServe, http.ErrServerClosed) {
			return nil
		}
		return errServe
	}
}
