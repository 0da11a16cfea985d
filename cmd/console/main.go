// Command console runs the CarryIT Rentals console gateway: it owns the
// operator's session lifecycle against the property-management API and
// serves the guarded owner, admin, and agent console areas.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tobiusaolo/Carryitrentals-sub000/internal/api"
	"github.com/tobiusaolo/Carryitrentals-sub000/internal/core/ports"
	"github.com/tobiusaolo/Carryitrentals-sub000/internal/core/service"
	"github.com/tobiusaolo/Carryitrentals-sub000/internal/infrastructure/authapi"
	"github.com/tobiusaolo/Carryitrentals-sub000/internal/infrastructure/config"
	filestore "github.com/tobiusaolo/Carryitrentals-sub000/internal/infrastructure/store/file"
	redisstore "github.com/tobiusaolo/Carryitrentals-sub000/internal/infrastructure/store/redis"
	"github.com/tobiusaolo/Carryitrentals-sub000/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg := config.Load()
	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.Env == "development",
	})

	ctx := context.Background()

	// --- Credential store ---
	var store ports.CredentialStore
	switch cfg.Store.Backend {
	case "redis":
		client, err := redisstore.Connect(ctx, redisstore.Config{
			Addr: cfg.Redis.Addr,
			DB:   cfg.Redis.DB,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("redis credential store unavailable")
		}
		defer func() { _ = client.Close() }()
		store = redisstore.NewStore(client)
	default:
		fs, err := filestore.NewStore(cfg.Store.Path)
		if err != nil {
			log.Fatal().Err(err).Msg("file credential store unavailable")
		}
		store = fs
	}

	// --- Session subsystem: upstream client → service → state container ---
	upstream := authapi.NewClient(cfg.Upstream.BaseURL, cfg.Upstream.Timeout, logger.Component("authapi"))
	svc := service.NewSessionService(upstream, store, cfg.Session.TokenLeeway, logger.Component("session"))
	sess := service.NewSession(svc, store, logger.Component("session"))

	e, err := api.NewRouter(api.Dependencies{
		Session:  sess,
		Store:    store,
		Upstream: upstream,
		Config:   cfg,
		Logger:   logger.Component("http"),
	})
	if err != nil {
		log.Fatal().Err(err).Msg("router setup failed")
	}

	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server stopped")
		}
	}()
	log.Info().Str("port", cfg.Port).Str("upstream", cfg.Upstream.BaseURL).Msg("console gateway listening")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
