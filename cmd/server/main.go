package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/beemapp/beem-server/internal/app"
	"github.com/beemapp/beem-server/internal/cache"
	"github.com/beemapp/beem-server/internal/config"
	"github.com/beemapp/beem-server/internal/db"
	"github.com/beemapp/beem-server/internal/logger"
	"github.com/beemapp/beem-server/internal/server"
	"github.com/beemapp/beem-server/internal/transport"
)

func main() {
	cfg := config.New()

	// Init logger (global singleton)
	logger.InitFromConfig(cfg)
	log := logger.L()

	// Init DB
	database, err := db.NewDB(cfg)
	if err != nil {
		log.Error("failed to init db", "err", err)
		return
	}

	// Init Redis
	redisCache := cache.NewRedisCache(cfg)
	if err := redisCache.Ping(context.Background()); err != nil {
		log.Error("failed to connect to redis", "err", err)
		return
	}

	if cfg.App.ENV == "development" {
		if err := db.SeedTestData(database); err != nil {
			log.Error("failed to seed", "err", err)
		}
	}

	appCtx := app.New(cfg, database, redisCache, log, transport.NewLogTransport(log))

	srv, err := server.NewServer(appCtx)
	if err != nil {
		log.Error("failed to build server", "err", err)
		return
	}

	go func() {
		if err := srv.Run(); err != nil {
			log.Error("http server failed", "err", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("shutdown failed", "err", err)
	}
}
