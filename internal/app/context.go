package app

import (
	"log/slog"

	"gorm.io/gorm"

	"github.com/beemapp/beem-server/internal/cache"
	"github.com/beemapp/beem-server/internal/config"
	"github.com/beemapp/beem-server/internal/transport"
)

// AppContext holds shared dependencies (DB, Redis, Logger, Transport, config).
type AppContext struct {
	Cfg        *config.Config
	DB         *gorm.DB
	RedisCache *cache.RedisCache
	Logger     *slog.Logger
	Transport  transport.Transport
}

// New creates a new AppContext
func New(cfg *config.Config, db *gorm.DB, rdb *cache.RedisCache, logger *slog.Logger, tr transport.Transport) *AppContext {
	return &AppContext{
		Cfg:        cfg,
		DB:         db,
		RedisCache: rdb,
		Logger:     logger,
		Transport:  tr,
	}
}
