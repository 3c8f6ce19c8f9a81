package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/beemapp/beem-server/internal/app"
	"github.com/beemapp/beem-server/internal/logger"
	"github.com/beemapp/beem-server/internal/service/engagement"
	"github.com/beemapp/beem-server/internal/service/matching"
	"github.com/beemapp/beem-server/internal/service/moderation"
	"github.com/beemapp/beem-server/internal/service/profiles"
	"github.com/beemapp/beem-server/internal/service/relay"
)

// Server is the HTTP surface: the user-facing API consumed by transport
// adapters and the token-guarded moderator routes.
type Server struct {
	appCtx *app.AppContext
	engine *gin.Engine
	http   *http.Server
	auth   *auth

	profiles   *profiles.Service
	matching   *matching.Service
	engagement *engagement.Service
	relay      *relay.Service
	moderation *moderation.Service
}

func NewServer(appCtx *app.AppContext) (*Server, error) {
	if appCtx.Cfg.App.ENV == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	a, err := newAuth(appCtx.Cfg)
	if err != nil {
		return nil, err
	}

	ledger := moderation.NewService(appCtx)
	s := &Server{
		appCtx:     appCtx,
		engine:     gin.New(),
		auth:       a,
		profiles:   profiles.NewService(appCtx, ledger),
		matching:   matching.NewService(appCtx, ledger),
		engagement: engagement.NewService(appCtx),
		relay:      relay.NewService(appCtx, ledger),
		moderation: ledger,
	}
	s.engine.Use(gin.Recovery(), requestLogger())
	s.registerAPIRoutes()
	s.registerAdminRoutes()

	s.http = &http.Server{
		Addr:    fmt.Sprintf("%s:%s", appCtx.Cfg.HTTP.Host, appCtx.Cfg.HTTP.Port),
		Handler: s.engine,
	}
	return s, nil
}

// Engine exposes the router, mainly for httptest.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) Run() error {
	s.appCtx.Logger.Info("http server listening", "addr", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

// requestLogger emits one structured line per request.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start).String(),
		)
	}
}
