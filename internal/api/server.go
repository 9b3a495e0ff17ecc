// Package api provides the HTTP surface for paleofed: the composite query
// endpoints, read-only configuration declaration endpoints, and health/stats
// reporting, all served via a Gin-based HTTP server.
package api

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/arourke/paleofed/internal/api/handlers"
	"github.com/arourke/paleofed/internal/api/middleware"
	"github.com/arourke/paleofed/internal/config"
	"github.com/arourke/paleofed/internal/configstore"
	"github.com/gin-gonic/gin"
)

// Server is the paleofed gateway's HTTP server.
type Server struct {
	cfg        *config.Config
	logger     *slog.Logger
	engine     *gin.Engine
	httpServer *http.Server
}

// New builds the gateway's Gin engine and wraps it in an http.Server bound
// to cfg.API.Host/Port. store is the configstore handle backing the
// declaration endpoints; client is the outbound HTTP client every
// composite driver built by an occurrence handler reuses.
func New(cfg *config.Config, logger *slog.Logger, store *configstore.DB, client *http.Client) *Server {
	if cfg == nil {
		panic("api.New: cfg is nil")
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.CorrelationID())
	engine.Use(middleware.SlogRequestLogger(logger))

	h := handlers.New(cfg, logger, store, client)
	RegisterRoutes(engine, h, cfg)
	mountStatusPage(engine, logger)

	addr := net.JoinHostPort(cfg.API.Host, strconv.Itoa(cfg.API.Port))
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           engine,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return &Server{cfg: cfg, logger: logger, engine: engine, httpServer: httpServer}
}

func (s *Server) Addr() string {
	if s.httpServer == nil {
		return ""
	}
	return s.httpServer.Addr
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
