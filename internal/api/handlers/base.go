// Package handlers implements the REST API endpoint handlers for paleofed.
//
// @title paleofed Gateway API
// @version 1.0
// @description Federating HTTP gateway over paleobiology and Quaternary-fauna occurrence data.
//
// @contact.name paleofed
// @contact.url https://github.com/arourke/paleofed
//
// @license.name MIT
// @license.url https://opensource.org/licenses/MIT
//
// @host localhost:8080
// @BasePath /api/v1
//
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-Key
package handlers

import (
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/arourke/paleofed/internal/config"
	"github.com/arourke/paleofed/internal/configstore"
)

// Handler contains dependencies shared by every API endpoint.
type Handler struct {
	cfg       *config.Config
	logger    *slog.Logger
	store     *configstore.DB
	client    *http.Client
	startTime time.Time

	queriesTotal atomic.Int64
}

// New creates a new Handler with the given configuration, declaration
// store, and outbound HTTP client used to build composite drivers.
func New(cfg *config.Config, logger *slog.Logger, store *configstore.DB, client *http.Client) *Handler {
	return &Handler{
		cfg:       cfg,
		logger:    logger,
		store:     store,
		client:    client,
		startTime: time.Now(),
	}
}
