package handlers_test

import (
	"path/filepath"
	"testing"

	"github.com/arourke/paleofed/internal/api/handlers"
	"github.com/arourke/paleofed/internal/config"
	"github.com/arourke/paleofed/internal/configstore"
	"github.com/gin-gonic/gin"
)

func newTestHandler(t *testing.T) *handlers.Handler {
	t.Helper()
	cfg := &config.Config{}
	cfg.Upstream.PaleobioBaseURL = "https://paleo.example"
	cfg.Upstream.QuaternaryBaseURL = "https://quat.example"
	cfg.Upstream.TimeoutSeconds = 5
	cfg.Upstream.MaxRetries = 1

	store, err := configstore.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("configstore.Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	return handlers.New(cfg, nil, store, nil)
}

func setupTestRouter(h *handlers.Handler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	api := r.Group("/api/v1")
	api.GET("/health", h.Health)
	api.GET("/stats", h.Stats)
	api.GET("/vocab/:vocab", h.GetVocabTerms)
	api.GET("/timerules", h.GetTimeRules)
	api.GET("/output-blocks", h.GetOutputBlocks)
	r.GET("/occs/list.:fmt", h.OccurrenceList)
	r.GET("/occs/single.:fmt", h.OccurrenceSingle)

	return r
}
