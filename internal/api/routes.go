package api

import (
	"github.com/arourke/paleofed/internal/api/handlers"
	"github.com/arourke/paleofed/internal/api/middleware"
	"github.com/arourke/paleofed/internal/config"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/arourke/paleofed/internal/api/docs" // swagger docs
)

// RegisterRoutes mounts every paleofed endpoint on r: the two composite
// query endpoints at the root (§6/§7 deliberately outside /api/v1, mirroring
// how the upstream sources themselves expose occs/list and occs/single),
// the read-only declaration endpoints, and operational health/stats.
func RegisterRoutes(r *gin.Engine, h *handlers.Handler, cfg *config.Config) {
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	r.GET("/occs/list.:fmt", h.OccurrenceList)
	r.GET("/occs/single.:fmt", h.OccurrenceSingle)

	api := r.Group("/api/v1")

	if cfg != nil && cfg.API.APIKey != "" {
		api.Use(middleware.RequireAPIKey(cfg.API.APIKey))
	}

	api.GET("/health", h.Health)
	api.GET("/stats", h.Stats)

	api.GET("/vocab/:vocab", h.GetVocabTerms)
	api.GET("/timerules", h.GetTimeRules)
	api.GET("/output-blocks", h.GetOutputBlocks)
}
