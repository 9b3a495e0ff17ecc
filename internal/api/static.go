package api

import (
	"embed"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-contrib/static"
	"github.com/gin-gonic/gin"
)

// Embedded status page, in place of the teacher's full Angular SPA bundle
// (internal/api/dist/): this gateway has no front-end build of its own, just
// a small hand-written page linking the health/stats/declaration endpoints.
//
//go:embed static/assets/*
var embeddedAssets embed.FS

func getAssetsFS() static.ServeFileSystem {
	fs, err := static.EmbedFolder(embeddedAssets, "static/assets")
	if err != nil {
		panic("failed to get embedded status page filesystem: " + err.Error())
	}
	return fs
}

// mountStatusPage serves the embedded status page at / and falls back to
// it for any non-API route, mirroring MountSPA's history-mode fallback.
func mountStatusPage(r *gin.Engine, logger *slog.Logger) {
	assetsFS := getAssetsFS()
	r.Use(static.Serve("/", assetsFS))

	r.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.RequestURI, "/api") || strings.HasPrefix(c.Request.RequestURI, "/occs") {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		index, err := assetsFS.Open("index.html")
		if err != nil {
			if logger != nil {
				logger.Error("failed to open index.html", "error", err)
			}
			c.Status(http.StatusNotFound)
			return
		}
		defer index.Close()
		stat, _ := index.Stat()
		http.ServeContent(c.Writer, c.Request, "index.html", stat.ModTime(), index)
	})
}
