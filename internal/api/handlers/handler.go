package handlers

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/dongurihub/uploadhub/internal/configuration"
	"github.com/dongurihub/uploadhub/internal/index"
	"github.com/dongurihub/uploadhub/internal/upload"
	"github.com/dongurihub/uploadhub/internal/webutil"
)

// Handler carries the uploader surface's collaborators.
type Handler struct {
	Config   *configuration.Config
	Index    *index.Store
	Pipeline *upload.Pipeline
}

func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// AssetsDir returns the static asset directory when it exists.
func (h *Handler) AssetsDir() string {
	dir := filepath.Join(h.Config.WebsiteDir, "assets")
	if info, err := os.Stat(dir); err == nil && info.IsDir() {
		return dir
	}
	return ""
}

// UploadPage serves the upload form.
func (h *Handler) UploadPage(c *gin.Context) {
	page := filepath.Join(h.Config.WebsiteDir, "upload.html")
	if _, err := os.Stat(page); err != nil {
		c.String(http.StatusNotFound, "upload.html not found")
		return
	}
	c.File(page)
}

// fileNotFound renders the friendly 404 page when the template exists,
// else a plain-text fallback.
func (h *Handler) fileNotFound(c *gin.Context) {
	page, err := webutil.RenderPage(
		filepath.Join(h.Config.WebsiteDir, "listing_not_found.html"),
		map[string]string{"LISTING_URL": h.Config.ListingHomeURL},
	)
	if err != nil {
		c.String(http.StatusNotFound, "file not found")
		return
	}
	c.Data(http.StatusNotFound, "text/html; charset=utf-8", []byte(page))
}
