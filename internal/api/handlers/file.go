package handlers

import (
	"html"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/dongurihub/uploadhub/internal/preview"
	"github.com/dongurihub/uploadhub/internal/webutil"
)

// GetFile serves the landing page, raw bytes or the social-preview
// document for one stored file, depending on the query parameters.
func (h *Handler) GetFile(c *gin.Context) {
	token := c.Param("token")
	rec, ok := h.Index.Get(token)
	if !ok {
		h.fileNotFound(c)
		return
	}
	path := filepath.Join(h.Config.UploadDir, rec.SavedName)
	if _, err := os.Stat(path); err != nil {
		// Indexed but gone from disk is still "not found", never an error.
		h.fileNotFound(c)
		return
	}

	baseURL := webutil.FileURL(h.Config.ExternalURL, c.Request, token)

	if raw, ok := c.GetQuery("raw"); ok {
		if raw != "inline" {
			c.Header("Content-Disposition", `attachment; filename="`+rec.Filename+`"`)
		}
		c.File(path)
		return
	}

	if c.Query("preview") == "1" {
		page, err := webutil.RenderPage(
			filepath.Join(h.Config.WebsiteDir, "preview.html"),
			map[string]string{
				"TITLE":       html.EscapeString(rec.Filename),
				"DESCRIPTION": "ファイルサイズ: " + webutil.HumanSize(rec.Size),
				"URL":         baseURL,
				"IMAGE_URL":   baseURL + "?raw=inline",
				"TOKEN":       token,
			},
		)
		if err != nil {
			c.String(http.StatusInternalServerError, "preview template missing")
			return
		}
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(page))
		return
	}

	downloadPage := filepath.Join(h.Config.WebsiteDir, "download.html")
	if _, err := os.Stat(downloadPage); err == nil {
		c.File(downloadPage)
		return
	}
	c.String(http.StatusNotFound, "download page not found")
}

// GetFileInfo returns the JSON metadata and preview payload for a token.
func (h *Handler) GetFileInfo(c *gin.Context) {
	token := c.Param("token")
	rec, ok := h.Index.Get(token)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	path := filepath.Join(h.Config.UploadDir, rec.SavedName)
	if _, err := os.Stat(path); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "file missing"})
		return
	}

	baseURL := webutil.FileURL(h.Config.ExternalURL, c.Request, token)
	mimeType := preview.Sniff(path, rec.Filename)

	c.JSON(http.StatusOK, gin.H{
		"token":         token,
		"filename":      rec.Filename,
		"size":          rec.Size,
		"size_readable": webutil.HumanSize(rec.Size),
		"timestamp":     rec.Timestamp,
		"uploaded_at":   webutil.FormatTimestamp(rec.Timestamp),
		"mime_type":     mimeType,
		"download_url":  baseURL + "?raw=1",
		"inline_url":    baseURL + "?raw=inline",
		"base_url":      baseURL,
		"preview":       preview.Classify(path, rec.Filename, mimeType),
	})
}

// ListFiles returns only the records uploaded from the caller's address.
func (h *Handler) ListFiles(c *gin.Context) {
	clientIP := webutil.ClientIP(c.Request)
	items := make([]gin.H, 0)
	for token, rec := range h.Index.Snapshot() {
		if rec.IP != clientIP {
			continue
		}
		items = append(items, gin.H{
			"token":     token,
			"filename":  rec.Filename,
			"size":      rec.Size,
			"timestamp": rec.Timestamp,
			"url":       webutil.FileURL(h.Config.ExternalURL, c.Request, token),
		})
	}
	c.JSON(http.StatusOK, items)
}

// DeleteFile removes a stored file and its index entry. Only the address
// that uploaded a file may delete it; anyone who controls the forwarded
// header can claim that address, which is the accepted trust model here.
func (h *Handler) DeleteFile(c *gin.Context) {
	token := c.Param("token")
	rec, ok := h.Index.Get(token)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "file not found"})
		return
	}
	if rec.IP != webutil.ClientIP(c.Request) {
		c.JSON(http.StatusForbidden, gin.H{"error": "not allowed"})
		return
	}

	path := filepath.Join(h.Config.UploadDir, rec.SavedName)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete file: " + err.Error()})
		return
	}
	if _, err := h.Index.Delete(token); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update index"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
