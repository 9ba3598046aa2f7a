package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dongurihub/uploadhub/internal/quota"
	"github.com/dongurihub/uploadhub/internal/webutil"
)

// UploadFile streams the multipart "file" field to disk, enforcing the
// per-IP quota before and during the write. The body never buffers in
// memory: the multipart part is handed straight to the pipeline.
func (h *Handler) UploadFile(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.Config.MaxUploadBytes)

	reader, err := c.Request.MultipartReader()
	if err != nil {
		h.uploadError(c, err)
		return
	}
	part, err := reader.NextPart()
	if err != nil || part.FormName() != "file" {
		if part != nil {
			part.Close()
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing file field"})
		return
	}
	defer part.Close()

	clientIP := webutil.ClientIP(c.Request)
	result, err := h.Pipeline.Store(c.Request.Context(), part, part.FileName(), clientIP)
	if err != nil {
		var qerr *quota.Error
		switch {
		case errors.As(err, &qerr):
			c.JSON(http.StatusBadRequest, gin.H{
				"error":     "同じIPからアップロードできる容量の上限を超えています。",
				"limit":     webutil.HumanSize(qerr.Limit),
				"used":      webutil.HumanSize(qerr.Used),
				"remaining": webutil.HumanSize(qerr.Remaining),
			})
		case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
			// Client went away; the partial file is already gone and
			// there is nobody left to answer.
			c.Abort()
		default:
			h.uploadError(c, err)
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"url":   webutil.FileURL(h.Config.ExternalURL, c.Request, result.Token),
		"token": result.Token,
	})
}

// uploadError maps body-limit breaches onto the same human-readable
// shape as quota errors; everything else becomes a logged 500.
func (h *Handler) uploadError(c *gin.Context, err error) {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{
			"error": "ファイルサイズが大きすぎます。上限: " + webutil.HumanSize(maxErr.Limit),
		})
		return
	}
	log.Printf("upload failed: %v", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
