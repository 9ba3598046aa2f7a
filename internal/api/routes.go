package api

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dongurihub/uploadhub/internal/api/handlers"
)

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(200)
			return
		}
		c.Next()
	}
}

// recoveryMiddleware converts panics into a JSON 500. The raw value is
// logged server-side only; clients get the message without a stack.
func recoveryMiddleware() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		log.Printf("panic recovered: %v", recovered)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprint(recovered)})
	})
}

// RegisterRoutes wires the uploader surface onto r.
func RegisterRoutes(r *gin.Engine, h *handlers.Handler) {
	r.Use(corsMiddleware())
	r.Use(recoveryMiddleware())

	r.GET("/", h.UploadPage)
	r.GET("/files/:token", h.GetFile)

	api := r.Group("/api")
	{
		api.GET("/health", handlers.HealthCheck)
		api.POST("/upload", h.UploadFile)
		api.GET("/files", h.ListFiles)
		api.GET("/file/:token", h.GetFileInfo)
		api.DELETE("/delete/:token", h.DeleteFile)
	}

	if assets := h.AssetsDir(); assets != "" {
		r.Static("/assets", assets)
	}
}
