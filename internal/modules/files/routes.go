package files

import "github.com/gin-gonic/gin"

// RegisterRoutes registers file routes under the authenticated group.
func RegisterRoutes(r *gin.RouterGroup, h *Handler) {
	r.POST("/upload", h.Upload)
	r.GET("/files", h.List)
	r.GET("/storage", h.Storage)
}
