package search

import "github.com/gin-gonic/gin"

// RegisterRoutes registers search routes under the authenticated group.
func RegisterRoutes(r *gin.RouterGroup, h *Handler) {
	r.POST("/prompt", h.Prompt)
}
