package http

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers resource-related routes. Role checks happen in
// the service so denials carry the structured permission error.
func RegisterRoutes(g *gin.RouterGroup, h *Handler, authMiddleware gin.HandlerFunc) {
	group := g.Group("/resources")

	// === Public Routes ===
	group.GET("", h.List)    // List resources
	group.GET("/:id", h.Get) // Get resource details

	// === Authenticated Routes ===
	authed := group.Group("", authMiddleware)
	{
		authed.POST("", h.Create)       // Create resource (staff)
		authed.PATCH("/:id", h.Update)  // Update resource (staff)
		authed.DELETE("/:id", h.Delete) // Archive resource (admin)
	}
}
