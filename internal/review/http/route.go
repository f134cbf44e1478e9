package http

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers review and moderation routes. Role checks happen
// in the service and gate so denials carry the structured permission error.
func RegisterRoutes(g *gin.RouterGroup, h *Handler, authMiddleware gin.HandlerFunc) {
	group := g.Group("/reviews")

	// === Public Routes ===
	group.GET("", h.List)
	group.GET("/summary", h.Summary)

	// === Authenticated Routes ===
	authed := group.Group("", authMiddleware)
	{
		authed.GET("/flagged", h.ListFlagged) // staff
		authed.GET("/:id", h.Get)             // hidden reviews: author or staff
		authed.POST("", h.Create)             // student and up
		authed.POST("/:id/flag", h.Flag)      // any authenticated actor
		authed.POST("/:id/hide", h.Hide)      // staff
		authed.POST("/:id/unhide", h.Unhide)  // staff
		authed.POST("/bulk/hide", h.BulkHide) // staff, per-item results
	}
}
