package http

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts the messaging endpoints. Every route needs an
// authenticated actor; thread access is decided in the service.
func RegisterRoutes(g *gin.RouterGroup, h *Handler, authMiddleware gin.HandlerFunc, mutationLimit gin.HandlerFunc) {
	group := g.Group("/messages", authMiddleware)
	{
		group.GET("", h.ListThreads)
		group.GET("/unread-count", h.UnreadCount)
		group.GET("/search", h.Search)
		group.GET("/threads/:thread_id", h.Thread)
		group.POST("/threads/:thread_id/read", h.MarkThreadRead)
		group.PATCH("/:id/read", h.MarkRead) // receiver only
		group.DELETE("/:id", h.Delete)       // sender or admin
	}

	writes := group.Group("")
	if mutationLimit != nil {
		writes.Use(mutationLimit)
	}
	writes.POST("", h.Send)
}
