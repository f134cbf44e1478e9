package http

import (
	"github.com/gin-gonic/gin"

	"github.com/campushub/booking-core/internal/auth"
)

// RegisterRoutes mounts the booking endpoints. mutationLimit throttles
// writes per actor and may be nil.
func RegisterRoutes(g *gin.RouterGroup, h *Handler, authMiddleware gin.HandlerFunc, mutationLimit gin.HandlerFunc) {
	group := g.Group("/bookings")

	// === Authenticated Routes ===
	group.Use(authMiddleware)
	{
		group.GET("", h.List)
		group.GET("/availability", h.Availability)
		group.GET("/:id", h.Get)
	}

	writes := group.Group("")
	if mutationLimit != nil {
		writes.Use(mutationLimit)
	}
	{
		writes.POST("", h.Create)
		writes.PATCH("/:id", h.Reschedule)
		writes.POST("/:id/cancel", h.Cancel)
	}

	// === Staff Routes ===
	staff := writes.Group("", auth.RequireRole(auth.RoleStaff))
	{
		staff.POST("/:id/confirm", h.Confirm)
		staff.POST("/:id/complete", h.Complete)
	}
}
