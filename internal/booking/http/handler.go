package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/campushub/booking-core/internal/auth"
	"github.com/campushub/booking-core/internal/booking"
	"github.com/campushub/booking-core/internal/pkg/request"
	"github.com/campushub/booking-core/internal/pkg/response"
)

type Handler struct {
	service booking.Service
}

func NewHandler(service booking.Service) *Handler {
	return &Handler{service: service}
}

func actorOrAbort(c *gin.Context) (auth.Actor, bool) {
	actor, ok := auth.GetActor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
	}
	return actor, ok
}

func bindID(c *gin.Context) (string, bool) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid booking id", err)
		return "", false
	}
	return uri.ID, true
}

func (h *Handler) List(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	var req ListBookingsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, "invalid query parameters", err)
		return
	}
	if err := req.Validate(); err != nil {
		response.Error(c, err)
		return
	}
	req.Normalize()

	filter := booking.Filter{
		RequesterID: req.RequesterID,
		ResourceID:  req.ResourceID,
		Status:      req.Status,
		StartTime:   req.StartTimeFrom,
		EndTime:     req.StartTimeTo,
		Page:        req.Page,
		PageSize:    req.PageSize,
		SortBy:      req.SortBy,
		SortOrder:   req.SortOrder,
	}

	bookings, total, err := h.service.List(c.Request.Context(), actor, filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]BookingResponse, len(bookings))
	for i, b := range bookings {
		items[i] = NewBookingResponse(b)
	}
	c.JSON(http.StatusOK, response.NewPageResponse(items, req.Page, req.PageSize, total))
}

func (h *Handler) Get(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	id, ok := bindID(c)
	if !ok {
		return
	}

	b, err := h.service.GetByID(c.Request.Context(), actor, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, NewBookingResponse(b))
}

func (h *Handler) Create(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	var body CreateBookingRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request body", err)
		return
	}

	b, err := h.service.Create(c.Request.Context(), actor, booking.CreateRequest{
		ResourceID:     body.ResourceID,
		StartTime:      body.StartTime,
		EndTime:        body.EndTime,
		Purpose:        body.Purpose,
		AttendeesCount: body.AttendeesCount,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, NewBookingResponse(b))
}

func (h *Handler) Reschedule(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	id, ok := bindID(c)
	if !ok {
		return
	}

	var body RescheduleBookingRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request body", err)
		return
	}

	b, err := h.service.Reschedule(c.Request.Context(), actor, id, booking.RescheduleRequest{
		StartTime:      body.StartTime,
		EndTime:        body.EndTime,
		AttendeesCount: body.AttendeesCount,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, NewBookingResponse(b))
}

func (h *Handler) Cancel(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	id, ok := bindID(c)
	if !ok {
		return
	}

	var body CancelBookingRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			response.BadRequest(c, "invalid request body", err)
			return
		}
	}

	b, err := h.service.Cancel(c.Request.Context(), actor, id, body.Reason)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, NewBookingResponse(b))
}

func (h *Handler) Confirm(c *gin.Context) {
	h.simpleTransition(c, h.service.Confirm)
}

func (h *Handler) Complete(c *gin.Context) {
	h.simpleTransition(c, h.service.Complete)
}

func (h *Handler) simpleTransition(c *gin.Context, fn func(ctx context.Context, actor auth.Actor, id string) (*booking.Booking, error)) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	id, ok := bindID(c)
	if !ok {
		return
	}

	b, err := fn(c.Request.Context(), actor, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, NewBookingResponse(b))
}

func (h *Handler) Availability(c *gin.Context) {
	var req AvailabilityRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, "invalid query parameters", err)
		return
	}

	day, err := time.Parse(time.DateOnly, req.Date)
	if err != nil {
		response.BadRequest(c, "invalid date", err)
		return
	}

	slots, err := h.service.Availability(c.Request.Context(), req.ResourceID, day, req.Open, req.Close)
	if err != nil {
		response.Error(c, err)
		return
	}
	if slots == nil {
		slots = []booking.TimeSlot{}
	}
	c.JSON(http.StatusOK, AvailabilityResponse{ResourceID: req.ResourceID, Date: req.Date, Slots: slots})
}
