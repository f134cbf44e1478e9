package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campushub/booking-core/internal/auth"
	"github.com/campushub/booking-core/internal/pkg/request"
	"github.com/campushub/booking-core/internal/pkg/response"
	"github.com/campushub/booking-core/internal/resource"
)

type Handler struct {
	service resource.Service
}

func NewHandler(service resource.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) List(c *gin.Context) {
	var req ListResourcesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, "invalid query parameters", err)
		return
	}
	req.Normalize()

	filter := resource.Filter{
		Category:    req.Category,
		Status:      req.Status,
		Search:      req.Search,
		MinCapacity: req.MinCapacity,
		Page:        req.Page,
		PageSize:    req.PageSize,
		SortBy:      req.SortBy,
		SortOrder:   req.SortOrder,
	}

	resources, total, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]ResourceResponse, len(resources))
	for i, r := range resources {
		items[i] = NewResponse(r)
	}
	c.JSON(http.StatusOK, response.NewPageResponse(items, req.Page, req.PageSize, total))
}

func (h *Handler) Create(c *gin.Context) {
	actor, _ := auth.GetActor(c)

	var body CreateRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request body", err)
		return
	}

	res, err := h.service.Create(c.Request.Context(), actor, resource.CreateRequest{
		Name:        body.Name,
		Description: body.Description,
		Category:    body.Category,
		Location:    body.Location,
		Capacity:    body.Capacity,
		HourlyRate:  body.HourlyRate,
		Status:      resource.Status(body.Status),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, NewResponse(res))
}

func (h *Handler) Get(c *gin.Context) {
	var req request.ByIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		response.BadRequest(c, "invalid request", err)
		return
	}

	res, err := h.service.GetByID(c.Request.Context(), req.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, NewResponse(res))
}

func (h *Handler) Update(c *gin.Context) {
	actor, _ := auth.GetActor(c)

	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid request", err)
		return
	}

	var body UpdateRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request body", err)
		return
	}

	req := resource.UpdateRequest{
		Name:        body.Name,
		Description: body.Description,
		Category:    body.Category,
		Location:    body.Location,
		Capacity:    body.Capacity,
		HourlyRate:  body.HourlyRate,
	}
	if body.Status != nil {
		st := resource.Status(*body.Status)
		req.Status = &st
	}

	res, err := h.service.Update(c.Request.Context(), actor, uri.ID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, NewResponse(res))
}

func (h *Handler) Delete(c *gin.Context) {
	actor, _ := auth.GetActor(c)

	var req request.ByIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		response.BadRequest(c, "invalid request", err)
		return
	}

	if err := h.service.Delete(c.Request.Context(), actor, req.ID); err != nil {
		response.Error(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
