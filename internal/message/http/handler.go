package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campushub/booking-core/internal/auth"
	"github.com/campushub/booking-core/internal/message"
	"github.com/campushub/booking-core/internal/pkg/request"
	"github.com/campushub/booking-core/internal/pkg/response"
)

type Handler struct {
	service *message.Service
}

func NewHandler(service *message.Service) *Handler {
	return &Handler{service: service}
}

func toResponses(msgs []*message.Message, viewerID string) []MessageResponse {
	items := make([]MessageResponse, len(msgs))
	for i, m := range msgs {
		items[i] = NewMessageResponse(m, viewerID)
	}
	return items
}

func (h *Handler) Send(c *gin.Context) {
	actor, _ := auth.GetActor(c)

	var body SendMessageRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request body", err)
		return
	}

	m, err := h.service.Send(c.Request.Context(), actor, message.SendRequest{
		ReceiverID: body.ReceiverID,
		Content:    body.Content,
		BookingID:  body.BookingID,
		ResourceID: body.ResourceID,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, NewMessageResponse(m, actor.ID))
}

// ListThreads is the caller's inbox, one row per conversation.
func (h *Handler) ListThreads(c *gin.Context) {
	actor, _ := auth.GetActor(c)

	var params request.ListParams
	if err := c.ShouldBindQuery(&params); err != nil {
		response.BadRequest(c, "invalid query parameters", err)
		return
	}
	params.Normalize()

	threads, total, err := h.service.ListThreads(c.Request.Context(), actor, params.Page, params.PageSize)
	if err != nil {
		response.Error(c, err)
		return
	}
	items := make([]ThreadResponse, len(threads))
	for i, t := range threads {
		items[i] = NewThreadResponse(t)
	}
	c.JSON(http.StatusOK, response.NewPageResponse(items, params.Page, params.PageSize, total))
}

func (h *Handler) Thread(c *gin.Context) {
	actor, _ := auth.GetActor(c)

	var uri ThreadURI
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid request", err)
		return
	}
	var params request.ListParams
	if err := c.ShouldBindQuery(&params); err != nil {
		response.BadRequest(c, "invalid query parameters", err)
		return
	}
	params.Normalize()

	msgs, total, err := h.service.Thread(c.Request.Context(), actor, uri.ThreadID, params.Page, params.PageSize)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, response.NewPageResponse(toResponses(msgs, actor.ID), params.Page, params.PageSize, total))
}

func (h *Handler) MarkThreadRead(c *gin.Context) {
	actor, _ := auth.GetActor(c)

	var uri ThreadURI
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid request", err)
		return
	}

	n, err := h.service.MarkThreadRead(c.Request.Context(), actor, uri.ThreadID)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, MarkThreadReadResponse{Updated: n})
}

func (h *Handler) MarkRead(c *gin.Context) {
	actor, _ := auth.GetActor(c)

	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid request", err)
		return
	}

	m, err := h.service.MarkRead(c.Request.Context(), actor, uri.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, NewMessageResponse(m, actor.ID))
}

func (h *Handler) UnreadCount(c *gin.Context) {
	actor, _ := auth.GetActor(c)

	n, err := h.service.UnreadCount(c.Request.Context(), actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, UnreadCountResponse{UnreadCount: n})
}

func (h *Handler) Search(c *gin.Context) {
	actor, _ := auth.GetActor(c)

	var req SearchRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, "invalid query parameters", err)
		return
	}

	msgs, err := h.service.Search(c.Request.Context(), actor, req.Query, req.Limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, toResponses(msgs, actor.ID))
}

func (h *Handler) Delete(c *gin.Context) {
	actor, _ := auth.GetActor(c)

	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid request", err)
		return
	}

	if err := h.service.Delete(c.Request.Context(), actor, uri.ID); err != nil {
		response.Error(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
