package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campushub/booking-core/internal/auth"
	"github.com/campushub/booking-core/internal/pkg/apperror"
	"github.com/campushub/booking-core/internal/pkg/request"
	"github.com/campushub/booking-core/internal/pkg/response"
	"github.com/campushub/booking-core/internal/review"
)

type Handler struct {
	service *review.Service
	gate    *review.Gate
}

func NewHandler(service *review.Service, gate *review.Gate) *Handler {
	return &Handler{service: service, gate: gate}
}

func toResponses(reviews []*review.Review) []ReviewResponse {
	items := make([]ReviewResponse, len(reviews))
	for i, r := range reviews {
		items[i] = NewReviewResponse(r)
	}
	return items
}

// List returns visible reviews; it is public.
func (h *Handler) List(c *gin.Context) {
	var req ListReviewsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, "invalid query parameters", err)
		return
	}
	req.Normalize()

	actor, _ := auth.GetActor(c)
	reviews, total, err := h.service.List(c.Request.Context(), actor, review.Filter{
		ResourceID: req.ResourceID,
		ReviewerID: req.ReviewerID,
		Page:       req.Page,
		PageSize:   req.PageSize,
		SortBy:     req.SortBy,
		SortOrder:  req.SortOrder,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, response.NewPageResponse(toResponses(reviews), req.Page, req.PageSize, total))
}

func (h *Handler) Summary(c *gin.Context) {
	var req SummaryRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, "invalid query parameters", err)
		return
	}

	s, err := h.service.Summary(c.Request.Context(), req.ResourceID)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, SummaryResponse{ResourceID: s.ResourceID, AverageRating: s.AverageRating, TotalReviews: s.Count})
}

func (h *Handler) Get(c *gin.Context) {
	var req request.ByIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		response.BadRequest(c, "invalid request", err)
		return
	}

	actor, _ := auth.GetActor(c)
	r, err := h.service.GetByID(c.Request.Context(), actor, req.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, NewReviewResponse(r))
}

func (h *Handler) Create(c *gin.Context) {
	actor, _ := auth.GetActor(c)

	var body CreateReviewRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request body", err)
		return
	}

	r, err := h.service.Create(c.Request.Context(), actor, review.CreateRequest{
		ResourceID: body.ResourceID,
		Rating:     body.Rating,
		Comment:    body.Comment,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, NewReviewResponse(r))
}

func (h *Handler) Flag(c *gin.Context) {
	h.moderate(c, func(c *gin.Context, actor auth.Actor, id string) error {
		return h.gate.Flag(c.Request.Context(), actor, id)
	})
}

func (h *Handler) Hide(c *gin.Context) {
	h.moderate(c, func(c *gin.Context, actor auth.Actor, id string) error {
		var body HideReviewRequest
		if c.Request.ContentLength > 0 {
			if err := c.ShouldBindJSON(&body); err != nil {
				return apperror.Wrap(err, http.StatusBadRequest, "invalid request body")
			}
		}
		return h.gate.ResolveWithNotes(c.Request.Context(), actor, id, body.Notes)
	})
}

func (h *Handler) Unhide(c *gin.Context) {
	h.moderate(c, func(c *gin.Context, actor auth.Actor, id string) error {
		return h.gate.Unhide(c.Request.Context(), actor, id)
	})
}

// moderate runs a single-review moderation action and answers with the
// review's new state.
func (h *Handler) moderate(c *gin.Context, action func(c *gin.Context, actor auth.Actor, id string) error) {
	actor, _ := auth.GetActor(c)

	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid request", err)
		return
	}

	if err := action(c, actor, uri.ID); err != nil {
		response.Error(c, err)
		return
	}

	r, err := h.service.GetByID(c.Request.Context(), actor, uri.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, NewReviewResponse(r))
}

// BulkHide reports per-item outcomes; it answers 200 even when some items
// failed.
func (h *Handler) BulkHide(c *gin.Context) {
	actor, _ := auth.GetActor(c)

	var body BulkHideRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request body", err)
		return
	}

	c.JSON(http.StatusOK, h.gate.ResolveMany(c.Request.Context(), actor, body.IDs, body.Notes))
}

func (h *Handler) ListFlagged(c *gin.Context) {
	actor, _ := auth.GetActor(c)

	var params request.ListParams
	if err := c.ShouldBindQuery(&params); err != nil {
		response.BadRequest(c, "invalid query parameters", err)
		return
	}
	params.Normalize()

	reviews, total, err := h.gate.ListFlagged(c.Request.Context(), actor, params.Page, params.PageSize)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, response.NewPageResponse(toResponses(reviews), params.Page, params.PageSize, total))
}
