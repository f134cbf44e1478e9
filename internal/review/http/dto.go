package http

import (
	"time"

	"github.com/campushub/booking-core/internal/pkg/request"
	"github.com/campushub/booking-core/internal/review"
)

// ListReviewsRequest defines query parameters for listing reviews.
type ListReviewsRequest struct {
	request.ListParams
	ResourceID string `form:"resource_id" binding:"omitempty,uuid"`
	ReviewerID string `form:"reviewer_id" binding:"omitempty,uuid"`
	SortBy     string `form:"sort_by" binding:"omitempty,oneof=created_at rating"`
}

type SummaryRequest struct {
	ResourceID string `form:"resource_id" binding:"required,uuid"`
}

type CreateReviewRequest struct {
	ResourceID string  `json:"resource_id" binding:"required,uuid"`
	Rating     int     `json:"rating" binding:"required"`
	Comment    *string `json:"comment"`
}

type HideReviewRequest struct {
	Notes *string `json:"notes" binding:"omitempty,max=1000"`
}

type BulkHideRequest struct {
	request.BulkIDsRequest
	Notes *string `json:"notes" binding:"omitempty,max=1000"`
}

// ReviewResponse is the public shape of a review. Moderation fields are
// omitted unless set.
type ReviewResponse struct {
	ID              string    `json:"id"`
	ResourceID      string    `json:"resource_id"`
	ReviewerID      string    `json:"reviewer_id"`
	Rating          int       `json:"rating"`
	Comment         *string   `json:"comment"`
	IsFlagged       bool      `json:"is_flagged"`
	IsHidden        bool      `json:"is_hidden"`
	FlaggedBy       *string   `json:"flagged_by,omitempty"`
	ModerationNotes *string   `json:"moderation_notes,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func NewReviewResponse(r *review.Review) ReviewResponse {
	return ReviewResponse{
		ID:              r.ID,
		ResourceID:      r.ResourceID,
		ReviewerID:      r.ReviewerID,
		Rating:          r.Rating,
		Comment:         r.Comment,
		IsFlagged:       r.IsFlagged,
		IsHidden:        r.IsHidden,
		FlaggedBy:       r.FlaggedBy,
		ModerationNotes: r.ModerationNotes,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}

type SummaryResponse struct {
	ResourceID    string  `json:"resource_id"`
	AverageRating float64 `json:"average_rating"`
	TotalReviews  int     `json:"total_reviews"`
}
