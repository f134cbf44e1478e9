package review

import (
	"net/http"
	"time"

	"github.com/campushub/booking-core/internal/pkg/apperror"
)

var (
	ErrNotFound         = apperror.New(http.StatusNotFound, "review not found")
	ErrAlreadyReviewed  = apperror.New(http.StatusConflict, "you have already reviewed this resource")
	ErrResourceNotFound = apperror.New(http.StatusNotFound, "resource not found")
	ErrResourceClosed   = apperror.New(http.StatusUnprocessableEntity, "can only review published resources")
)

const (
	MinRating        = 1
	MaxRating        = 5
	MinCommentLength = 10
	MaxCommentLength = 2000
)

// Review is a rating left by a user on a resource. Hidden reviews are kept
// for moderators but excluded from public listings and the average rating.
type Review struct {
	ID              string
	ResourceID      string
	ReviewerID      string
	Rating          int
	Comment         *string
	IsFlagged       bool
	IsHidden        bool
	FlaggedBy       *string
	ModerationNotes *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Summary aggregates the visible reviews of one resource.
type Summary struct {
	ResourceID    string
	AverageRating float64
	Count         int
}

// Filter defines parameters for listing reviews.
type Filter struct {
	ResourceID    string
	ReviewerID    string
	FlaggedOnly   bool
	IncludeHidden bool
	Page          int
	PageSize      int
	SortBy        string
	SortOrder     string
}
