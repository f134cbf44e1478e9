package resource

import (
	"net/http"
	"time"

	"github.com/campushub/booking-core/internal/pkg/apperror"
)

var (
	ErrNotFound        = apperror.New(http.StatusNotFound, "resource not found")
	ErrInvalidName     = apperror.New(http.StatusBadRequest, "name must be between 3 and 200 characters")
	ErrInvalidCategory = apperror.New(http.StatusBadRequest, "invalid category")
	ErrInvalidStatus   = apperror.New(http.StatusBadRequest, "invalid status: must be one of draft, published, archived")
	ErrInvalidCapacity = apperror.New(http.StatusBadRequest, "capacity must be between 1 and 10000")
	ErrInvalidRate     = apperror.New(http.StatusBadRequest, "hourly rate cannot be negative")
	ErrAlreadyArchived = apperror.New(http.StatusConflict, "resource is already archived")
)

const (
	MinNameLength = 3
	MaxNameLength = 200
	MaxCapacity   = 10000
)

type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
	StatusArchived  Status = "archived"
)

func (s Status) Valid() bool {
	return s == StatusDraft || s == StatusPublished || s == StatusArchived
}

// Categories lists the accepted resource categories.
var Categories = []string{
	"study_room", "equipment", "facility", "vehicle",
	"technology", "sports", "event_space", "other",
}

func validCategory(c string) bool {
	for _, v := range Categories {
		if v == c {
			return true
		}
	}
	return false
}

// Resource is a bookable campus asset (room, equipment, facility).
type Resource struct {
	ID          string
	Name        string
	Description *string
	Category    string
	Location    *string
	Capacity    *int
	HourlyRate  *float64
	Status      Status
	OwnerID     string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Available reports whether new bookings may target the resource.
func (r *Resource) Available() bool {
	return r.Status == StatusPublished
}

// Filter defines parameters for listing resources.
type Filter struct {
	Category    string
	Status      string
	Search      string
	MinCapacity int
	Page        int
	PageSize    int
	SortBy      string
	SortOrder   string
}
