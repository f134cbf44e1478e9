package http

import (
	"time"

	"github.com/campushub/booking-core/internal/pkg/request"
	"github.com/campushub/booking-core/internal/resource"
)

type ResourceResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	Category    string    `json:"category"`
	Location    *string   `json:"location,omitempty"`
	Capacity    *int      `json:"capacity,omitempty"`
	HourlyRate  *float64  `json:"hourly_rate,omitempty"`
	Status      string    `json:"status"`
	Available   bool      `json:"available"`
	OwnerID     string    `json:"owner_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func NewResponse(r *resource.Resource) ResourceResponse {
	return ResourceResponse{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		Category:    r.Category,
		Location:    r.Location,
		Capacity:    r.Capacity,
		HourlyRate:  r.HourlyRate,
		Status:      string(r.Status),
		Available:   r.Available(),
		OwnerID:     r.OwnerID,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

// ListResourcesRequest defines query parameters for listing resources.
type ListResourcesRequest struct {
	request.ListParams
	Category    string `form:"category"`
	Status      string `form:"status" binding:"omitempty,oneof=draft published archived"`
	Search      string `form:"q" binding:"omitempty,max=100"`
	MinCapacity int    `form:"min_capacity" binding:"omitempty,min=1"`
	SortBy      string `form:"sort_by" binding:"omitempty,oneof=created_at name capacity"`
}

type CreateRequest struct {
	Name        string   `json:"name" binding:"required"`
	Description *string  `json:"description" binding:"omitempty,max=5000"`
	Category    string   `json:"category" binding:"required"`
	Location    *string  `json:"location" binding:"omitempty,max=200"`
	Capacity    *int     `json:"capacity"`
	HourlyRate  *float64 `json:"hourly_rate"`
	Status      string   `json:"status" binding:"omitempty,oneof=draft published archived"`
}

type UpdateRequest struct {
	Name        *string  `json:"name"`
	Description *string  `json:"description" binding:"omitempty,max=5000"`
	Category    *string  `json:"category"`
	Location    *string  `json:"location" binding:"omitempty,max=200"`
	Capacity    *int     `json:"capacity"`
	HourlyRate  *float64 `json:"hourly_rate"`
	Status      *string  `json:"status" binding:"omitempty,oneof=draft published archived"`
}
