package http

import (
	"time"

	"github.com/campushub/booking-core/internal/booking"
	"github.com/campushub/booking-core/internal/pkg/request"
)

// ListBookingsRequest defines query parameters for listing bookings.
type ListBookingsRequest struct {
	request.ListParams
	ResourceID    string     `form:"resource_id" binding:"omitempty,uuid"`
	Status        string     `form:"status" binding:"omitempty,oneof=pending confirmed cancelled completed"`
	RequesterID   string     `form:"requester_id" binding:"omitempty"`
	StartTimeFrom *time.Time `form:"start_time_from" time_format:"2006-01-02T15:04:05Z07:00"`
	StartTimeTo   *time.Time `form:"start_time_to" time_format:"2006-01-02T15:04:05Z07:00"`
	SortBy        string     `form:"sort_by" binding:"omitempty,oneof=start_time end_time created_at"`
}

// Validate performs custom validation for ListBookingsRequest.
func (r *ListBookingsRequest) Validate() error {
	if r.StartTimeFrom != nil && r.StartTimeTo != nil && r.StartTimeFrom.After(*r.StartTimeTo) {
		return booking.ErrInvalidTimeRange
	}
	return nil
}

type BookingResponse struct {
	ID                 string     `json:"id"`
	ResourceID         string     `json:"resource_id"`
	RequesterID        string     `json:"requester_id"`
	StartTime          time.Time  `json:"start_time"`
	EndTime            time.Time  `json:"end_time"`
	Status             string     `json:"status"`
	Purpose            *string    `json:"purpose,omitempty"`
	AttendeesCount     *int       `json:"attendees_count,omitempty"`
	TotalCost          *float64   `json:"total_cost,omitempty"`
	CancellationReason *string    `json:"cancellation_reason,omitempty"`
	CancelledAt        *time.Time `json:"cancelled_at,omitempty"`
	ConfirmedBy        *string    `json:"confirmed_by,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

func NewBookingResponse(b *booking.Booking) BookingResponse {
	return BookingResponse{
		ID:                 b.ID,
		ResourceID:         b.ResourceID,
		RequesterID:        b.RequesterID,
		StartTime:          b.StartTime,
		EndTime:            b.EndTime,
		Status:             string(b.Status),
		Purpose:            b.Purpose,
		AttendeesCount:     b.AttendeesCount,
		TotalCost:          b.TotalCost,
		CancellationReason: b.CancellationReason,
		CancelledAt:        b.CancelledAt,
		ConfirmedBy:        b.ConfirmedBy,
		CreatedAt:          b.CreatedAt,
		UpdatedAt:          b.UpdatedAt,
	}
}

// CreateBookingRequest leaves window rules to the domain validator so that
// every violation is reported together.
type CreateBookingRequest struct {
	ResourceID     string    `json:"resource_id" binding:"required,uuid"`
	StartTime      time.Time `json:"start_time" binding:"required"`
	EndTime        time.Time `json:"end_time" binding:"required"`
	Purpose        *string   `json:"purpose" binding:"omitempty,max=500"`
	AttendeesCount *int      `json:"attendees_count"`
}

type RescheduleBookingRequest struct {
	StartTime      time.Time `json:"start_time" binding:"required"`
	EndTime        time.Time `json:"end_time" binding:"required"`
	AttendeesCount *int      `json:"attendees_count"`
}

type CancelBookingRequest struct {
	Reason string `json:"reason" binding:"omitempty,max=500"`
}

// AvailabilityRequest defines query parameters for the free slot lookup.
type AvailabilityRequest struct {
	ResourceID string `form:"resource_id" binding:"required,uuid"`
	Date       string `form:"date" binding:"required,datetime=2006-01-02"`
	Open       string `form:"open,default=08:00"`
	Close      string `form:"close,default=22:00"`
}

type AvailabilityResponse struct {
	ResourceID string             `json:"resource_id"`
	Date       string             `json:"date"`
	Slots      []booking.TimeSlot `json:"slots"`
}
