package resource

import (
	"context"
	"errors"

	"github.com/campushub/booking-core/internal/booking"
)

// Catalog adapts a resource Repository to the booking core's view.
type Catalog struct {
	repo Repository
}

func NewCatalog(repo Repository) *Catalog {
	return &Catalog{repo: repo}
}

var _ booking.ResourceCatalog = (*Catalog)(nil)

func (c *Catalog) GetResource(ctx context.Context, id string) (booking.Resource, error) {
	res, err := c.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return booking.Resource{}, booking.ErrResourceNotFound
		}
		return booking.Resource{}, err
	}
	return booking.Resource{
		ID:         res.ID,
		Capacity:   res.Capacity,
		Available:  res.Available(),
		HourlyRate: res.HourlyRate,
	}, nil
}
