package resource

import (
	"context"
	"strings"

	"github.com/campushub/booking-core/internal/auth"
)

type CreateRequest struct {
	Name        string
	Description *string
	Category    string
	Location    *string
	Capacity    *int
	HourlyRate  *float64
	Status      Status
}

type UpdateRequest struct {
	Name        *string
	Description *string
	Category    *string
	Location    *string
	Capacity    *int
	HourlyRate  *float64
	Status      *Status
}

type Service interface {
	Create(ctx context.Context, actor auth.Actor, req CreateRequest) (*Resource, error)
	GetByID(ctx context.Context, id string) (*Resource, error)
	List(ctx context.Context, filter Filter) ([]*Resource, int, error)
	Update(ctx context.Context, actor auth.Actor, id string, req UpdateRequest) (*Resource, error)
	// Delete archives the resource; bookings keep referencing it.
	Delete(ctx context.Context, actor auth.Actor, id string) error
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func validateName(name string) error {
	n := len([]rune(strings.TrimSpace(name)))
	if n < MinNameLength || n > MaxNameLength {
		return ErrInvalidName
	}
	return nil
}

func validateCapacity(c *int) error {
	if c != nil && (*c < 1 || *c > MaxCapacity) {
		return ErrInvalidCapacity
	}
	return nil
}

func validateRate(r *float64) error {
	if r != nil && *r < 0 {
		return ErrInvalidRate
	}
	return nil
}

func (s *service) Create(ctx context.Context, actor auth.Actor, req CreateRequest) (*Resource, error) {
	if err := auth.Authorize(actor, auth.OpCreateResource, auth.NoTarget).Err(); err != nil {
		return nil, err
	}
	if err := validateName(req.Name); err != nil {
		return nil, err
	}
	if !validCategory(req.Category) {
		return nil, ErrInvalidCategory
	}
	if err := validateCapacity(req.Capacity); err != nil {
		return nil, err
	}
	if err := validateRate(req.HourlyRate); err != nil {
		return nil, err
	}
	if req.Status == "" {
		req.Status = StatusDraft
	}
	if !req.Status.Valid() {
		return nil, ErrInvalidStatus
	}

	res := &Resource{
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Category:    req.Category,
		Location:    req.Location,
		Capacity:    req.Capacity,
		HourlyRate:  req.HourlyRate,
		Status:      req.Status,
		OwnerID:     actor.ID,
	}
	if err := s.repo.Create(ctx, res); err != nil {
		return nil, err
	}
	return res, nil
}

func (s *service) GetByID(ctx context.Context, id string) (*Resource, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) List(ctx context.Context, filter Filter) ([]*Resource, int, error) {
	return s.repo.List(ctx, filter)
}

func (s *service) Update(ctx context.Context, actor auth.Actor, id string, req UpdateRequest) (*Resource, error) {
	if err := auth.Authorize(actor, auth.OpUpdateResource, auth.NoTarget).Err(); err != nil {
		return nil, err
	}

	res, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		if err := validateName(*req.Name); err != nil {
			return nil, err
		}
		res.Name = strings.TrimSpace(*req.Name)
	}
	if req.Category != nil {
		if !validCategory(*req.Category) {
			return nil, ErrInvalidCategory
		}
		res.Category = *req.Category
	}
	if req.Capacity != nil {
		if err := validateCapacity(req.Capacity); err != nil {
			return nil, err
		}
		res.Capacity = req.Capacity
	}
	if req.HourlyRate != nil {
		if err := validateRate(req.HourlyRate); err != nil {
			return nil, err
		}
		res.HourlyRate = req.HourlyRate
	}
	if req.Status != nil {
		if !req.Status.Valid() {
			return nil, ErrInvalidStatus
		}
		res.Status = *req.Status
	}
	if req.Description != nil {
		res.Description = req.Description
	}
	if req.Location != nil {
		res.Location = req.Location
	}

	if err := s.repo.Update(ctx, res); err != nil {
		return nil, err
	}
	return res, nil
}

func (s *service) Delete(ctx context.Context, actor auth.Actor, id string) error {
	if err := auth.Authorize(actor, auth.OpDeleteResource, auth.NoTarget).Err(); err != nil {
		return err
	}
	res, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if res.Status == StatusArchived {
		return ErrAlreadyArchived
	}
	res.Status = StatusArchived
	return s.repo.Update(ctx, res)
}
