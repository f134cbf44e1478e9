package user

import (
	"context"
	"errors"

	"github.com/campushub/booking-core/internal/message"
)

// Directory adapts a user Repository to the messaging recipient lookup.
type Directory struct {
	repo Repository
}

func NewDirectory(repo Repository) *Directory {
	return &Directory{repo: repo}
}

var _ message.Directory = (*Directory)(nil)

func (d *Directory) Recipient(ctx context.Context, id string) (message.Recipient, error) {
	u, err := d.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return message.Recipient{}, message.ErrRecipientNotFound
		}
		return message.Recipient{}, err
	}
	return message.Recipient{ID: u.ID, Active: u.Status == StatusActive}, nil
}
