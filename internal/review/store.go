package review

import "context"

// Store persists reviews. SetHidden(false) also clears the flag and the
// moderation notes, returning the review to the public listing.
type Store interface {
	Create(ctx context.Context, r *Review) error
	GetByID(ctx context.Context, id string) (*Review, error)
	List(ctx context.Context, filter Filter) ([]*Review, int, error)
	SetHidden(ctx context.Context, id string, hidden bool, notes *string) error
	SetFlagged(ctx context.Context, id, flaggedBy string) error
	Summary(ctx context.Context, resourceID string) (Summary, error)
}
