package link

import "context"

// Repository defines the interface for link data access
type Repository interface {
	// Create inserts a new link. A second insert with the same id fails
	// with an apperr.ErrConflict and never overwrites.
	Create(ctx context.Context, params CreateParams) (*Link, error)
	GetByID(ctx context.Context, id string) (*Link, error)
	ListByUserID(ctx context.Context, userID int64) ([]*Link, error)
}
