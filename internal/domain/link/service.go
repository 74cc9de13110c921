package link

import (
	"context"
	"errors"
	"fmt"
	"time"

	"finlink/internal/domain/user"
	"finlink/internal/shared/apperr"
)

// UserLookup resolves a token subject to its stored user.
type UserLookup interface {
	GetByEmail(ctx context.Context, email string) (*user.User, error)
}

// Service contains the business logic for link operations
type Service struct {
	repo  Repository
	users UserLookup
	now   func() time.Time
}

func NewService(repo Repository, users UserLookup) *Service {
	return &Service{repo: repo, users: users, now: time.Now}
}

// Create stores a link owned by the user identified by email.
func (s *Service) Create(ctx context.Context, email string, params CreateParams) (*Link, error) {
	owner, err := s.owner(ctx, email)
	if err != nil {
		return nil, err
	}

	params.UserID = owner.ID
	params.ApplyDefaults(s.now())
	if err := params.Validate(); err != nil {
		return nil, err
	}

	l, err := s.repo.Create(ctx, params)
	if err != nil {
		if errors.Is(err, apperr.ErrConflict) {
			return nil, ErrLinkExists
		}
		return nil, fmt.Errorf("failed to create link: %w", err)
	}
	return l, nil
}

// ListForUser returns every link owned by the user identified by email.
func (s *Service) ListForUser(ctx context.Context, email string) ([]*Link, error) {
	owner, err := s.owner(ctx, email)
	if err != nil {
		return nil, err
	}
	return s.repo.ListByUserID(ctx, owner.ID)
}

func (s *Service) owner(ctx context.Context, email string) (*user.User, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, fmt.Errorf("user %q: %w", email, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return u, nil
}
