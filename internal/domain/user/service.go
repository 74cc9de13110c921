package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"finlink/internal/shared/apperr"
	"finlink/internal/shared/auth"
)

// ErrInvalidCredentials is returned for an unknown email and for a wrong
// password alike.
var ErrInvalidCredentials = fmt.Errorf("invalid credentials: %w", apperr.ErrUnauthenticated)

// ErrUserExists is returned when the email or the name is already registered.
var ErrUserExists = fmt.Errorf("user already exists: %w", apperr.ErrConflict)

// bcrypt only reads the first 72 bytes.
const maxPasswordBytes = 72

// TokenService issues and verifies the signed token pair.
type TokenService interface {
	IssuePair(subject string, accessTTL, refreshTTL time.Duration) (*auth.TokenPair, error)
	Verify(token string, use auth.TokenUse) (string, error)
}

// Service contains the credential store business logic
type Service struct {
	repo       Repository
	tokens     TokenService
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewService(repo Repository, tokens TokenService, accessTTL, refreshTTL time.Duration) *Service {
	return &Service{
		repo:       repo,
		tokens:     tokens,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

// Register stores a new user and returns a fresh token pair for it.
func (s *Service) Register(ctx context.Context, params RegisterParams) (*User, *auth.TokenPair, error) {
	params.Name = strings.TrimSpace(params.Name)
	params.Email = strings.TrimSpace(params.Email)
	if params.Name == "" || params.Email == "" || params.Password == "" {
		return nil, nil, fmt.Errorf("%w: name, email and password are required", apperr.ErrInvalidInput)
	}
	if len(params.Password) > maxPasswordBytes {
		return nil, nil, fmt.Errorf("%w: password must be at most %d bytes", apperr.ErrInvalidInput, maxPasswordBytes)
	}

	exists, err := s.repo.ExistsByEmailOrName(ctx, params.Email, params.Name)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if exists {
		return nil, nil, ErrUserExists
	}

	hash, err := auth.HashPassword(params.Password)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to hash password: %w", err)
	}

	// The unique constraints catch a concurrent registration that passed the check above.
	u, err := s.repo.Create(ctx, CreateUserParams{
		Name:         params.Name,
		Email:        params.Email,
		PasswordHash: hash,
	})
	if err != nil {
		if errors.Is(err, apperr.ErrConflict) {
			return nil, nil, ErrUserExists
		}
		return nil, nil, fmt.Errorf("failed to create user: %w", err)
	}

	pair, err := s.issue(u.Email)
	if err != nil {
		return nil, nil, err
	}
	return u, pair, nil
}

// Login checks the password and returns a fresh token pair.
func (s *Service) Login(ctx context.Context, email, password string) (*auth.TokenPair, error) {
	u, err := s.repo.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if !auth.CheckPassword(u.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}

	return s.issue(u.Email)
}

// CurrentUser resolves a verified token subject to its stored user.
func (s *Service) CurrentUser(ctx context.Context, email string) (*User, error) {
	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, fmt.Errorf("user %q: %w", email, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return u, nil
}

// Refresh exchanges a valid refresh token for a new pair. The subject must
// still exist.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*auth.TokenPair, error) {
	email, err := s.tokens.Verify(refreshToken, auth.RefreshToken)
	if err != nil {
		return nil, err
	}

	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, fmt.Errorf("%w: token subject no longer exists", apperr.ErrUnauthenticated)
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	return s.issue(u.Email)
}

func (s *Service) issue(email string) (*auth.TokenPair, error) {
	pair, err := s.tokens.IssuePair(email, s.accessTTL, s.refreshTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to issue tokens: %w", err)
	}
	return pair, nil
}
