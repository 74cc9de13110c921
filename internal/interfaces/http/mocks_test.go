package http

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"finlink/internal/domain/link"
	"finlink/internal/domain/user"
	ofclient "finlink/internal/infrastructure/belvo"
	"finlink/internal/shared/apperr"
	"finlink/internal/shared/auth"
)

// MockUserRepo implements user.Repository for testing
type MockUserRepo struct {
	CreateFunc              func(ctx context.Context, params user.CreateUserParams) (*user.User, error)
	GetByIDFunc             func(ctx context.Context, id int64) (*user.User, error)
	GetByEmailFunc          func(ctx context.Context, email string) (*user.User, error)
	ExistsByEmailOrNameFunc func(ctx context.Context, email, name string) (bool, error)
}

func (m *MockUserRepo) Create(ctx context.Context, params user.CreateUserParams) (*user.User, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, params)
	}
	return &user.User{ID: 1, Name: params.Name, Email: params.Email, PasswordHash: params.PasswordHash}, nil
}

func (m *MockUserRepo) GetByID(ctx context.Context, id int64) (*user.User, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, apperr.ErrNotFound
}

func (m *MockUserRepo) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	if m.GetByEmailFunc != nil {
		return m.GetByEmailFunc(ctx, email)
	}
	return nil, apperr.ErrNotFound
}

func (m *MockUserRepo) ExistsByEmailOrName(ctx context.Context, email, name string) (bool, error) {
	if m.ExistsByEmailOrNameFunc != nil {
		return m.ExistsByEmailOrNameFunc(ctx, email, name)
	}
	return false, nil
}

// MockLinkRepo implements link.Repository for testing
type MockLinkRepo struct {
	CreateFunc       func(ctx context.Context, params link.CreateParams) (*link.Link, error)
	GetByIDFunc      func(ctx context.Context, id string) (*link.Link, error)
	ListByUserIDFunc func(ctx context.Context, userID int64) ([]*link.Link, error)
}

func (m *MockLinkRepo) Create(ctx context.Context, params link.CreateParams) (*link.Link, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, params)
	}
	return &link.Link{
		ID:                 params.ID,
		UserID:             params.UserID,
		Institution:        params.Institution,
		ExternalID:         params.ExternalID,
		AccessMode:         params.AccessMode,
		Status:             params.Status,
		InstitutionUserID:  params.InstitutionUserID,
		FetchResources:     params.FetchResources,
		CreatedAt:          *params.CreatedAt,
		LastAccessedAt:     params.LastAccessedAt,
		CredentialsStorage: params.CredentialsStorage,
		StaleIn:            params.StaleIn,
	}, nil
}

func (m *MockLinkRepo) GetByID(ctx context.Context, id string) (*link.Link, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, apperr.ErrNotFound
}

func (m *MockLinkRepo) ListByUserID(ctx context.Context, userID int64) ([]*link.Link, error) {
	if m.ListByUserIDFunc != nil {
		return m.ListByUserIDFunc(ctx, userID)
	}
	return []*link.Link{}, nil
}

// MockBelvoClient implements ofclient.ClientInterface for testing
type MockBelvoClient struct {
	ListAccountsFunc      func(ctx context.Context) (json.RawMessage, error)
	ListTransactionsFunc  func(ctx context.Context, linkID string) (*ofclient.TransactionPage, error)
	CreateAccessTokenFunc func(ctx context.Context) (string, error)
}

func (m *MockBelvoClient) ListAccounts(ctx context.Context) (json.RawMessage, error) {
	if m.ListAccountsFunc != nil {
		return m.ListAccountsFunc(ctx)
	}
	return json.RawMessage(`[]`), nil
}

func (m *MockBelvoClient) ListTransactions(ctx context.Context, linkID string) (*ofclient.TransactionPage, error) {
	if m.ListTransactionsFunc != nil {
		return m.ListTransactionsFunc(ctx, linkID)
	}
	return &ofclient.TransactionPage{Results: []ofclient.Transaction{}}, nil
}

func (m *MockBelvoClient) CreateAccessToken(ctx context.Context) (string, error) {
	if m.CreateAccessTokenFunc != nil {
		return m.CreateAccessTokenFunc(ctx)
	}
	return "", nil
}

const (
	testAccessTTL  = 30 * time.Minute
	testRefreshTTL = 7 * 24 * time.Hour
)

func newTestJWT(t *testing.T) *auth.JWT {
	t.Helper()
	j, err := auth.NewJWT("handler-test-secret", "HS256")
	if err != nil {
		t.Fatalf("NewJWT() failed: %v", err)
	}
	return j
}

func newUserService(t *testing.T, repo user.Repository) *user.Service {
	t.Helper()
	return user.NewService(repo, newTestJWT(t), testAccessTTL, testRefreshTTL)
}

func knownUserRepo(t *testing.T, password string) *MockUserRepo {
	t.Helper()
	hash, err := auth.HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword() failed: %v", err)
	}
	return &MockUserRepo{
		GetByEmailFunc: func(ctx context.Context, email string) (*user.User, error) {
			if email == "ana@example.com" {
				return &user.User{ID: 7, Name: "ana", Email: email, PasswordHash: hash}, nil
			}
			return nil, apperr.ErrNotFound
		},
	}
}
