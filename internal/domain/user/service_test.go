package user

import (
	"context"
	"errors"
	"testing"
	"time"

	"finlink/internal/shared/apperr"
	"finlink/internal/shared/auth"
)

// MockRepository is a mock implementation of Repository interface
type MockRepository struct {
	CreateFunc              func(ctx context.Context, params CreateUserParams) (*User, error)
	GetByIDFunc             func(ctx context.Context, id int64) (*User, error)
	GetByEmailFunc          func(ctx context.Context, email string) (*User, error)
	ExistsByEmailOrNameFunc func(ctx context.Context, email, name string) (bool, error)
}

func (m *MockRepository) Create(ctx context.Context, params CreateUserParams) (*User, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, params)
	}
	return nil, nil
}

func (m *MockRepository) GetByID(ctx context.Context, id int64) (*User, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *MockRepository) GetByEmail(ctx context.Context, email string) (*User, error) {
	if m.GetByEmailFunc != nil {
		return m.GetByEmailFunc(ctx, email)
	}
	return nil, nil
}

func (m *MockRepository) ExistsByEmailOrName(ctx context.Context, email, name string) (bool, error) {
	if m.ExistsByEmailOrNameFunc != nil {
		return m.ExistsByEmailOrNameFunc(ctx, email, name)
	}
	return false, nil
}

// memoryRepository keeps users in a slice so register/login round trips can be exercised.
type memoryRepository struct {
	users []*User
}

func (r *memoryRepository) Create(_ context.Context, params CreateUserParams) (*User, error) {
	for _, u := range r.users {
		if u.Email == params.Email || u.Name == params.Name {
			return nil, apperr.ErrConflict
		}
	}
	u := &User{ID: int64(len(r.users) + 1), Name: params.Name, Email: params.Email, PasswordHash: params.PasswordHash}
	r.users = append(r.users, u)
	return u, nil
}

func (r *memoryRepository) GetByID(_ context.Context, id int64) (*User, error) {
	for _, u := range r.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, apperr.ErrNotFound
}

func (r *memoryRepository) GetByEmail(_ context.Context, email string) (*User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, apperr.ErrNotFound
}

func (r *memoryRepository) ExistsByEmailOrName(_ context.Context, email, name string) (bool, error) {
	for _, u := range r.users {
		if u.Email == email || u.Name == name {
			return true, nil
		}
	}
	return false, nil
}

func newTestTokens(t *testing.T) *auth.JWT {
	t.Helper()
	j, err := auth.NewJWT("test-secret", "HS256")
	if err != nil {
		t.Fatalf("NewJWT() failed: %v", err)
	}
	return j
}

func newTestService(t *testing.T, repo Repository) *Service {
	t.Helper()
	return NewService(repo, newTestTokens(t), 30*time.Minute, 7*24*time.Hour)
}

func TestService_Register(t *testing.T) {
	repo := &memoryRepository{}
	svc := newTestService(t, repo)
	ctx := context.Background()

	u, pair, err := svc.Register(ctx, RegisterParams{Name: "ana", Email: "ana@example.com", Password: "s3cret"})
	if err != nil {
		t.Fatalf("Register() failed: %v", err)
	}
	if u.ID == 0 || u.Email != "ana@example.com" {
		t.Errorf("Register() user = %+v", u)
	}
	if u.PasswordHash == "s3cret" || !auth.CheckPassword(u.PasswordHash, "s3cret") {
		t.Error("password must be stored as a bcrypt digest")
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" || pair.TokenType != "bearer" {
		t.Errorf("Register() pair = %+v", pair)
	}

	subject, err := newTestTokens(t).Verify(pair.AccessToken, auth.AccessToken)
	if err != nil {
		t.Fatalf("issued access token does not verify: %v", err)
	}
	if subject != "ana@example.com" {
		t.Errorf("token subject = %q, want ana@example.com", subject)
	}
}

func TestService_Register_Conflict(t *testing.T) {
	repo := &memoryRepository{}
	svc := newTestService(t, repo)
	ctx := context.Background()

	if _, _, err := svc.Register(ctx, RegisterParams{Name: "ana", Email: "ana@example.com", Password: "pw"}); err != nil {
		t.Fatalf("Register() failed: %v", err)
	}

	tests := []struct {
		name   string
		params RegisterParams
	}{
		{"same email", RegisterParams{Name: "other", Email: "ana@example.com", Password: "pw"}},
		{"same name", RegisterParams{Name: "ana", Email: "other@example.com", Password: "pw"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := svc.Register(ctx, tt.params)
			if !errors.Is(err, apperr.ErrConflict) {
				t.Errorf("Register() error = %v, want ErrConflict", err)
			}
		})
	}
}

func TestService_Register_StorageConflict(t *testing.T) {
	repo := &MockRepository{
		CreateFunc: func(ctx context.Context, params CreateUserParams) (*User, error) {
			return nil, apperr.ErrConflict
		},
	}
	svc := newTestService(t, repo)

	_, _, err := svc.Register(context.Background(), RegisterParams{Name: "ana", Email: "ana@example.com", Password: "pw"})
	if !errors.Is(err, ErrUserExists) {
		t.Errorf("Register() error = %v, want ErrUserExists", err)
	}
}

func TestService_Register_InvalidInput(t *testing.T) {
	svc := newTestService(t, &MockRepository{})

	long := make([]byte, 73)
	for i := range long {
		long[i] = 'a'
	}

	tests := []struct {
		name   string
		params RegisterParams
	}{
		{"missing name", RegisterParams{Email: "a@example.com", Password: "pw"}},
		{"blank name", RegisterParams{Name: "   ", Email: "a@example.com", Password: "pw"}},
		{"missing email", RegisterParams{Name: "a", Password: "pw"}},
		{"missing password", RegisterParams{Name: "a", Email: "a@example.com"}},
		{"password too long", RegisterParams{Name: "a", Email: "a@example.com", Password: string(long)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := svc.Register(context.Background(), tt.params)
			if !errors.Is(err, apperr.ErrInvalidInput) {
				t.Errorf("Register() error = %v, want ErrInvalidInput", err)
			}
		})
	}
}

func TestService_Login(t *testing.T) {
	repo := &memoryRepository{}
	svc := newTestService(t, repo)
	ctx := context.Background()

	if _, _, err := svc.Register(ctx, RegisterParams{Name: "ana", Email: "ana@example.com", Password: "s3cret"}); err != nil {
		t.Fatalf("Register() failed: %v", err)
	}

	tests := []struct {
		name     string
		email    string
		password string
		wantErr  error
	}{
		{"valid credentials", "ana@example.com", "s3cret", nil},
		{"wrong password", "ana@example.com", "nope", ErrInvalidCredentials},
		{"unknown email", "bob@example.com", "s3cret", ErrInvalidCredentials},
		{"empty password", "ana@example.com", "", ErrInvalidCredentials},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pair, err := svc.Login(ctx, tt.email, tt.password)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Login() error = %v, want %v", err, tt.wantErr)
				}
				if !errors.Is(err, apperr.ErrUnauthenticated) {
					t.Errorf("Login() error = %v, want ErrUnauthenticated", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Login() failed: %v", err)
			}
			if pair.AccessToken == "" {
				t.Error("Login() returned empty access token")
			}
		})
	}
}

func TestService_Login_RepositoryError(t *testing.T) {
	dbErr := errors.New("connection refused")
	repo := &MockRepository{
		GetByEmailFunc: func(ctx context.Context, email string) (*User, error) {
			return nil, dbErr
		},
	}
	svc := newTestService(t, repo)

	_, err := svc.Login(context.Background(), "ana@example.com", "pw")
	if !errors.Is(err, dbErr) {
		t.Errorf("Login() error = %v, want wrapped repository error", err)
	}
	if errors.Is(err, apperr.ErrUnauthenticated) {
		t.Error("a storage failure must not be reported as bad credentials")
	}
}

func TestService_CurrentUser(t *testing.T) {
	repo := &MockRepository{
		GetByEmailFunc: func(ctx context.Context, email string) (*User, error) {
			if email == "ana@example.com" {
				return &User{ID: 7, Name: "ana", Email: email}, nil
			}
			return nil, apperr.ErrNotFound
		},
	}
	svc := newTestService(t, repo)

	u, err := svc.CurrentUser(context.Background(), "ana@example.com")
	if err != nil {
		t.Fatalf("CurrentUser() failed: %v", err)
	}
	if u.ID != 7 {
		t.Errorf("CurrentUser() ID = %d, want 7", u.ID)
	}

	if _, err := svc.CurrentUser(context.Background(), "ghost@example.com"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("CurrentUser() error = %v, want ErrNotFound", err)
	}
}

func TestService_Refresh(t *testing.T) {
	repo := &memoryRepository{}
	svc := newTestService(t, repo)
	ctx := context.Background()

	_, pair, err := svc.Register(ctx, RegisterParams{Name: "ana", Email: "ana@example.com", Password: "pw"})
	if err != nil {
		t.Fatalf("Register() failed: %v", err)
	}

	t.Run("refresh token", func(t *testing.T) {
		fresh, err := svc.Refresh(ctx, pair.RefreshToken)
		if err != nil {
			t.Fatalf("Refresh() failed: %v", err)
		}
		if fresh.AccessToken == "" || fresh.RefreshToken == "" {
			t.Errorf("Refresh() pair = %+v", fresh)
		}
	})

	t.Run("access token rejected", func(t *testing.T) {
		if _, err := svc.Refresh(ctx, pair.AccessToken); !errors.Is(err, apperr.ErrUnauthenticated) {
			t.Errorf("Refresh() error = %v, want ErrUnauthenticated", err)
		}
	})

	t.Run("garbage rejected", func(t *testing.T) {
		if _, err := svc.Refresh(ctx, "not-a-token"); !errors.Is(err, apperr.ErrUnauthenticated) {
			t.Errorf("Refresh() error = %v, want ErrUnauthenticated", err)
		}
	})

	t.Run("deleted subject rejected", func(t *testing.T) {
		other := newTestService(t, &memoryRepository{})
		if _, err := other.Refresh(ctx, pair.RefreshToken); !errors.Is(err, apperr.ErrUnauthenticated) {
			t.Errorf("Refresh() error = %v, want ErrUnauthenticated", err)
		}
	})
}
