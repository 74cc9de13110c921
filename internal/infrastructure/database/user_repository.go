package database

import (
	"context"
	"fmt"

	"finlink/internal/domain/user"
)

type UserRepository struct {
	db *DB
}

// Ensure UserRepository implements user.Repository
var _ user.Repository = (*UserRepository)(nil)

func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, params user.CreateUserParams) (*user.User, error) {
	query := `
		INSERT INTO users (name, email, password_hash)
		VALUES ($1, $2, $3)
		RETURNING id
	`

	u := &user.User{
		Name:         params.Name,
		Email:        params.Email,
		PasswordHash: params.PasswordHash,
	}
	if err := r.db.QueryRowContext(ctx, query, params.Name, params.Email, params.PasswordHash).Scan(&u.ID); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", mapError(err))
	}

	return u, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*user.User, error) {
	query := `SELECT id, name, email, password_hash FROM users WHERE id = $1`
	return r.scanOne(ctx, query, id)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	query := `SELECT id, name, email, password_hash FROM users WHERE email = $1`
	return r.scanOne(ctx, query, email)
}

// ExistsByEmailOrName reports whether either identity is already taken.
func (r *UserRepository) ExistsByEmailOrName(ctx context.Context, email, name string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM users WHERE email = $1 OR name = $2)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, email, name).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check user: %w", mapError(err))
	}
	return exists, nil
}

func (r *UserRepository) scanOne(ctx context.Context, query string, arg any) (*user.User, error) {
	var u user.User
	err := r.db.QueryRowContext(ctx, query, arg).Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash)
	if err != nil {
		return nil, mapError(err)
	}
	return &u, nil
}
