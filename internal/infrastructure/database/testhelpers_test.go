package database

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"finlink/internal/domain/user"
)

// newTestDB opens an in-memory SQLite database with every migration applied.
func newTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := Open(DriverSQLite, ":memory:")
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	// The migrator is not closed here: that would close db.
	m, err := NewMigrator(db, zap.NewNop())
	if err != nil {
		t.Fatalf("NewMigrator() failed: %v", err)
	}
	if err := MigrateUp(m); err != nil {
		t.Fatalf("MigrateUp() failed: %v", err)
	}

	return db
}

func createTestUser(t *testing.T, db *DB, name, email string) *user.User {
	t.Helper()

	u, err := NewUserRepository(db).Create(context.Background(), user.CreateUserParams{
		Name:         name,
		Email:        email,
		PasswordHash: "$2a$10$hash",
	})
	if err != nil {
		t.Fatalf("create user %s: %v", email, err)
	}
	return u
}
