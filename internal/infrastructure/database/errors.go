package database

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"

	"finlink/internal/shared/apperr"
)

var (
	// ErrNotFound is returned when a lookup matches no row.
	ErrNotFound = fmt.Errorf("record %w", apperr.ErrNotFound)

	// ErrDuplicate is returned on unique and primary key violations.
	ErrDuplicate = fmt.Errorf("duplicate record: %w", apperr.ErrConflict)

	// ErrMissingReference is returned when a foreign key points nowhere.
	ErrMissingReference = fmt.Errorf("referenced record %w", apperr.ErrNotFound)
)

const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
)

// mapError translates driver errors into the package sentinels, keeping
// the driver error in the chain.
func mapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch string(pqErr.Code) {
		case pqUniqueViolation:
			return fmt.Errorf("%w: %w", ErrDuplicate, err)
		case pqForeignKeyViolation:
			return fmt.Errorf("%w: %w", ErrMissingReference, err)
		}
		return err
	}

	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		switch liteErr.ExtendedCode {
		case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
			return fmt.Errorf("%w: %w", ErrDuplicate, err)
		case sqlite3.ErrConstraintForeignKey:
			return fmt.Errorf("%w: %w", ErrMissingReference, err)
		}
	}

	return err
}
