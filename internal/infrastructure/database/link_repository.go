package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"finlink/internal/domain/link"
)

const linkColumns = `id, user_id, institution, external_id, access_mode, status,
	institution_user_id, fetch_resources, created_at, last_accessed_at,
	credentials_storage, stale_in`

type LinkRepository struct {
	db *DB
}

// Ensure LinkRepository implements link.Repository
var _ link.Repository = (*LinkRepository)(nil)

func NewLinkRepository(db *DB) *LinkRepository {
	return &LinkRepository{db: db}
}

// Create inserts a link. The primary key rejects a reused id; rows are never overwritten.
func (r *LinkRepository) Create(ctx context.Context, params link.CreateParams) (*link.Link, error) {
	resources := params.FetchResources
	if resources == nil {
		resources = []string{}
	}
	resourcesJSON, err := json.Marshal(resources)
	if err != nil {
		return nil, fmt.Errorf("failed to encode fetch_resources: %w", err)
	}

	createdAt := link.StorageTime(time.Now())
	if params.CreatedAt != nil {
		createdAt = link.StorageTime(*params.CreatedAt)
	}

	query := `
		INSERT INTO belvo_links (` + linkColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err = r.db.ExecContext(ctx, query,
		params.ID,
		params.UserID,
		params.Institution,
		params.ExternalID,
		params.AccessMode,
		params.Status,
		params.InstitutionUserID,
		string(resourcesJSON),
		createdAt,
		utcOrNil(params.LastAccessedAt),
		params.CredentialsStorage,
		params.StaleIn,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create link: %w", mapError(err))
	}

	return r.GetByID(ctx, params.ID)
}

func (r *LinkRepository) GetByID(ctx context.Context, id string) (*link.Link, error) {
	query := `SELECT ` + linkColumns + ` FROM belvo_links WHERE id = $1`

	l, err := scanLink(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, mapError(err)
	}
	return l, nil
}

func (r *LinkRepository) ListByUserID(ctx context.Context, userID int64) ([]*link.Link, error) {
	query := `SELECT ` + linkColumns + ` FROM belvo_links WHERE user_id = $1 ORDER BY created_at, id`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list links: %w", mapError(err))
	}
	defer rows.Close()

	links := []*link.Link{}
	for rows.Next() {
		l, err := scanLink(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan link: %w", err)
		}
		links = append(links, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate links: %w", err)
	}

	return links, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanLink(s scanner) (*link.Link, error) {
	var (
		l                  link.Link
		externalID         sql.NullString
		institutionUserID  sql.NullString
		resources          string
		lastAccessedAt     sql.NullTime
		credentialsStorage sql.NullString
		staleIn            sql.NullString
	)

	err := s.Scan(
		&l.ID,
		&l.UserID,
		&l.Institution,
		&externalID,
		&l.AccessMode,
		&l.Status,
		&institutionUserID,
		&resources,
		&l.CreatedAt,
		&lastAccessedAt,
		&credentialsStorage,
		&staleIn,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(resources), &l.FetchResources); err != nil {
		return nil, fmt.Errorf("failed to decode fetch_resources: %w", err)
	}
	if l.FetchResources == nil {
		l.FetchResources = []string{}
	}

	l.CreatedAt = l.CreatedAt.UTC()
	l.ExternalID = stringPtr(externalID)
	l.InstitutionUserID = stringPtr(institutionUserID)
	l.CredentialsStorage = stringPtr(credentialsStorage)
	l.StaleIn = stringPtr(staleIn)
	if lastAccessedAt.Valid {
		t := lastAccessedAt.Time.UTC()
		l.LastAccessedAt = &t
	}

	return &l, nil
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}

func utcOrNil(t *time.Time) any {
	if t == nil {
		return nil
	}
	return link.StorageTime(*t)
}
