package database

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"finlink/internal/domain/link"
	"finlink/internal/shared/apperr"
)

func strPtr(s string) *string { return &s }

func TestLinkRepository_CreateAndGet(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db, "ana", "ana@example.com")
	repo := NewLinkRepository(db)
	ctx := context.Background()

	createdAt := time.Date(2025, 2, 10, 9, 30, 15, 123456000, time.UTC)
	lastAccessed := createdAt.Add(time.Hour)

	params := link.CreateParams{
		ID:                 "8848bd0c-9c7e-4f53-a732-ec896b11d4c4",
		UserID:             owner.ID,
		Institution:        "erebor_mx_retail",
		ExternalID:         strPtr("ext-1"),
		AccessMode:         link.AccessModeRecurrent,
		Status:             link.StatusActive,
		InstitutionUserID:  strPtr("inst-user"),
		FetchResources:     []string{"ACCOUNTS", "TRANSACTIONS", "OWNERS"},
		CreatedAt:          &createdAt,
		LastAccessedAt:     &lastAccessed,
		CredentialsStorage: strPtr("store"),
		StaleIn:            strPtr("300d"),
	}

	l, err := repo.Create(ctx, params)
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	if l.ID != params.ID || l.UserID != owner.ID || l.Institution != "erebor_mx_retail" {
		t.Errorf("Create() = %+v", l)
	}
	if l.AccessMode != link.AccessModeRecurrent || l.Status != link.StatusActive {
		t.Errorf("AccessMode/Status = %q/%q", l.AccessMode, l.Status)
	}
	if !reflect.DeepEqual(l.FetchResources, []string{"ACCOUNTS", "TRANSACTIONS", "OWNERS"}) {
		t.Errorf("FetchResources = %v, order must be kept", l.FetchResources)
	}
	if !l.CreatedAt.Equal(createdAt) {
		t.Errorf("CreatedAt = %v, want %v", l.CreatedAt, createdAt)
	}
	if l.LastAccessedAt == nil || !l.LastAccessedAt.Equal(lastAccessed) {
		t.Errorf("LastAccessedAt = %v, want %v", l.LastAccessedAt, lastAccessed)
	}
	if l.ExternalID == nil || *l.ExternalID != "ext-1" {
		t.Errorf("ExternalID = %v", l.ExternalID)
	}
	if l.StaleIn == nil || *l.StaleIn != "300d" {
		t.Errorf("StaleIn = %v", l.StaleIn)
	}

	got, err := repo.GetByID(ctx, params.ID)
	if err != nil {
		t.Fatalf("GetByID() failed: %v", err)
	}
	if !reflect.DeepEqual(got, l) {
		t.Errorf("GetByID() = %+v, want %+v", got, l)
	}
}

func TestLinkRepository_TruncatesToMicroseconds(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db, "ana", "ana@example.com")
	repo := NewLinkRepository(db)

	createdAt := time.Date(2025, 2, 10, 9, 30, 15, 123456789, time.UTC)
	l, err := repo.Create(context.Background(), link.CreateParams{
		ID:          "link-ns",
		UserID:      owner.ID,
		Institution: "erebor_mx_retail",
		AccessMode:  link.AccessModeSingle,
		Status:      link.StatusActive,
		CreatedAt:   &createdAt,
	})
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	want := time.Date(2025, 2, 10, 9, 30, 15, 123456000, time.UTC)
	if !l.CreatedAt.Equal(want) {
		t.Errorf("CreatedAt = %v, want %v", l.CreatedAt, want)
	}
}

func TestLinkRepository_OptionalFieldsNull(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db, "ana", "ana@example.com")
	repo := NewLinkRepository(db)

	l, err := repo.Create(context.Background(), link.CreateParams{
		ID:          "link-min",
		UserID:      owner.ID,
		Institution: "banamex_mx_retail",
		AccessMode:  link.AccessModeSingle,
		Status:      link.StatusActive,
	})
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	if l.ExternalID != nil || l.InstitutionUserID != nil || l.CredentialsStorage != nil || l.StaleIn != nil {
		t.Errorf("optional fields should be nil: %+v", l)
	}
	if l.LastAccessedAt != nil {
		t.Errorf("LastAccessedAt = %v, want nil", l.LastAccessedAt)
	}
	if l.FetchResources == nil || len(l.FetchResources) != 0 {
		t.Errorf("FetchResources = %#v, want empty slice", l.FetchResources)
	}
	if l.CreatedAt.IsZero() {
		t.Error("CreatedAt should default to now")
	}
}

func TestLinkRepository_DuplicateID(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db, "ana", "ana@example.com")
	other := createTestUser(t, db, "bob", "bob@example.com")
	repo := NewLinkRepository(db)
	ctx := context.Background()

	first := link.CreateParams{ID: "link-1", UserID: owner.ID, Institution: "first", AccessMode: "single", Status: "active"}
	if _, err := repo.Create(ctx, first); err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	second := link.CreateParams{ID: "link-1", UserID: other.ID, Institution: "second", AccessMode: "single", Status: "active"}
	_, err := repo.Create(ctx, second)
	if !errors.Is(err, ErrDuplicate) || !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("Create() error = %v, want ErrDuplicate", err)
	}

	stored, err := repo.GetByID(ctx, "link-1")
	if err != nil {
		t.Fatalf("GetByID() failed: %v", err)
	}
	if stored.UserID != owner.ID || stored.Institution != "first" {
		t.Errorf("duplicate insert overwrote the row: %+v", stored)
	}
}

func TestLinkRepository_UnknownUser(t *testing.T) {
	repo := NewLinkRepository(newTestDB(t))

	_, err := repo.Create(context.Background(), link.CreateParams{
		ID: "orphan", UserID: 404, Institution: "x", AccessMode: "single", Status: "active",
	})
	if !errors.Is(err, ErrMissingReference) {
		t.Errorf("Create() error = %v, want ErrMissingReference", err)
	}
}

func TestLinkRepository_GetByID_NotFound(t *testing.T) {
	repo := NewLinkRepository(newTestDB(t))

	if _, err := repo.GetByID(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByID() error = %v, want ErrNotFound", err)
	}
}

func TestLinkRepository_ListByUserID(t *testing.T) {
	db := newTestDB(t)
	ana := createTestUser(t, db, "ana", "ana@example.com")
	bob := createTestUser(t, db, "bob", "bob@example.com")
	repo := NewLinkRepository(db)
	ctx := context.Background()

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, p := range []struct {
		id     string
		userID int64
	}{{"a-2", ana.ID}, {"b-1", bob.ID}, {"a-1", ana.ID}} {
		createdAt := base.Add(time.Duration(i) * time.Minute)
		_, err := repo.Create(ctx, link.CreateParams{
			ID: p.id, UserID: p.userID, Institution: "inst", AccessMode: "single", Status: "active", CreatedAt: &createdAt,
		})
		if err != nil {
			t.Fatalf("Create(%s) failed: %v", p.id, err)
		}
	}

	links, err := repo.ListByUserID(ctx, ana.ID)
	if err != nil {
		t.Fatalf("ListByUserID() failed: %v", err)
	}
	if len(links) != 2 || links[0].ID != "a-2" || links[1].ID != "a-1" {
		t.Errorf("ListByUserID() = %v, want [a-2 a-1] in creation order", linkIDs(links))
	}

	none, err := repo.ListByUserID(ctx, 12345)
	if err != nil {
		t.Fatalf("ListByUserID() failed: %v", err)
	}
	if none == nil || len(none) != 0 {
		t.Errorf("ListByUserID() = %#v, want empty slice", none)
	}
}

func linkIDs(links []*link.Link) []string {
	ids := make([]string, len(links))
	for i, l := range links {
		ids[i] = l.ID
	}
	return ids
}
