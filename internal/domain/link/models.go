package link

import (
	"fmt"
	"time"

	"finlink/internal/shared/apperr"
)

const (
	AccessModeSingle    = "single"
	AccessModeRecurrent = "recurrent"

	StatusActive = "active"
)

var accessModes = map[string]struct{}{
	AccessModeSingle:    {},
	AccessModeRecurrent: {},
}

// ErrLinkExists is returned when a link id was already stored.
var ErrLinkExists = fmt.Errorf("link already exists: %w", apperr.ErrConflict)

// Link is one aggregator connection to an institution, owned by a user.
// ID is assigned by the aggregator.
type Link struct {
	ID                 string     `json:"id"`
	UserID             int64      `json:"user_id"`
	Institution        string     `json:"institution"`
	ExternalID         *string    `json:"external_id"`
	AccessMode         string     `json:"access_mode"`
	Status             string     `json:"status"`
	InstitutionUserID  *string    `json:"institution_user_id"`
	FetchResources     []string   `json:"fetch_resources"`
	CreatedAt          time.Time  `json:"created_at"`
	LastAccessedAt     *time.Time `json:"last_accessed_at"`
	CredentialsStorage *string    `json:"credentials_storage"`
	StaleIn            *string    `json:"stale_in"`
}

// CreateParams carries the caller-supplied fields of a new link.
type CreateParams struct {
	ID                 string     `json:"id"`
	Institution        string     `json:"institution"`
	ExternalID         *string    `json:"external_id"`
	AccessMode         string     `json:"access_mode"`
	Status             string     `json:"status"`
	InstitutionUserID  *string    `json:"institution_user_id"`
	FetchResources     []string   `json:"fetch_resources"`
	CreatedAt          *time.Time `json:"created_at"`
	LastAccessedAt     *time.Time `json:"last_accessed_at"`
	CredentialsStorage *string    `json:"credentials_storage"`
	StaleIn            *string    `json:"stale_in"`

	UserID int64 `json:"-"`
}

// ApplyDefaults fills access mode, status, fetch resources and creation
// time when the caller left them out.
func (p *CreateParams) ApplyDefaults(now time.Time) {
	if p.AccessMode == "" {
		p.AccessMode = AccessModeSingle
	}
	if p.Status == "" {
		p.Status = StatusActive
	}
	if p.FetchResources == nil {
		p.FetchResources = []string{}
	}
	if p.CreatedAt == nil {
		p.CreatedAt = &now
	}

	createdAt := StorageTime(*p.CreatedAt)
	p.CreatedAt = &createdAt
	if p.LastAccessedAt != nil {
		lastAccessed := StorageTime(*p.LastAccessedAt)
		p.LastAccessedAt = &lastAccessed
	}
}

// StorageTime converts t to UTC at microsecond precision, the finest
// resolution every supported database keeps.
func StorageTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}

// Validate validates the create parameters
func (p CreateParams) Validate() error {
	if p.ID == "" {
		return invalid("link id is required")
	}
	if p.UserID <= 0 {
		return invalid("valid user id is required")
	}
	if p.Institution == "" {
		return invalid("institution is required")
	}
	if _, ok := accessModes[p.AccessMode]; !ok {
		return invalid(fmt.Sprintf("access_mode must be %q or %q", AccessModeSingle, AccessModeRecurrent))
	}
	return nil
}

func invalid(msg string) error {
	return fmt.Errorf("%w: %s", apperr.ErrInvalidInput, msg)
}
