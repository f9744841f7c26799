package profile

import (
	"context"
	"errors"
	"strings"
	"time"
)

// Service errors
var (
	ErrNotFound     = errors.New("profile not found")
	ErrLimitReached = errors.New("profile limit reached")
)

// DefaultMaxProfiles is the per-account cap the real service enforces.
const DefaultMaxProfiles = 10

// Profile represents a stored sub-profile of an account.
type Profile struct {
	ULID      string
	Account   string
	Name      string
	AvatarID  string
	Gender    string
	BirthYear int
	AgeRating string
	PINSet    bool
	CreatedAt time.Time
}

// CreateParams for creating a profile. Callers validate and default the fields.
type CreateParams struct {
	Name      string
	AvatarID  string
	Gender    string
	BirthYear int
	AgeRating string
	PIN       string
}

// Service defines profile storage keyed by account.
//
// Implementations must:
//   - normalize the account with NormalizeAccount
//   - assign a new ULID on Create
//   - list in creation order
type Service interface {
	Create(ctx context.Context, account string, params CreateParams) (*Profile, error)
	List(ctx context.Context, account string) ([]Profile, error)
	Delete(ctx context.Context, account, ulid string) error
}

// NormalizeAccount lower-cases and trims an account email.
func NormalizeAccount(account string) string {
	return strings.ToLower(strings.TrimSpace(account))
}

// categorizeError converts errors to audit-safe categories.
func categorizeError(err error) string {
	switch {
	case errors.Is(err, ErrLimitReached):
		return "limit_reached"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	default:
		return "internal_error"
	}
}
