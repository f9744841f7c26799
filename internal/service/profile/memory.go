package profile

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	applog "github.com/janisto/prima-profile-e2e/internal/platform/logging"
)

// MemoryStore implements Service in process memory.
type MemoryStore struct {
	mu       sync.RWMutex
	max      int
	profiles map[string][]Profile
}

// NewMemoryStore creates an empty store. limit <= 0 uses DefaultMaxProfiles.
func NewMemoryStore(limit int) *MemoryStore {
	if limit <= 0 {
		limit = DefaultMaxProfiles
	}
	return &MemoryStore{
		max:      limit,
		profiles: make(map[string][]Profile),
	}
}

func (m *MemoryStore) Create(ctx context.Context, account string, params CreateParams) (*Profile, error) {
	account = NormalizeAccount(account)

	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.profiles[account]) >= m.max {
		applog.LogAuditEvent(ctx, "create", account, "profile", "", applog.AuditFailure,
			map[string]any{"error": categorizeError(ErrLimitReached)})
		return nil, ErrLimitReached
	}

	p := Profile{
		ULID:      ulid.Make().String(),
		Account:   account,
		Name:      strings.TrimSpace(params.Name),
		AvatarID:  params.AvatarID,
		Gender:    params.Gender,
		BirthYear: params.BirthYear,
		AgeRating: params.AgeRating,
		PINSet:    params.PIN != "",
		CreatedAt: time.Now().UTC(),
	}
	m.profiles[account] = append(m.profiles[account], p)
	applog.LogAuditEvent(ctx, "create", account, "profile", p.ULID, applog.AuditSuccess, nil)
	return &p, nil
}

func (m *MemoryStore) List(_ context.Context, account string) ([]Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.profiles[NormalizeAccount(account)]), nil
}

func (m *MemoryStore) Delete(ctx context.Context, account, id string) error {
	account = NormalizeAccount(account)

	m.mu.Lock()
	defer m.mu.Unlock()

	profiles := m.profiles[account]
	idx := slices.IndexFunc(profiles, func(p Profile) bool { return p.ULID == id })
	if idx < 0 {
		applog.LogAuditEvent(ctx, "delete", account, "profile", id, applog.AuditFailure,
			map[string]any{"error": categorizeError(ErrNotFound)})
		return ErrNotFound
	}
	m.profiles[account] = slices.Delete(slices.Clone(profiles), idx, idx+1)
	applog.LogAuditEvent(ctx, "delete", account, "profile", id, applog.AuditSuccess, nil)
	return nil
}

// Clear removes all profiles (useful for test cleanup).
func (m *MemoryStore) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles = make(map[string][]Profile)
}

// Compile-time interface check
var _ Service = (*MemoryStore)(nil)
