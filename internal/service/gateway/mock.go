package gateway

import (
	"context"
	"net/http"
	"slices"
	"sync"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	applog "github.com/janisto/prima-profile-e2e/internal/platform/logging"
)

// MockGatewayService implements Service in memory for unit tests of gateway consumers.
// It enforces the same validation and authentication contract as Client.
type MockGatewayService struct {
	mu       sync.Mutex
	defaults Credentials
	accounts map[string]string
	profiles map[string][]Profile
	calls    []string
}

// NewMockGatewayService creates a mock with one account whose credentials are also the defaults.
func NewMockGatewayService(email, password string) *MockGatewayService {
	return &MockGatewayService{
		defaults: Credentials{Email: email, Password: password},
		accounts: map[string]string{email: password},
		profiles: map[string][]Profile{},
	}
}

// AddAccount registers another account.
func (m *MockGatewayService) AddAccount(email, password string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[email] = password
}

// Seed appends existing profiles to an account without recording calls.
func (m *MockGatewayService) Seed(email string, profiles ...Profile) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles[email] = append(m.profiles[email], profiles...)
}

// Calls returns the gateway methods invoked so far, in order.
func (m *MockGatewayService) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.calls)
}

// authenticate must be called with m.mu held.
func (m *MockGatewayService) authenticate(opts []CallOption) (Credentials, error) {
	creds, err := resolveCredentials(m.defaults, opts)
	if err != nil {
		return Credentials{}, err
	}
	m.calls = append(m.calls, MethodTokenPassword)
	if pw, ok := m.accounts[creds.Email]; !ok || pw != creds.Password {
		return Credentials{}, &RequestError{
			Kind:   KindAuthentication,
			Method: MethodTokenPassword,
			Status: http.StatusUnauthorized,
			cause:  ErrAuthentication,
		}
	}
	return creds, nil
}

func (m *MockGatewayService) AccessToken(_ context.Context, opts ...CallOption) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, err := m.authenticate(opts); err != nil {
		return "", err
	}
	return "mock-token-" + ulid.Make().String(), nil
}

func (m *MockGatewayService) ListProfileIDs(_ context.Context, opts ...CallOption) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	creds, err := m.authenticate(opts)
	if err != nil {
		return nil, err
	}
	m.calls = append(m.calls, MethodUserInfoLite)
	ids := make([]string, 0, len(m.profiles[creds.Email]))
	for _, p := range m.profiles[creds.Email] {
		if p.ULID != "" {
			ids = append(ids, p.ULID)
		}
	}
	return ids, nil
}

func (m *MockGatewayService) ListProfiles(_ context.Context, opts ...CallOption) ([]Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	creds, err := m.authenticate(opts)
	if err != nil {
		return nil, err
	}
	m.calls = append(m.calls, MethodUserInfoLite)
	return slices.Clone(m.profiles[creds.Email]), nil
}

func (m *MockGatewayService) CreateProfile(
	_ context.Context, name string, spec ProfileSpec, opts ...CallOption,
) (string, error) {
	name, err := normalizeName(name)
	if err != nil {
		return "", err
	}
	if err := spec.Validate(); err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	creds, err := m.authenticate(opts)
	if err != nil {
		return "", err
	}
	m.calls = append(m.calls, MethodProfileCreate)

	spec = spec.WithDefaults()
	p := Profile{
		ULID:      ulid.Make().String(),
		Name:      name,
		AvatarID:  spec.AvatarID,
		Gender:    spec.Gender,
		BirthYear: spec.BirthYear,
		AgeRating: spec.AgeRating,
	}
	m.profiles[creds.Email] = append(m.profiles[creds.Email], p)
	return p.ULID, nil
}

// CreateSimpleProfile creates a profile with every attribute defaulted.
func (m *MockGatewayService) CreateSimpleProfile(ctx context.Context, name string, opts ...CallOption) (string, error) {
	return m.CreateProfile(ctx, name, ProfileSpec{}, opts...)
}

func (m *MockGatewayService) RemoveProfile(ctx context.Context, id string, opts ...CallOption) error {
	id, err := normalizeULID(id)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	creds, err := m.authenticate(opts)
	if err != nil {
		return err
	}
	m.calls = append(m.calls, MethodProfileRemove)

	profiles := m.profiles[creds.Email]
	idx := slices.IndexFunc(profiles, func(p Profile) bool { return p.ULID == id })
	if idx < 0 {
		applog.LogWarn(ctx, "profile deletion returned non-200 status",
			zap.String("ulid", id),
			zap.Int("status", http.StatusNotFound),
		)
		return nil
	}
	m.profiles[creds.Email] = slices.Delete(profiles, idx, idx+1)
	return nil
}

// Compile-time interface check
var _ Service = (*MockGatewayService)(nil)
