package auth

import (
	"context"
	"crypto/subtle"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultTokenTTL matches the lifetime of the real gateway's access tokens.
const DefaultTokenTTL = time.Hour

type session struct {
	account Account
	expires time.Time
}

// StaticAuthenticator keeps accounts and issued tokens in memory.
type StaticAuthenticator struct {
	mu       sync.Mutex
	ttl      time.Duration
	now      func() time.Time
	accounts map[string]string
	sessions map[string]session
}

// NewStaticAuthenticator creates an authenticator without accounts. ttl <= 0 uses DefaultTokenTTL.
func NewStaticAuthenticator(ttl time.Duration) *StaticAuthenticator {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &StaticAuthenticator{
		ttl:      ttl,
		now:      time.Now,
		accounts: make(map[string]string),
		sessions: make(map[string]session),
	}
}

// AddAccount registers an account. Emails are case-insensitive.
func (a *StaticAuthenticator) AddAccount(email, password string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.accounts[normalizeEmail(email)] = password
}

// SignIn returns a fresh opaque token for valid credentials.
func (a *StaticAuthenticator) SignIn(_ context.Context, email, password string) (string, error) {
	email = normalizeEmail(email)

	a.mu.Lock()
	defer a.mu.Unlock()

	want, ok := a.accounts[email]
	if !ok || subtle.ConstantTimeCompare([]byte(want), []byte(password)) != 1 {
		return "", ErrInvalidCredentials
	}
	now := a.now()
	a.pruneLocked(now)
	token := uuid.NewString()
	a.sessions[token] = session{
		account: Account{ID: email, Email: email},
		expires: now.Add(a.ttl),
	}
	return token, nil
}

// pruneLocked drops expired sessions. a.mu must be held.
func (a *StaticAuthenticator) pruneLocked(now time.Time) {
	for token, s := range a.sessions {
		if !now.Before(s.expires) {
			delete(a.sessions, token)
		}
	}
}

// Verify resolves a token issued by SignIn.
func (a *StaticAuthenticator) Verify(_ context.Context, token string) (*Account, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	s, ok := a.sessions[token]
	if !ok {
		return nil, ErrInvalidToken
	}
	if !a.now().Before(s.expires) {
		delete(a.sessions, token)
		return nil, ErrTokenExpired
	}
	account := s.account
	return &account, nil
}

// Revoke invalidates a token.
func (a *StaticAuthenticator) Revoke(token string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.sessions, token)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Compile-time interface check
var _ Authenticator = (*StaticAuthenticator)(nil)
