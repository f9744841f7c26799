// Package auth issues and verifies the gateway simulator's access tokens.
package auth

import (
	"context"
	"errors"
)

// Account is the identity behind an access token.
type Account struct {
	ID    string
	Email string
}

// Error types for authentication failures.
var (
	// ErrInvalidCredentials indicates an unknown account or wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidToken indicates an unknown or malformed token.
	ErrInvalidToken = errors.New("invalid token")

	// ErrTokenExpired indicates the token has expired.
	ErrTokenExpired = errors.New("token expired")

	// ErrTokenRevoked indicates the token has been revoked.
	ErrTokenRevoked = errors.New("token revoked")

	// ErrUserDisabled indicates the user account is disabled.
	ErrUserDisabled = errors.New("user disabled")

	// ErrCertificateFetch indicates a network error fetching public keys.
	// This should result in HTTP 503 (service unavailable).
	ErrCertificateFetch = errors.New("failed to fetch certificates")
)

// Authenticator exchanges credentials for access tokens and resolves tokens back to accounts.
type Authenticator interface {
	SignIn(ctx context.Context, email, password string) (string, error)
	Verify(ctx context.Context, token string) (*Account, error)
}

// Category returns a log-safe category for an authentication error.
func Category(err error) string {
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, ErrTokenExpired):
		return "token_expired"
	case errors.Is(err, ErrTokenRevoked):
		return "token_revoked"
	case errors.Is(err, ErrUserDisabled):
		return "user_disabled"
	case errors.Is(err, ErrCertificateFetch):
		return "certificate_fetch_failed"
	case errors.Is(err, ErrInvalidToken):
		return "invalid_token"
	default:
		return "unknown"
	}
}
