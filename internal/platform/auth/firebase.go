package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"

	fbauth "firebase.google.com/go/v4/auth"
)

const (
	identityToolkitURL = "https://identitytoolkit.googleapis.com"
	authEmulatorEnv    = "FIREBASE_AUTH_EMULATOR_HOST"
)

// FirebaseAuthenticator signs accounts in with Firebase email/password auth and
// verifies the resulting ID tokens with the Admin SDK.
type FirebaseAuthenticator struct {
	client     *fbauth.Client
	httpClient *http.Client
	apiKey     string
	baseURL    string
}

// NewFirebaseAuthenticator creates an authenticator for the project behind client.
// When FIREBASE_AUTH_EMULATOR_HOST is set, sign in goes to the emulator.
func NewFirebaseAuthenticator(client *fbauth.Client, apiKey string) *FirebaseAuthenticator {
	base := identityToolkitURL
	if host := os.Getenv(authEmulatorEnv); host != "" {
		base = "http://" + host + "/identitytoolkit.googleapis.com"
	}
	return &FirebaseAuthenticator{
		client:     client,
		httpClient: http.DefaultClient,
		apiKey:     apiKey,
		baseURL:    base,
	}
}

type signInRequest struct {
	Email             string `json:"email"`
	Password          string `json:"password"`
	ReturnSecureToken bool   `json:"returnSecureToken"`
}

type signInResponse struct {
	IDToken string `json:"idToken"`
	Error   *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// SignIn exchanges email and password for a Firebase ID token.
func (a *FirebaseAuthenticator) SignIn(ctx context.Context, email, password string) (string, error) {
	body, err := json.Marshal(signInRequest{Email: email, Password: password, ReturnSecureToken: true})
	if err != nil {
		return "", err
	}
	endpoint := a.baseURL + "/v1/accounts:signInWithPassword?key=" + url.QueryEscape(a.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("firebase sign in: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	var out signInResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decoding sign in response: %w", err)
	}
	if resp.StatusCode != http.StatusOK || out.IDToken == "" {
		if out.Error != nil && strings.HasPrefix(out.Error.Message, "USER_DISABLED") {
			return "", ErrUserDisabled
		}
		return "", ErrInvalidCredentials
	}
	return out.IDToken, nil
}

// Verify validates a Firebase ID token and checks for revocation.
func (a *FirebaseAuthenticator) Verify(ctx context.Context, idToken string) (*Account, error) {
	token, err := a.client.VerifyIDTokenAndCheckRevoked(ctx, idToken)
	if err != nil {
		switch {
		case fbauth.IsCertificateFetchFailed(err):
			return nil, ErrCertificateFetch
		case fbauth.IsIDTokenExpired(err):
			return nil, ErrTokenExpired
		case fbauth.IsIDTokenRevoked(err):
			return nil, ErrTokenRevoked
		case fbauth.IsUserDisabled(err):
			return nil, ErrUserDisabled
		default:
			return nil, ErrInvalidToken
		}
	}

	email, _ := token.Claims["email"].(string)
	return &Account{
		ID:    token.UID,
		Email: normalizeEmail(email),
	}, nil
}

// Compile-time interface check
var _ Authenticator = (*FirebaseAuthenticator)(nil)
