package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	applog "github.com/janisto/prima-profile-e2e/internal/platform/logging"
)

const (
	// DefaultEndpoint is the production JSON-RPC gateway.
	DefaultEndpoint = "https://gateway-api.prod.iprima.cz/json-rpc/"
	userAgent       = "prima-profile-e2e"
	resourceProfile = "profile"
)

// Client implements Service over the gateway's JSON-RPC endpoint.
//
// Client holds no session state: every operation requests a fresh access token.
type Client struct {
	httpClient *http.Client
	endpoint   string
	clientID   string
	requestID  string
	defaults   Credentials
}

// Option configures a Client.
type Option func(*Client)

// WithEndpoint sets a custom JSON-RPC URL (useful for testing).
func WithEndpoint(url string) Option {
	return func(c *Client) {
		c.endpoint = url
	}
}

// WithDefaultCredentials sets the account used when a call passes no WithCredentials.
func WithDefaultCredentials(email, password string) Option {
	return func(c *Client) {
		c.defaults = Credentials{Email: email, Password: password}
	}
}

// WithClientID overrides the OAuth2 client identifier sent with the password grant.
func WithClientID(id string) Option {
	return func(c *Client) {
		c.clientID = id
	}
}

// WithRequestID overrides the JSON-RPC id sent with every call.
func WithRequestID(id string) Option {
	return func(c *Client) {
		c.requestID = id
	}
}

// NewClient creates a gateway client. A nil httpClient uses http.DefaultClient;
// request deadlines belong to the supplied client's configuration.
func NewClient(httpClient *http.Client, opts ...Option) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	c := &Client{
		httpClient: httpClient,
		endpoint:   DefaultEndpoint,
		clientID:   DefaultClientID,
		requestID:  DefaultRequestID,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) call(ctx context.Context, method string, params any) (*http.Response, error) {
	body, err := json.Marshal(rpcRequest{
		JSONRPC: JSONRPCVersion,
		Method:  method,
		Params:  params,
		ID:      c.requestID,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding %s request: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if runID := applog.RunIDFromContext(ctx); runID != nil {
		req.Header.Set(applog.RunIDHeader, *runID)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling %s: %w", method, err)
	}
	applog.LogDebug(ctx, "gateway call",
		zap.String("method", method),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)
	return resp, nil
}

// closeBody drains what is left of the body so the connection can be reused.
func closeBody(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	_ = resp.Body.Close()
}

// AccessToken performs the password grant and returns the bearer token.
func (c *Client) AccessToken(ctx context.Context, opts ...CallOption) (string, error) {
	creds, err := resolveCredentials(c.defaults, opts)
	if err != nil {
		return "", err
	}
	return c.accessToken(ctx, creds)
}

func (c *Client) accessToken(ctx context.Context, creds Credentials) (string, error) {
	resp, err := c.call(ctx, MethodTokenPassword, tokenParams{
		ClientID:  c.clientID,
		GrantType: grantTypePassword,
		Username:  creds.Email,
		Password:  creds.Password,
		Scope:     DefaultScopes,
		Insecure:  false,
	})
	if err != nil {
		return "", err
	}
	defer closeBody(resp)

	if resp.StatusCode != http.StatusOK {
		return "", &RequestError{
			Kind:   KindAuthentication,
			Method: MethodTokenPassword,
			Status: resp.StatusCode,
			cause:  ErrAuthentication,
		}
	}

	var out rpcResponse[tokenData]
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", protocolError(MethodTokenPassword, resp.StatusCode, fmt.Errorf("decoding body: %w", err))
	}
	data := out.data()
	if data == nil || data.AccessToken == "" {
		return "", protocolError(MethodTokenPassword, resp.StatusCode, describeMissing("access token", out.Error))
	}
	return data.AccessToken, nil
}

// ListProfileIDs returns the account's profile ULIDs in server order.
//
// A 200 response without a usable profile list yields an empty slice and a warning,
// so "no profiles" and "malformed payload" look the same to callers.
func (c *Client) ListProfileIDs(ctx context.Context, opts ...CallOption) ([]string, error) {
	creds, err := resolveCredentials(c.defaults, opts)
	if err != nil {
		return nil, err
	}
	token, err := c.accessToken(ctx, creds)
	if err != nil {
		return nil, err
	}

	resp, err := c.call(ctx, MethodUserInfoLite, userInfoParams{AccessToken: token})
	if err != nil {
		return nil, err
	}
	defer closeBody(resp)

	if resp.StatusCode != http.StatusOK {
		return nil, &RequestError{
			Kind:   KindRequest,
			Method: MethodUserInfoLite,
			Status: resp.StatusCode,
			cause:  ErrRequest,
		}
	}

	var out rpcResponse[struct {
		Profiles json.RawMessage `json:"profiles"`
	}]
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		applog.LogWarn(ctx, "no profiles found or invalid response structure", zap.Error(err))
		return []string{}, nil
	}
	data := out.data()
	if data == nil {
		applog.LogWarn(ctx, "no profiles found or invalid response structure")
		return []string{}, nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(data.Profiles, &items); err != nil || items == nil {
		applog.LogWarn(ctx, "no profiles found or invalid response structure")
		return []string{}, nil
	}

	ids := make([]string, 0, len(items))
	for _, raw := range items {
		var item struct {
			ULID string `json:"ulid"`
		}
		if err := json.Unmarshal(raw, &item); err != nil || item.ULID == "" {
			continue
		}
		ids = append(ids, item.ULID)
	}
	return ids, nil
}

// ListProfiles returns the account's profiles with their attributes.
// Unlike ListProfileIDs, a missing profile list is an ErrProtocol failure.
func (c *Client) ListProfiles(ctx context.Context, opts ...CallOption) ([]Profile, error) {
	creds, err := resolveCredentials(c.defaults, opts)
	if err != nil {
		return nil, err
	}
	token, err := c.accessToken(ctx, creds)
	if err != nil {
		return nil, err
	}

	resp, err := c.call(ctx, MethodUserInfoLite, userInfoParams{AccessToken: token})
	if err != nil {
		return nil, err
	}
	defer closeBody(resp)

	if resp.StatusCode != http.StatusOK {
		return nil, &RequestError{
			Kind:   KindRequest,
			Method: MethodUserInfoLite,
			Status: resp.StatusCode,
			cause:  ErrRequest,
		}
	}

	var out rpcResponse[struct {
		Profiles *[]gatewayProfile `json:"profiles"`
	}]
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, protocolError(MethodUserInfoLite, resp.StatusCode, fmt.Errorf("decoding body: %w", err))
	}
	data := out.data()
	if data == nil || data.Profiles == nil {
		return nil, protocolError(MethodUserInfoLite, resp.StatusCode, describeMissing("profile list", out.Error))
	}

	profiles := make([]Profile, 0, len(*data.Profiles))
	for _, p := range *data.Profiles {
		profiles = append(profiles, toProfile(p))
	}
	return profiles, nil
}

// CreateProfile creates a profile named name (trimmed) and returns its ULID.
func (c *Client) CreateProfile(ctx context.Context, name string, spec ProfileSpec, opts ...CallOption) (string, error) {
	name, err := normalizeName(name)
	if err != nil {
		return "", err
	}
	if err := spec.Validate(); err != nil {
		return "", err
	}
	creds, err := resolveCredentials(c.defaults, opts)
	if err != nil {
		return "", err
	}
	token, err := c.accessToken(ctx, creds)
	if err != nil {
		return "", err
	}

	spec = spec.WithDefaults()
	applog.LogInfo(ctx, "creating profile",
		zap.String("name", name),
		zap.String("gender", string(spec.Gender)),
		zap.Int("birthYear", spec.BirthYear),
		zap.String("avatarId", spec.AvatarID),
		zap.String("ageRating", string(spec.AgeRating)),
		zap.Bool("pin", spec.PIN != ""),
	)

	resp, err := c.call(ctx, MethodProfileCreate, createParams{
		Name:        name,
		AvatarID:    spec.AvatarID,
		Gender:      spec.Gender,
		BirthYear:   spec.BirthYear,
		AgeRating:   spec.AgeRating,
		PIN:         spec.PIN,
		UpdatePIN:   spec.UpdatePIN,
		AccessToken: token,
	})
	if err != nil {
		return "", err
	}
	defer closeBody(resp)

	if resp.StatusCode != http.StatusOK {
		applog.LogAuditEvent(ctx, "create", creds.Email, resourceProfile, "", applog.AuditFailure,
			map[string]any{"status": resp.StatusCode, "name": name})
		return "", &RequestError{
			Kind:   KindRequest,
			Method: MethodProfileCreate,
			Status: resp.StatusCode,
			cause:  ErrRequest,
		}
	}

	var out rpcResponse[createData]
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", protocolError(MethodProfileCreate, resp.StatusCode, fmt.Errorf("decoding body: %w", err))
	}
	data := out.data()
	if data == nil || data.UserProfileULID == "" {
		return "", protocolError(MethodProfileCreate, resp.StatusCode, describeMissing("userProfileUlid", out.Error))
	}

	applog.LogAuditEvent(ctx, "create", creds.Email, resourceProfile, data.UserProfileULID, applog.AuditSuccess, nil)
	return data.UserProfileULID, nil
}

// CreateSimpleProfile creates a profile with every attribute defaulted.
func (c *Client) CreateSimpleProfile(ctx context.Context, name string, opts ...CallOption) (string, error) {
	return c.CreateProfile(ctx, name, ProfileSpec{}, opts...)
}

// RemoveProfile deletes the profile with the given ULID.
//
// Removal is best effort: a non-200 status is logged and nil is returned so that
// cleanup never fails the test that triggered it. Validation, authentication and
// transport errors are still returned.
func (c *Client) RemoveProfile(ctx context.Context, ulid string, opts ...CallOption) error {
	ulid, err := normalizeULID(ulid)
	if err != nil {
		return err
	}
	creds, err := resolveCredentials(c.defaults, opts)
	if err != nil {
		return err
	}
	token, err := c.accessToken(ctx, creds)
	if err != nil {
		return err
	}

	resp, err := c.call(ctx, MethodProfileRemove, removeParams{ULID: ulid, AccessToken: token})
	if err != nil {
		return err
	}
	defer closeBody(resp)

	if resp.StatusCode != http.StatusOK {
		applog.LogWarn(ctx, "profile deletion returned non-200 status",
			zap.String("ulid", ulid),
			zap.Int("status", resp.StatusCode),
		)
		applog.LogAuditEvent(ctx, "remove", creds.Email, resourceProfile, ulid, applog.AuditFailure,
			map[string]any{"status": resp.StatusCode})
	} else {
		applog.LogAuditEvent(ctx, "remove", creds.Email, resourceProfile, ulid, applog.AuditSuccess, nil)
	}
	applog.LogInfo(ctx, "profile deletion request completed", zap.String("ulid", ulid))
	return nil
}

func protocolError(method string, status int, detail error) *RequestError {
	return &RequestError{
		Kind:   KindProtocol,
		Method: method,
		Status: status,
		cause:  fmt.Errorf("%w: %w", ErrProtocol, detail),
	}
}

func describeMissing(field string, rpcErr *rpcError) error {
	if rpcErr != nil {
		return fmt.Errorf("%s not found (rpc error %d: %s)", field, rpcErr.Code, rpcErr.Message)
	}
	return fmt.Errorf("%s not found", field)
}

func toProfile(p gatewayProfile) Profile {
	rating := AgeRating("")
	if p.AgeRating != nil {
		rating = AgeRating(*p.AgeRating)
	}
	return Profile{
		ULID:      p.ULID,
		Name:      p.Name,
		AvatarID:  p.AvatarID,
		Gender:    Gender(p.Gender),
		BirthYear: p.BirthYear,
		AgeRating: rating,
	}
}

// Compile-time interface check
var _ Service = (*Client)(nil)
