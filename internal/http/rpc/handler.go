// Package rpc serves a local stand-in for the JSON-RPC gateway.
package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"go.uber.org/zap"

	"github.com/janisto/prima-profile-e2e/internal/platform/auth"
	applog "github.com/janisto/prima-profile-e2e/internal/platform/logging"
	appmiddleware "github.com/janisto/prima-profile-e2e/internal/platform/middleware"
	"github.com/janisto/prima-profile-e2e/internal/platform/timeutil"
	"github.com/janisto/prima-profile-e2e/internal/service/gateway"
	profilesvc "github.com/janisto/prima-profile-e2e/internal/service/profile"
)

// Path is where the gateway endpoint is mounted.
const Path = "/json-rpc/"

// JSON-RPC 2.0 error codes.
const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
)

type handler struct {
	auth     auth.Authenticator
	profiles profilesvc.Service
	clientID string
}

// Register registers the JSON-RPC endpoint.
func Register(api huma.API, authenticator auth.Authenticator, svc profilesvc.Service) {
	h := &handler{auth: authenticator, profiles: svc, clientID: gateway.DefaultClientID}

	// The envelope is decoded by the handler so malformed bodies get JSON-RPC errors.
	huma.Register(api, huma.Operation{
		OperationID:      "json-rpc",
		Method:           http.MethodPost,
		Path:             Path,
		Summary:          "JSON-RPC gateway",
		Description:      "Dispatches token, user info and profile methods. Failures set both the HTTP status and the JSON-RPC error.",
		Tags:             []string{"Gateway"},
		SkipValidateBody: true,
	}, h.call)
}

func (h *handler) call(ctx context.Context, input *CallInput) (*CallOutput, error) {
	if appmiddleware.ValidID(input.RunID) {
		ctx = applog.WithRunID(ctx, input.RunID)
	}

	var req Request
	if err := json.Unmarshal(input.RawBody, &req); err != nil {
		return failure("", http.StatusBadRequest, codeParseError, "parse error"), nil
	}
	if req.JSONRPC != gateway.JSONRPCVersion || req.Method == "" {
		return failure(req.ID, http.StatusBadRequest, codeInvalidRequest, "invalid request"), nil
	}
	applog.LogInfo(ctx, "rpc call", zap.String("method", req.Method), zap.String("id", req.ID))

	switch req.Method {
	case gateway.MethodTokenPassword:
		return h.token(ctx, req)
	case gateway.MethodUserInfoLite:
		return h.userInfo(ctx, req)
	case gateway.MethodProfileCreate:
		return h.createProfile(ctx, req)
	case gateway.MethodProfileRemove:
		return h.removeProfile(ctx, req)
	default:
		return failure(req.ID, http.StatusBadRequest, codeMethodNotFound, "method not found: "+req.Method), nil
	}
}

func (h *handler) token(ctx context.Context, req Request) (*CallOutput, error) {
	var p tokenParams
	if err := decodeParams(req.Params, &p); err != nil {
		return invalidParams(req.ID, err), nil
	}
	if p.GrantType != "password" {
		return failure(req.ID, http.StatusBadRequest, codeInvalidParams, "unsupported grant_type"), nil
	}
	if p.ClientID != h.clientID {
		return failure(req.ID, http.StatusBadRequest, codeInvalidParams, "unknown clientId"), nil
	}

	token, err := h.auth.SignIn(ctx, p.Username, p.Password)
	if err != nil {
		return authFailure(ctx, req.ID, err), nil
	}
	return success(req.ID, TokenData{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int(auth.DefaultTokenTTL.Seconds()),
		Scope:       p.Scope,
	}), nil
}

func (h *handler) userInfo(ctx context.Context, req Request) (*CallOutput, error) {
	var p accessParams
	if err := decodeParams(req.Params, &p); err != nil {
		return invalidParams(req.ID, err), nil
	}
	account, err := h.verify(ctx, p.AccessToken)
	if err != nil {
		return authFailure(ctx, req.ID, err), nil
	}

	stored, err := h.profiles.List(ctx, account.Email)
	if err != nil {
		return serviceFailure(ctx, req.ID, err), nil
	}
	profiles := make([]Profile, 0, len(stored))
	for _, sp := range stored {
		profiles = append(profiles, toHTTPProfile(sp))
	}
	return success(req.ID, UserInfoData{
		UserID:   account.ID,
		Email:    account.Email,
		Profiles: profiles,
	}), nil
}

func (h *handler) createProfile(ctx context.Context, req Request) (*CallOutput, error) {
	var p createParams
	if err := decodeParams(req.Params, &p); err != nil {
		return invalidParams(req.ID, err), nil
	}
	account, err := h.verify(ctx, p.AccessToken)
	if err != nil {
		return authFailure(ctx, req.ID, err), nil
	}

	name := strings.TrimSpace(p.Name)
	if name == "" {
		return failure(req.ID, http.StatusUnprocessableEntity, http.StatusUnprocessableEntity, "name is required"), nil
	}
	spec := gateway.ProfileSpec{
		AvatarID:  p.AvatarID,
		Gender:    gateway.Gender(p.Gender),
		BirthYear: p.BirthYear,
		PIN:       p.PIN,
		UpdatePIN: p.UpdatePIN,
	}
	if p.AgeRating != nil {
		spec.AgeRating = gateway.AgeRating(*p.AgeRating)
	}
	if err := spec.Validate(); err != nil {
		return failure(req.ID, http.StatusUnprocessableEntity, http.StatusUnprocessableEntity, err.Error()), nil
	}
	spec = spec.WithDefaults()

	created, err := h.profiles.Create(ctx, account.Email, profilesvc.CreateParams{
		Name:      name,
		AvatarID:  spec.AvatarID,
		Gender:    string(spec.Gender),
		BirthYear: spec.BirthYear,
		AgeRating: string(spec.AgeRating),
		PIN:       spec.PIN,
	})
	if err != nil {
		return serviceFailure(ctx, req.ID, err), nil
	}
	return success(req.ID, CreateData{UserProfileULID: created.ULID}), nil
}

func (h *handler) removeProfile(ctx context.Context, req Request) (*CallOutput, error) {
	var p removeParams
	if err := decodeParams(req.Params, &p); err != nil {
		return invalidParams(req.ID, err), nil
	}
	account, err := h.verify(ctx, p.AccessToken)
	if err != nil {
		return authFailure(ctx, req.ID, err), nil
	}
	id := strings.TrimSpace(p.ULID)
	if id == "" {
		return failure(req.ID, http.StatusUnprocessableEntity, http.StatusUnprocessableEntity, "ulid is required"), nil
	}

	if err := h.profiles.Delete(ctx, account.Email, id); err != nil {
		return serviceFailure(ctx, req.ID, err), nil
	}
	return success(req.ID, RemoveData{Removed: true}), nil
}

func (h *handler) verify(ctx context.Context, token string) (*auth.Account, error) {
	if token == "" {
		return nil, auth.ErrInvalidToken
	}
	return h.auth.Verify(ctx, token)
}

func decodeParams(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return errors.New("params are required")
	}
	return json.Unmarshal(raw, v)
}

func success(id string, data any) *CallOutput {
	return &CallOutput{
		Status: http.StatusOK,
		Body: Response{
			JSONRPC: gateway.JSONRPCVersion,
			ID:      id,
			Result:  &Result{Data: data},
		},
	}
}

func failure(id string, status, code int, msg string) *CallOutput {
	return &CallOutput{
		Status: status,
		Body: Response{
			JSONRPC: gateway.JSONRPCVersion,
			ID:      id,
			Error:   &Error{Code: code, Message: msg},
		},
	}
}

func invalidParams(id string, err error) *CallOutput {
	return failure(id, http.StatusBadRequest, codeInvalidParams, "invalid params: "+err.Error())
}

func authFailure(ctx context.Context, id string, err error) *CallOutput {
	reason := auth.Category(err)
	applog.LogWarn(ctx, "rpc auth failed", zap.String("reason", reason))
	if errors.Is(err, auth.ErrCertificateFetch) {
		return failure(id, http.StatusServiceUnavailable, http.StatusServiceUnavailable,
			"authentication service temporarily unavailable")
	}
	if errors.Is(err, auth.ErrInvalidCredentials) {
		return failure(id, http.StatusUnauthorized, http.StatusUnauthorized, "invalid username or password")
	}
	return failure(id, http.StatusUnauthorized, http.StatusUnauthorized, "invalid or expired access token")
}

func serviceFailure(ctx context.Context, id string, err error) *CallOutput {
	switch {
	case errors.Is(err, profilesvc.ErrNotFound):
		return failure(id, http.StatusNotFound, http.StatusNotFound, "profile not found")
	case errors.Is(err, profilesvc.ErrLimitReached):
		return failure(id, http.StatusConflict, http.StatusConflict, "profile limit reached")
	default:
		applog.LogError(ctx, "profile store failed", err)
		return failure(id, http.StatusInternalServerError, http.StatusInternalServerError, "internal error")
	}
}

func toHTTPProfile(p profilesvc.Profile) Profile {
	var rating *string
	if p.AgeRating != "" {
		r := p.AgeRating
		rating = &r
	}
	return Profile{
		ULID:      p.ULID,
		Name:      p.Name,
		AvatarID:  p.AvatarID,
		Gender:    p.Gender,
		BirthYear: p.BirthYear,
		AgeRating: rating,
		PIN:       p.PINSet,
		CreatedAt: timeutil.NewTime(p.CreatedAt),
	}
}
