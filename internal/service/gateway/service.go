package gateway

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Service errors
var (
	ErrConfiguration  = errors.New("credentials required")
	ErrValidation     = errors.New("invalid argument")
	ErrAuthentication = errors.New("gateway authentication failed")
	ErrProtocol       = errors.New("malformed gateway response")
	ErrRequest        = errors.New("gateway request failed")
)

// ErrorKind classifies gateway failures that happen after a request was sent.
type ErrorKind string

const (
	KindAuthentication ErrorKind = "authentication"
	KindProtocol       ErrorKind = "protocol"
	KindRequest        ErrorKind = "request"
)

// RequestError carries the JSON-RPC method and observed HTTP status of a failed call.
type RequestError struct {
	Kind   ErrorKind
	Method string
	Status int
	cause  error
}

func (e *RequestError) Error() string {
	if e == nil {
		return "gateway request error"
	}
	if e.cause == nil {
		return fmt.Sprintf("gateway %s failed (kind=%s status=%d)", e.Method, e.Kind, e.Status)
	}
	return fmt.Sprintf("gateway %s failed (kind=%s status=%d): %v", e.Method, e.Kind, e.Status, e.cause)
}

// Unwrap enables errors.Is/As against sentinel service errors.
func (e *RequestError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// Gender of a profile as the gateway encodes it.
type Gender string

const (
	GenderMale   Gender = "M"
	GenderFemale Gender = "F"
)

// AgeRating restricts a profile to a content maturity tier. The empty value means unrestricted.
type AgeRating string

// AgeRatingKids limits content to ages 0-11.
const AgeRatingKids AgeRating = "0_11"

// Profile creation defaults applied to zero-valued ProfileSpec fields.
const (
	DefaultAvatarID  = "01"
	DefaultGender    = GenderMale
	DefaultBirthYear = 2000
)

// Credentials identify the account every call acts as.
type Credentials struct {
	Email    string
	Password string
}

// Validate reports ErrConfiguration when either field is blank.
func (c Credentials) Validate() error {
	if strings.TrimSpace(c.Email) == "" || strings.TrimSpace(c.Password) == "" {
		return fmt.Errorf("%w: email and password are required for authentication", ErrConfiguration)
	}
	return nil
}

// ProfileSpec describes a profile to create. Zero values take the package defaults;
// AgeRating, PIN and UpdatePIN are only sent when set.
type ProfileSpec struct {
	AvatarID  string
	Gender    Gender
	BirthYear int
	AgeRating AgeRating
	PIN       string
	UpdatePIN *bool
}

var pinRe = regexp.MustCompile(`^[0-9]{4}$`)

// Validate checks the enumerated fields. It does not apply defaults.
func (s ProfileSpec) Validate() error {
	switch s.Gender {
	case "", GenderMale, GenderFemale:
	default:
		return fmt.Errorf("%w: gender must be M or F, got %q", ErrValidation, s.Gender)
	}
	switch s.AgeRating {
	case "", AgeRatingKids:
	default:
		return fmt.Errorf("%w: unsupported age rating %q", ErrValidation, s.AgeRating)
	}
	if s.PIN != "" && !pinRe.MatchString(s.PIN) {
		return fmt.Errorf("%w: pin must be four digits", ErrValidation)
	}
	if s.BirthYear < 0 {
		return fmt.Errorf("%w: birth year must be positive", ErrValidation)
	}
	return nil
}

// WithDefaults returns a copy with zero-valued fields replaced by the package defaults.
func (s ProfileSpec) WithDefaults() ProfileSpec {
	if s.AvatarID == "" {
		s.AvatarID = DefaultAvatarID
	}
	if s.Gender == "" {
		s.Gender = DefaultGender
	}
	if s.BirthYear == 0 {
		s.BirthYear = DefaultBirthYear
	}
	return s
}

// Profile is one entry of the account's profile list.
type Profile struct {
	ULID      string
	Name      string
	AvatarID  string
	Gender    Gender
	BirthYear int
	AgeRating AgeRating
}

// CallOption overrides per-call settings.
type CallOption func(*callOptions)

type callOptions struct {
	creds Credentials
}

// WithCredentials makes a single call act as another account. Empty values fall back to the client defaults.
func WithCredentials(email, password string) CallOption {
	return func(o *callOptions) {
		if email != "" {
			o.creds.Email = email
		}
		if password != "" {
			o.creds.Password = password
		}
	}
}

func resolveCredentials(defaults Credentials, opts []CallOption) (Credentials, error) {
	o := callOptions{creds: defaults}
	for _, opt := range opts {
		opt(&o)
	}
	if err := o.creds.Validate(); err != nil {
		return Credentials{}, err
	}
	return o.creds, nil
}

func normalizeName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%w: profile name is required and cannot be empty", ErrValidation)
	}
	return name, nil
}

func normalizeULID(ulid string) (string, error) {
	ulid = strings.TrimSpace(ulid)
	if ulid == "" {
		return "", fmt.Errorf("%w: profile ULID is required for deletion", ErrValidation)
	}
	return ulid, nil
}

// Service defines the profile lifecycle operations against the gateway.
//
// Every method authenticates on its own; nothing is cached between calls.
type Service interface {
	AccessToken(ctx context.Context, opts ...CallOption) (string, error)
	ListProfileIDs(ctx context.Context, opts ...CallOption) ([]string, error)
	ListProfiles(ctx context.Context, opts ...CallOption) ([]Profile, error)
	CreateProfile(ctx context.Context, name string, spec ProfileSpec, opts ...CallOption) (string, error)
	CreateSimpleProfile(ctx context.Context, name string, opts ...CallOption) (string, error)
	RemoveProfile(ctx context.Context, ulid string, opts ...CallOption) error
}
