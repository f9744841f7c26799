package rpc

import "github.com/janisto/prima-profile-e2e/internal/platform/timeutil"

// Profile is one element of the user info profile list.
type Profile struct {
	ULID      string        `json:"ulid"         doc:"Profile ULID"`
	Name      string        `json:"name"         doc:"Display name"`
	AvatarID  string        `json:"avatarId"     doc:"Avatar identifier"`
	Gender    string        `json:"gender"       doc:"M or F"`
	BirthYear int           `json:"birthYear"    doc:"Birth year"`
	AgeRating *string       `json:"ageRating"    doc:"Content restriction tier, null when unrestricted"`
	PIN       bool          `json:"pinProtected" doc:"Whether the profile is PIN protected"`
	CreatedAt timeutil.Time `json:"createdAt"    doc:"Creation timestamp" example:"2024-01-15T10:30:00.000Z"`
}

// TokenData is the password grant result.
type TokenData struct {
	AccessToken string   `json:"accessToken"`
	TokenType   string   `json:"tokenType"`
	ExpiresIn   int      `json:"expiresIn"`
	Scope       []string `json:"scope"`
}

// UserInfoData is the user info lite result.
type UserInfoData struct {
	UserID   string    `json:"userId"`
	Email    string    `json:"email"`
	Profiles []Profile `json:"profiles"`
}

// CreateData is the profile creation result.
type CreateData struct {
	UserProfileULID string `json:"userProfileUlid"`
}

// RemoveData is the profile removal result.
type RemoveData struct {
	Removed bool `json:"removed"`
}
