package rpc

import "encoding/json"

// CallInput for POST /json-rpc/. The envelope is decoded by the handler so that
// malformed calls get JSON-RPC errors instead of schema validation failures.
type CallInput struct {
	RunID   string `header:"X-Run-Id" doc:"Suite run identifier, echoed into logs"`
	RawBody []byte `contentType:"application/json"`
}

// Request is the JSON-RPC 2.0 envelope.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
	ID      string          `json:"id"`
}

type tokenParams struct {
	ClientID  string   `json:"clientId"`
	GrantType string   `json:"grant_type"`
	Username  string   `json:"username"`
	Password  string   `json:"password"`
	Scope     []string `json:"scope"`
	Insecure  bool     `json:"insecure"`
}

type accessParams struct {
	AccessToken string `json:"_accessToken"`
}

type createParams struct {
	Name        string  `json:"name"`
	AvatarID    string  `json:"avatarId"`
	Gender      string  `json:"gender"`
	BirthYear   int     `json:"birthYear"`
	AgeRating   *string `json:"ageRating"`
	PIN         string  `json:"pin"`
	UpdatePIN   *bool   `json:"updatePin"`
	AccessToken string  `json:"_accessToken"`
}

type removeParams struct {
	ULID        string `json:"ulid"`
	AccessToken string `json:"_accessToken"`
}
