package gateway

// JSON-RPC envelope constants shared by the client and the local simulator.
const (
	JSONRPCVersion   = "2.0"
	DefaultRequestID = "QA_e2e"
	DefaultClientID  = "prima_sso"
)

// Gateway methods.
const (
	MethodTokenPassword = "user.oauth2.token.password"
	MethodUserInfoLite  = "user.user.info.lite.byAccessToken"
	MethodProfileCreate = "user.user.profile.create"
	MethodProfileRemove = "user.user.profile.remove"
	grantTypePassword   = "password"
)

// DefaultScopes are requested with every password grant.
var DefaultScopes = []string{"email", "profile"}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  any    `json:"params"`
	ID      string `json:"id"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// rpcResponse decodes the `result.data` payload of a gateway response.
type rpcResponse[T any] struct {
	Result *rpcResult[T] `json:"result"`
	Error  *rpcError     `json:"error"`
}

type rpcResult[T any] struct {
	Data *T `json:"data"`
}

func (r rpcResponse[T]) data() *T {
	if r.Result == nil {
		return nil
	}
	return r.Result.Data
}

type tokenParams struct {
	ClientID  string   `json:"clientId"`
	GrantType string   `json:"grant_type"`
	Username  string   `json:"username"`
	Password  string   `json:"password"`
	Scope     []string `json:"scope"`
	Insecure  bool     `json:"insecure"`
}

type tokenData struct {
	AccessToken string `json:"accessToken"`
}

type userInfoParams struct {
	AccessToken string `json:"_accessToken"`
}

type createParams struct {
	Name        string    `json:"name"`
	AvatarID    string    `json:"avatarId"`
	Gender      Gender    `json:"gender"`
	BirthYear   int       `json:"birthYear"`
	AgeRating   AgeRating `json:"ageRating,omitempty"`
	PIN         string    `json:"pin,omitempty"`
	UpdatePIN   *bool     `json:"updatePin,omitempty"`
	AccessToken string    `json:"_accessToken"`
}

type createData struct {
	UserProfileULID string `json:"userProfileUlid"`
}

type removeParams struct {
	ULID        string `json:"ulid"`
	AccessToken string `json:"_accessToken"`
}

// gatewayProfile is one element of result.data.profiles.
type gatewayProfile struct {
	ULID      string  `json:"ulid"`
	Name      string  `json:"name"`
	AvatarID  string  `json:"avatarId"`
	Gender    string  `json:"gender"`
	BirthYear int     `json:"birthYear"`
	AgeRating *string `json:"ageRating"`
}
