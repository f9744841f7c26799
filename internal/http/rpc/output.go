package rpc

// CallOutput carries the HTTP status alongside the JSON-RPC envelope; the
// gateway reports failures through both.
type CallOutput struct {
	Status int
	Body   Response
}

// Response is the JSON-RPC 2.0 response envelope.
type Response struct {
	JSONRPC string  `json:"jsonrpc"`
	ID      string  `json:"id,omitempty"`
	Result  *Result `json:"result,omitempty"`
	Error   *Error  `json:"error,omitempty"`
}

// Result wraps the method payload the way the gateway does.
type Result struct {
	Data any `json:"data"`
}

// Error is a JSON-RPC error object.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}
