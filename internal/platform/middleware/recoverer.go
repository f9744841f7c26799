package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"
	"runtime/debug"

	"go.uber.org/zap"

	applog "github.com/janisto/prima-profile-e2e/internal/platform/logging"
)

const codeInternalError = -32603

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcErrorResponse struct {
	JSONRPC string   `json:"jsonrpc"`
	Error   rpcError `json:"error"`
}

// WriteRPCError renders a bare JSON-RPC error envelope. Used for responses the
// huma API never sees: panics and unknown routes.
func WriteRPCError(w http.ResponseWriter, status, code int, msg string) error {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(rpcErrorResponse{
		JSONRPC: "2.0",
		Error:   rpcError{Code: code, Message: msg},
	})
}

// Recoverer turns a panic into a 500 JSON-RPC internal error and logs the stack.
func Recoverer() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				err, ok := rec.(error)
				if !ok {
					err = fmt.Errorf("%v", rec)
				}
				applog.LogError(r.Context(), "panic recovered", err, zap.ByteString("stack", debug.Stack()))
				if writeErr := WriteRPCError(w, http.StatusInternalServerError, codeInternalError, "internal error"); writeErr != nil {
					applog.LogError(r.Context(), "failed to render internal error", writeErr)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// NotFound answers unknown routes with a JSON-RPC style 404.
func NotFound() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := WriteRPCError(w, http.StatusNotFound, http.StatusNotFound, "not found"); err != nil {
			applog.LogError(r.Context(), "failed to render not found", err)
		}
	}
}

// MethodNotAllowed answers wrong verbs on known routes.
func MethodNotAllowed() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := WriteRPCError(w, http.StatusMethodNotAllowed, http.StatusMethodNotAllowed, "method not allowed"); err != nil {
			applog.LogError(r.Context(), "failed to render method not allowed", err)
		}
	}
}
