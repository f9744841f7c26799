// Package health serves the simulator liveness probe.
package health

import (
	"encoding/json"
	"net/http"
)

// Response is the payload for the health endpoint.
type Response struct {
	Status string `json:"status"`
	Store  string `json:"store"`
}

// Handler reports the simulator as healthy along with the profile store it runs on.
func Handler(store string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(Response{Status: "healthy", Store: store})
	}
}
