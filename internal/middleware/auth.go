// Package middleware provides HTTP middleware for the trigger API:
// service-token auth, request ids, request logging, and rate limiting.
package middleware

import (
	"crypto/sha256"
	"encoding/json"
	"net/http"
)

// ServiceTokenHeader carries the static shared token on mutating requests.
const ServiceTokenHeader = "X-Service-Token"

// ServiceToken guards an endpoint with a static shared token. An empty
// configured token disables the check. Tokens are compared as fixed-size
// sha256 digests, never as raw strings.
func ServiceToken(token string) func(http.Handler) http.Handler {
	want := sha256.Sum256([]byte(token))
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}
			got := sha256.Sum256([]byte(r.Header.Get(ServiceTokenHeader)))
			if got != want {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				json.NewEncoder(w).Encode(map[string]interface{}{ //nolint:errcheck
					"code":    http.StatusUnauthorized,
					"message": "unauthorized: provide a valid service token",
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
