package http

import (
	"crypto/subtle"
	"net/http"

	"github.com/go-chi/httplog/v2"
	"github.com/go-chi/render"
	"github.com/vadimbarashkov/shortly/pkg/response"
)

// apiKeyHeader carries the shared secret protecting operator endpoints.
const apiKeyHeader = "X-API-Key"

// apiKeyAuth rejects requests whose X-API-Key header does not exactly match
// the configured key.
func apiKeyAuth(apiKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get(apiKeyHeader)

			if apiKey == "" || subtle.ConstantTimeCompare([]byte(key), []byte(apiKey)) != 1 {
				httplog.LogEntrySetFields(r.Context(), map[string]any{
					"auth": "api key mismatch",
				})

				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.UnauthorizedResponse)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
