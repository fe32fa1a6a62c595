package server

import (
	"crypto/subtle"
	"net/http"
)

// tokenHeader carries the shared upload secret on mutating requests.
const tokenHeader = "X-Upload-Token"

// uploadToken returns middleware that enforces the shared-secret check on
// mutating endpoints. The check is batch-wide: a missing or wrong token
// fails the whole call before any file or path is processed. An empty
// configured token disables mutations with an explicit 400 rather than
// letting everything through.
func uploadToken(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token == "" {
				writeError(w, http.StatusBadRequest, "upload token not configured on server")
				return
			}
			provided := r.Header.Get(tokenHeader)
			if subtle.ConstantTimeCompare([]byte(provided), []byte(token)) != 1 {
				writeError(w, http.StatusUnauthorized, "invalid upload token")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
