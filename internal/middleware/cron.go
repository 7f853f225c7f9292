package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"hexagono-backend/internal/transport"
)

// CronAuth guards scheduled endpoints with a static bearer secret. The
// response is the same 401 whether the secret is wrong or missing, so callers
// learn nothing about the resource behind it.
func CronAuth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret == "" {
				transport.WriteError(w, http.StatusServiceUnavailable, "cron auth not configured", nil)
				return
			}

			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || subtle.ConstantTimeCompare([]byte(token), []byte(secret)) != 1 {
				transport.WriteError(w, http.StatusUnauthorized, "unauthorized", nil)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
