package middleware

import (
	"context"
	"net/http"

	"hexagono-backend/internal/auth"
	"hexagono-backend/internal/transport"
)

type adminUserKey struct{}

// AdminAuth grants access with either the static API key header or a valid
// admin JWT access cookie. The username from the JWT (or "api-key") is stored
// on the context so lifecycle mutations can record the acting admin.
func AdminAuth(adminKey string, manager *auth.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if adminKey == "" && manager == nil {
				transport.WriteError(w, http.StatusServiceUnavailable, "admin auth not configured", nil)
				return
			}

			if adminKey != "" && r.Header.Get("X-Admin-Key") == adminKey {
				ctx := context.WithValue(r.Context(), adminUserKey{}, "api-key")
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			if manager != nil {
				cookie, err := r.Cookie("hexagono_access")
				if err == nil && cookie.Value != "" {
					claims, err := manager.Parse(cookie.Value)
					if err == nil && claims.Role == "admin" {
						ctx := context.WithValue(r.Context(), adminUserKey{}, claims.Username)
						next.ServeHTTP(w, r.WithContext(ctx))
						return
					}
				}
			}

			transport.WriteError(w, http.StatusUnauthorized, "unauthorized", nil)
		})
	}
}

func AdminUserFromContext(ctx context.Context) string {
	if v := ctx.Value(adminUserKey{}); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
