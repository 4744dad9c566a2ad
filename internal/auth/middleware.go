package auth

import (
	"context"
	"net/http"
	"strings"
)

type contextKey string

const userKey contextKey = "current_user"

// Middleware resolves the Authorization header into a CurrentUser and injects
// it into the request context. Requests without a valid session are rejected
// with 401 before any handler runs.
func (s *Service) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenStr := bearerToken(r)
		if tokenStr == "" {
			http.Error(w, "missing session token", http.StatusUnauthorized)
			return
		}

		user, err := s.Verify(tokenStr)
		if err != nil {
			http.Error(w, "session expired or invalid", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
	})
}

func bearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return parts[1]
		}
	}
	// Query parameter fallback for transports that cannot set headers,
	// such as EventSource clients.
	return r.URL.Query().Get("token")
}

// WithUser returns a context carrying the given identity.
func WithUser(ctx context.Context, u CurrentUser) context.Context {
	return context.WithValue(ctx, userKey, u)
}

// UserFrom extracts the identity placed by Middleware. The boolean is false
// when the request never went through it.
func UserFrom(ctx context.Context) (CurrentUser, bool) {
	u, ok := ctx.Value(userKey).(CurrentUser)
	return u, ok
}
