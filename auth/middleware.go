package auth

import (
	"context"
	"net/http"
	"strings"

	"inbox-live/errors"
)

type contextKey string

const userIDKey contextKey = "user_id"

// WithUserID injects the authenticated identity into ctx.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserIDFromContext returns the identity injected by Middleware.
func UserIDFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(userIDKey).(string)
	return userID, ok && userID != ""
}

// Middleware rejects requests without a valid "Authorization: Bearer <jwt>" header
// and injects the token subject into the request context.
func Middleware(tokens *TokenManager, unauthorized func(w http.ResponseWriter, r *http.Request, err error)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, ok := bearer(r.Header.Get("Authorization"))
			if !ok {
				unauthorized(w, r, errors.ErrUnauthenticated)
				return
			}
			claims, err := tokens.Validate(tokenString)
			if err != nil {
				unauthorized(w, r, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), claims.UserID)))
		})
	}
}

func bearer(header string) (string, bool) {
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	return strings.TrimSpace(header[len(prefix):]), true
}
