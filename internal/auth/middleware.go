package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/isdelr/tasktrack-be/internal/api/respond"
	"github.com/rs/zerolog/log"
)

const bearerPrefix = "Bearer "

// TokenVerifier resolves a session token to a user id.
type TokenVerifier interface {
	Verify(token string) (int64, error)
}

type contextKey string

// UserIDKey is the context key for the authenticated user id.
const UserIDKey = contextKey("userID")

// WithUserID returns a copy of ctx carrying userID.
func WithUserID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, UserIDKey, userID)
}

// UserIDFromContext returns the user id attached by the middleware.
func UserIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(UserIDKey).(int64)
	return id, ok && id > 0
}

// BearerToken extracts the credential from an "Authorization: Bearer <token>"
// header. The scheme is matched case-insensitively.
func BearerToken(header string) (string, bool) {
	if len(header) < len(bearerPrefix) || !strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(bearerPrefix):])
	return token, token != ""
}

// Middleware protects routes: requests without a valid bearer token are
// answered with 401 and never reach next.
func Middleware(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr, ok := BearerToken(r.Header.Get("Authorization"))
			if !ok {
				respond.Message(w, http.StatusUnauthorized, "Authorization token required")
				return
			}

			userID, err := verifier.Verify(tokenStr)
			if err != nil {
				log.Debug().Str("path", r.URL.Path).Msg("Rejected invalid auth token")
				respond.Message(w, http.StatusUnauthorized, "Invalid or expired token")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		})
	}
}
