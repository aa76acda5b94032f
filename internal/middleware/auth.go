package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/pkordes/tripplanner/internal/identity"
)

// TokenVerifier validates a bearer token and returns the user it was issued to.
// *identity.Verifier satisfies it.
type TokenVerifier interface {
	Verify(token string) (identity.User, error)
}

type ctxKey int

const (
	userKey ctxKey = iota
	tokenKey
	slotKey
)

// userSlot carries the authenticated user id back up to the request logger.
type userSlot struct{ userID string }

func withUserSlot(ctx context.Context, s *userSlot) context.Context {
	return context.WithValue(ctx, slotKey, s)
}

// NewAuthHandler returns a middleware that requires a valid
// "Authorization: Bearer <token>" header. The verified user and the raw token
// are stored in the request context; anything else is rejected with 401.
func NewAuthHandler(v TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
				writeError(w, http.StatusUnauthorized, "unauthenticated", "missing bearer token")
				return
			}
			token = strings.TrimSpace(token)

			user, err := v.Verify(token)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "unauthenticated", "invalid or expired token")
				return
			}

			if s, ok := r.Context().Value(slotKey).(*userSlot); ok {
				s.userID = user.ID
			}
			ctx := context.WithValue(r.Context(), userKey, user)
			ctx = context.WithValue(ctx, tokenKey, token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserFromContext returns the user stored by the auth middleware.
func UserFromContext(ctx context.Context) (identity.User, bool) {
	u, ok := ctx.Value(userKey).(identity.User)
	return u, ok
}

// TokenFromContext returns the bearer token stored by the auth middleware.
func TokenFromContext(ctx context.Context) string {
	t, _ := ctx.Value(tokenKey).(string)
	return t
}

// WithUser returns a copy of ctx carrying user, as the auth middleware would.
// Handler tests use it to skip token verification.
func WithUser(ctx context.Context, user identity.User, token string) context.Context {
	ctx = context.WithValue(ctx, userKey, user)
	return context.WithValue(ctx, tokenKey, token)
}

// writeError writes the API's standard error body.
func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]string{"code": code, "message": message},
	})
}
