package client

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/jwtauth/v5"
	"github.com/google/uuid"
)

// AuthUser is the session identity attached to authenticated requests
type AuthUser struct {
	UserID uuid.UUID `json:"user_id"`
	Email  string    `json:"email,omitempty"`
	Name   string    `json:"name,omitempty"`
}

func (u AuthUser) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("user_id", u.UserID.String()),
		slog.String("email", u.Email),
	)
}

// contextKey is a value for use with context.WithValue. It's used as a
// pointer so it fits in an interface{} without allocation.
type contextKey struct {
	name string
}

func (k *contextKey) String() string {
	return "foodpal context value " + k.name
}

var AuthUserKey = &contextKey{"AuthUser"}

// AuthUserMiddleware converts verified session claims into an AuthUser on the
// request context. It must run after jwtauth's Verifier and Authenticator.
func AuthUserMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, claims, err := jwtauth.FromContext(r.Context())
		if err != nil {
			http.Error(w, "missing or invalid session token", http.StatusUnauthorized)
			return
		}

		subject, _ := claims["sub"].(string)
		userID, err := uuid.Parse(subject)
		if err != nil {
			slog.Error("Session token subject is not a user id", "sub", subject, "err", err)
			http.Error(w, "invalid session token subject", http.StatusUnauthorized)
			return
		}

		authUser := &AuthUser{UserID: userID}
		if email, ok := claims["email"].(string); ok {
			authUser.Email = email
		}
		if name, ok := claims["name"].(string); ok {
			authUser.Name = name
		}

		ctx := context.WithValue(r.Context(), AuthUserKey, authUser)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// FromContext returns the AuthUser set by AuthUserMiddleware
func FromContext(ctx context.Context) (*AuthUser, bool) {
	authUser, ok := ctx.Value(AuthUserKey).(*AuthUser)
	return authUser, ok
}
