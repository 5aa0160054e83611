// Package middleware holds ledgerly's request middleware.
package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/ledgerly/internal/auth"
	"github.com/MrJamesThe3rd/ledgerly/internal/http/respond"
	"github.com/MrJamesThe3rd/ledgerly/internal/user"
)

// CookieName is the session cookie set on login.
const CookieName = "token"

type TokenParser interface {
	Parse(token string) (uuid.UUID, error)
}

type UserLookup interface {
	Get(ctx context.Context, id uuid.UUID) (*user.User, error)
}

type userIDKey struct{}

// Authenticate requires a valid session token for an existing user and stores the
// user id in the request context.
func Authenticate(tokens TokenParser, users UserLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := tokenFrom(r)
			if token == "" {
				respond.Message(w, http.StatusUnauthorized, "not authorized, no token")
				return
			}

			id, err := tokens.Parse(token)
			if err != nil {
				respond.Error(w, r, err)
				return
			}

			if _, err := users.Get(r.Context(), id); err != nil {
				if errors.Is(err, user.ErrNotFound) {
					respond.Error(w, r, auth.ErrInvalidToken)
					return
				}

				respond.Error(w, r, err)

				return
			}

			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), id)))
		})
	}
}

func tokenFrom(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if token, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}

	if c, err := r.Cookie(CookieName); err == nil {
		return c.Value
	}

	return ""
}

func WithUserID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, userIDKey{}, id)
}

// UserID returns the authenticated caller. Handlers behind Authenticate can rely on ok.
func UserID(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(userIDKey{}).(uuid.UUID)
	return id, ok
}
