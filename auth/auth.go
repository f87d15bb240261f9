// Package auth resolves bearer tokens into identities.
package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

var ErrUnauthenticated = errors.New("unauthenticated")

// Identity is the signed-in user as seen by the handlers.
type Identity struct {
	UID      string `json:"uid"`
	Username string `json:"username"`
	PhotoURL string `json:"photo_url,omitempty"`
	Email    string `json:"email,omitempty"`
}

// Provider verifies a bearer token.
type Provider interface {
	Verify(ctx context.Context, token string) (*Identity, error)
}

type ctxKey struct{}

func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

func FromContext(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(*Identity)
	return id, ok && id != nil
}

// BearerToken extracts the token from an Authorization header.
func BearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(h, "Bearer ")
	if !ok {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// Middleware rejects requests without a valid bearer token and stores the
// identity on the request context.
func Middleware(p Provider) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := BearerToken(r)
			if !ok {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			id, err := p.Verify(r.Context(), token)
			if err != nil {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

// Admins is the set of uids allowed to manage prompts.
type Admins map[string]bool

// ParseAdmins reads a comma separated uid list.
func ParseAdmins(csv string) Admins {
	a := Admins{}
	for _, uid := range strings.Split(csv, ",") {
		if uid = strings.TrimSpace(uid); uid != "" {
			a[uid] = true
		}
	}
	return a
}

func (a Admins) Allows(id *Identity) bool {
	return id != nil && a[id.UID]
}
