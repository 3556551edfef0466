package http

import (
	"context"
	"net/http"
	"strings"

	"devbook/backend/internal/service/auth"
)

// TokenVerifier validates a bearer token and returns the caller identity.
type TokenVerifier interface {
	Verify(token string) (auth.Identity, error)
}

type contextKey struct{}

var identityKey contextKey

func identityFrom(r *http.Request) (auth.Identity, bool) {
	identity, ok := r.Context().Value(identityKey).(auth.Identity)
	return identity, ok
}

// requireAuth rejects requests without a valid bearer token and stores the
// verified identity on the request context.
func requireAuth(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				writeError(w, http.StatusUnauthorized, "missing bearer token")
				return
			}
			identity, err := verifier.Verify(strings.TrimPrefix(header, "Bearer "))
			if err != nil {
				writeError(w, http.StatusUnauthorized, "invalid token")
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), identityKey, identity)))
		})
	}
}
