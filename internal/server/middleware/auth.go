// Package middleware provides HTTP middleware for authentication.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/jonathan/internx-match/internal/types"
)

// ContextKey is a typed key for context values to avoid collisions.
type ContextKey string

const callerKey ContextKey = "caller"

// TokenValidator validates a bearer token and returns its claims.
type TokenValidator interface {
	ValidateToken(tokenString string) (CallerGetter, error)
}

// CallerGetter extracts the caller identity from token claims.
type CallerGetter interface {
	GetCaller() types.Caller
}

// AuthMiddleware validates the bearer token and stores the caller in the
// request context. Requests without a valid token get 401.
func AuthMiddleware(validator TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				unauthorized(w)
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				unauthorized(w)
				return
			}
			caller := claims.GetCaller()
			if caller.IsZero() {
				unauthorized(w)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithCaller(r.Context(), caller)))
		})
	}
}

// bearerToken parses "Authorization: Bearer <token>", case-insensitively.
func bearerToken(r *http.Request) (string, bool) {
	parts := strings.Fields(r.Header.Get("Authorization"))
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], true
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"unauthorized"}` + "\n"))
}

// WithCaller returns a context carrying caller.
func WithCaller(ctx context.Context, caller types.Caller) context.Context {
	return context.WithValue(ctx, callerKey, caller)
}

// CallerFrom returns the authenticated caller, or the zero Caller when the
// request did not pass through AuthMiddleware.
func CallerFrom(ctx context.Context) types.Caller {
	caller, _ := ctx.Value(callerKey).(types.Caller)
	return caller
}
