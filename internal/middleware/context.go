package middleware

import (
	"context"
	"net/http"

	"blogicum/internal/policy"
	"blogicum/internal/session"
)

// contextKey defines a custom type for context keys to avoid collisions.
type contextKey string

const identityContextKey = contextKey("identity")

// GetIdentity retrieves the acting identity from the request context.
func GetIdentity(ctx context.Context) policy.Identity {
	if identity, ok := ctx.Value(identityContextKey).(policy.Identity); ok {
		return identity
	}
	return policy.Anonymous()
}

// SetIdentity adds the acting identity to the request context.
func SetIdentity(ctx context.Context, identity policy.Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, identity)
}

// Identity builds the request identity from the session once per request.
// A session without a user id is anonymous.
func Identity(sm session.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := policy.Anonymous()
			if id := sm.GetInt64(r.Context(), session.UserIDKey); id != 0 {
				identity = policy.Authenticated(id, sm.GetString(r.Context(), session.UsernameKey))
			}
			next.ServeHTTP(w, r.WithContext(SetIdentity(r.Context(), identity)))
		})
	}
}
