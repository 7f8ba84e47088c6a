package middleware

import (
	"net/http"
	"net/url"

	"blogicum/internal/policy"

	"github.com/casbin/casbin/v2"
)

// Roles used as casbin subjects.
const (
	RoleAnonymous = "anonymous"
	RoleUser      = "user"
)

// RoleOf returns the casbin subject for an identity.
func RoleOf(identity policy.Identity) string {
	if identity.IsAuthenticated() {
		return RoleUser
	}
	return RoleAnonymous
}

// Authorizer creates a middleware that gates routes by role using casbin.
// It only decides whether a route needs a login; ownership of the target
// resource is decided by the policy package inside the handlers.
// Anonymous visitors refused here are sent to loginURL.
func Authorizer(e casbin.IEnforcer, loginURL string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := GetIdentity(r.Context())
			subject := RoleOf(identity)

			allowed, err := e.Enforce(subject, r.URL.Path, r.Method)
			if err != nil {
				http.Error(w, "Authorization error", http.StatusInternalServerError)
				return
			}

			if !allowed {
				if !identity.IsAuthenticated() {
					http.Redirect(w, r, loginURL+"?next="+url.QueryEscape(r.URL.Path), http.StatusFound)
					return
				}
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
