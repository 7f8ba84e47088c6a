package auth

import (
	"fmt"

	"blogicum/internal/logger"

	"github.com/casbin/casbin/v2"
)

// DefaultPolicies grants reads to everyone and writes to logged-in users.
// The 'user' role inherits everything 'anonymous' may do.
var DefaultPolicies = [][]string{
	{"anonymous", "/", "GET"},
	{"anonymous", "/posts/:id/", "GET"},
	{"anonymous", "/category/", "GET"},
	{"anonymous", "/category/:slug/", "GET"},
	{"anonymous", "/profile/:username/", "GET"},
	{"anonymous", "/robots.txt", "GET"},
	{"anonymous", "/sitemap.xml", "GET"},

	{"user", "/posts/create/", "POST"},
	{"user", "/profile/:username/edit/", "POST"},
	{"user", "/posts/:id/edit/", "POST"},
	{"user", "/posts/:id/delete/", "POST"},
	{"user", "/posts/:id/comment/", "POST"},
	{"user", "/posts/:id/edit_comment/:comment/", "POST"},
	{"user", "/posts/:id/delete_comment/:comment/", "POST"},
}

// SeedDefaultPolicies ensures that the application has a baseline set of authorization rules.
// It checks if each default policy exists before adding it, making the operation idempotent
// and safe to run on every application start.
func SeedDefaultPolicies(e casbin.IEnforcer, log logger.Logger) {
	log.Info("Seeding default authorization policies...")

	for _, p := range DefaultPolicies {
		if has, _ := e.HasPolicy(p); !has {
			if _, err := e.AddPolicy(p); err != nil {
				log.Error(err, fmt.Sprintf("Failed to add policy %v", p))
			}
		}
	}

	if has, _ := e.HasRoleForUser("user", "anonymous"); !has {
		if _, err := e.AddRoleForUser("user", "anonymous"); err != nil {
			log.Error(err, "Failed to add role 'user' -> 'anonymous'")
		}
	}
	log.Info("Policy seeding complete.")
}
