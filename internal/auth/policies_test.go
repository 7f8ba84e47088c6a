package auth

import (
	"testing"

	"blogicum/internal/logger"
)

func TestDefaultPolicies(t *testing.T) {
	e, err := NewMemoryEnforcer()
	if err != nil {
		t.Fatalf("NewMemoryEnforcer failed: %v", err)
	}
	SeedDefaultPolicies(e, logger.Nop())
	// Seeding twice must not fail or duplicate.
	SeedDefaultPolicies(e, logger.Nop())

	testCases := []struct {
		sub, obj, act string
		want          bool
	}{
		{"anonymous", "/", "GET", true},
		{"anonymous", "/posts/12/", "GET", true},
		{"anonymous", "/category/travel/", "GET", true},
		{"anonymous", "/profile/alice/", "GET", true},
		{"anonymous", "/posts/create/", "POST", false},
		{"anonymous", "/posts/12/edit/", "POST", false},
		{"anonymous", "/posts/12/delete_comment/3/", "POST", false},
		{"user", "/posts/12/", "GET", true},
		{"user", "/posts/create/", "POST", true},
		{"user", "/posts/12/edit/", "POST", true},
		{"user", "/posts/12/comment/", "POST", true},
		{"user", "/posts/12/edit_comment/3/", "POST", true},
		{"anonymous", "/profile/alice/edit/", "POST", false},
		{"user", "/profile/alice/edit/", "POST", true},
		{"user", "/profile/alice/edit/", "GET", false},
		{"user", "/posts/12/", "POST", false},
	}
	for _, tc := range testCases {
		t.Run(tc.sub+" "+tc.act+" "+tc.obj, func(t *testing.T) {
			got, err := e.Enforce(tc.sub, tc.obj, tc.act)
			if err != nil {
				t.Fatalf("Enforce failed: %v", err)
			}
			if got != tc.want {
				t.Errorf("Enforce(%s, %s, %s) = %v, want %v", tc.sub, tc.obj, tc.act, got, tc.want)
			}
		})
	}
}
