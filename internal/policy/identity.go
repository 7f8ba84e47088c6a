// Package policy decides what a viewer may read and what an actor may change.
//
// Every function here is pure: callers capture the identity, the resource
// snapshot and the evaluation time once per request and pass them in. Nothing
// in this package reads the clock, the session or the database.
package policy

import (
	"time"
	"unicode/utf8"
)

const (
	// DefaultPageSize is the number of posts on one page of any post listing.
	DefaultPageSize = 10
	// DefaultRestriction is the maximum length of short-form titles of
	// categories, locations and comments.
	DefaultRestriction = 30
)

// Identity is the actor of a request. The zero value is anonymous.
type Identity struct {
	ID       int64
	Username string

	authenticated bool
}

// Anonymous returns the identity of a visitor who is not logged in.
func Anonymous() Identity {
	return Identity{}
}

// Authenticated returns the identity of a logged-in user.
func Authenticated(id int64, username string) Identity {
	return Identity{ID: id, Username: username, authenticated: true}
}

// IsAuthenticated reports whether the identity belongs to a logged-in user.
func (i Identity) IsAuthenticated() bool {
	return i.authenticated
}

// Owns reports whether the identity is the author with the given id.
func (i Identity) Owns(authorID int64) bool {
	return i.authenticated && i.ID == authorID
}

// CategoryView is the part of a category that visibility depends on.
type CategoryView struct {
	ID          int64
	IsPublished bool
}

// PostView is the part of a post that visibility and authorization depend on.
// A nil Category means the post has no category; it counts as published.
type PostView struct {
	ID          int64
	AuthorID    int64
	IsPublished bool
	PubDate     time.Time
	Category    *CategoryView
}

// CommentView is the part of a comment that authorization depends on.
type CommentView struct {
	ID       int64
	PostID   int64
	AuthorID int64
}

// Truncate shortens s to at most limit runes.
func Truncate(s string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit])
}
