package policy

import "time"

// Ordering is the sort order of every post listing. The id tiebreak keeps
// page boundaries stable when several posts share a pub_date.
const Ordering = "pub_date DESC, id DESC"

// State is the lifecycle state of a post at a given instant.
type State int

const (
	StateDraft State = iota
	StateHidden
	StateScheduled
	StatePublished
)

func (s State) String() string {
	switch s {
	case StateDraft:
		return "draft"
	case StateHidden:
		return "hidden"
	case StateScheduled:
		return "scheduled"
	case StatePublished:
		return "published"
	}
	return "unknown"
}

// PostState reports where a post sits in its lifecycle at now.
// Draft wins over Hidden, which wins over Scheduled.
func PostState(post PostView, now time.Time) State {
	switch {
	case !post.IsPublished:
		return StateDraft
	case post.Category != nil && !post.Category.IsPublished:
		return StateHidden
	case post.PubDate.After(now):
		return StateScheduled
	}
	return StatePublished
}

func isPublic(post PostView, now time.Time) bool {
	return PostState(post, now) == StatePublished
}

// IsPostVisible reports whether viewer may read post at now.
// Authors always see their own posts.
func IsPostVisible(post PostView, viewer Identity, now time.Time) bool {
	if viewer.Owns(post.AuthorID) {
		return true
	}
	return isPublic(post, now)
}

// IsCategoryVisible reports whether a category may be browsed directly.
// The flag applies to every viewer, authors included.
func IsCategoryVisible(category CategoryView) bool {
	return category.IsPublished
}

// CanViewComments reports whether the comments of post may be listed for viewer.
// Comments have no publication state of their own.
func CanViewComments(post PostView, viewer Identity, now time.Time) bool {
	return IsPostVisible(post, viewer, now)
}

// Predicate selects the posts of a listing. It is a plain value so the
// Entity Store can compile it into a query; Matches is the in-memory twin
// of that compilation and the two must agree.
type Predicate struct {
	// Now is the instant the listing is evaluated at.
	Now time.Time
	// Owner, when set, is a viewer whose own posts bypass the public rule.
	Owner *int64
	// AuthorID, when set, restricts the listing to one author.
	AuthorID *int64
	// CategoryID, when set, restricts the listing to one category.
	CategoryID *int64
}

// ListFilterFor returns the predicate selecting every post viewer may see at now.
// It selects exactly the posts for which IsPostVisible is true.
func ListFilterFor(viewer Identity, now time.Time) Predicate {
	p := Predicate{Now: now}
	if viewer.IsAuthenticated() {
		id := viewer.ID
		p.Owner = &id
	}
	return p
}

// PublicFilter returns the predicate for feeds that never apply the author
// override: the home feed, category feeds and the sitemap.
func PublicFilter(now time.Time) Predicate {
	return ListFilterFor(Anonymous(), now)
}

// ProfileFilter returns the predicate of authorID's profile feed as seen by
// viewer. The owner of the profile sees all of their posts; anyone else
// sees the public subset.
func ProfileFilter(viewer Identity, authorID int64, now time.Time) Predicate {
	p := ListFilterFor(viewer, now).ByAuthor(authorID)
	if !viewer.Owns(authorID) {
		p.Owner = nil
	}
	return p
}

// CategoryFilter returns the predicate of a category feed.
func CategoryFilter(categoryID int64, now time.Time) Predicate {
	return PublicFilter(now).InCategory(categoryID)
}

// ByAuthor returns a copy of p restricted to one author.
func (p Predicate) ByAuthor(authorID int64) Predicate {
	p.AuthorID = &authorID
	return p
}

// InCategory returns a copy of p restricted to one category.
func (p Predicate) InCategory(categoryID int64) Predicate {
	p.CategoryID = &categoryID
	return p
}

// Matches reports whether post is selected by p.
func (p Predicate) Matches(post PostView) bool {
	if p.AuthorID != nil && post.AuthorID != *p.AuthorID {
		return false
	}
	if p.CategoryID != nil && (post.Category == nil || post.Category.ID != *p.CategoryID) {
		return false
	}
	if p.Owner != nil && post.AuthorID == *p.Owner {
		return true
	}
	return isPublic(post, p.Now)
}
