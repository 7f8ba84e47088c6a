package policy

import "errors"

// Action is a mutation an actor asks to perform.
type Action int

const (
	Create Action = iota
	Edit
	Delete
)

func (a Action) String() string {
	switch a {
	case Create:
		return "create"
	case Edit:
		return "edit"
	case Delete:
		return "delete"
	}
	return "unknown"
}

// Kind classifies a denial so the caller can pick the response.
type Kind int

const (
	// KindNone means the operation is allowed.
	KindNone Kind = iota
	// KindNotFound hides the existence of the resource.
	KindNotFound
	// KindForbidden reveals the resource but refuses the operation.
	KindForbidden
	// KindSoftDenied asks the caller to redirect to the post's detail view.
	KindSoftDenied
	// KindUnauthenticated asks the caller to send the actor to log in.
	KindUnauthenticated
)

var (
	ErrNotFound        = errors.New("not found")
	ErrForbidden       = errors.New("forbidden")
	ErrSoftDenied      = errors.New("not the author")
	ErrUnauthenticated = errors.New("authentication required")
)

// Err returns the sentinel error of k, or nil for KindNone.
func (k Kind) Err() error {
	switch k {
	case KindNotFound:
		return ErrNotFound
	case KindForbidden:
		return ErrForbidden
	case KindSoftDenied:
		return ErrSoftDenied
	case KindUnauthenticated:
		return ErrUnauthenticated
	}
	return nil
}

func (k Kind) String() string {
	if err := k.Err(); err != nil {
		return err.Error()
	}
	return "allowed"
}

// Decision is the outcome of an authorization check.
type Decision struct {
	Allowed bool
	Kind    Kind
}

var allow = Decision{Allowed: true}

func deny(k Kind) Decision {
	return Decision{Kind: k}
}

// Err returns nil for an allowed decision and the denial's sentinel otherwise.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	return d.Kind.Err()
}

// CanMutatePost decides whether identity may perform action on post.
// For Create the post argument is ignored; see AssignAuthor.
func CanMutatePost(identity Identity, post PostView, action Action) Decision {
	if action == Create {
		return canCreate(identity)
	}
	if identity.Owns(post.AuthorID) {
		return allow
	}
	return deny(KindSoftDenied)
}

// CanMutateComment decides whether identity may perform action on comment.
// Ownership is independent of the parent post's visibility.
func CanMutateComment(identity Identity, comment CommentView, action Action) Decision {
	if action == Create {
		return canCreate(identity)
	}
	if identity.Owns(comment.AuthorID) {
		return allow
	}
	return deny(KindForbidden)
}

// CanEditProfile decides whether identity may change the profile of the
// user with userID. Only the user themselves may.
func CanEditProfile(identity Identity, userID int64) Decision {
	if !identity.IsAuthenticated() {
		return deny(KindUnauthenticated)
	}
	if identity.Owns(userID) {
		return allow
	}
	return deny(KindForbidden)
}

func canCreate(identity Identity) Decision {
	if !identity.IsAuthenticated() {
		return deny(KindUnauthenticated)
	}
	return allow
}

// AssignAuthor returns the author ID a new post or comment created by
// identity must carry.
func AssignAuthor(identity Identity) (int64, error) {
	if err := canCreate(identity).Err(); err != nil {
		return 0, err
	}
	return identity.ID, nil
}
