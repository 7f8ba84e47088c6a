package service

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"blogicum/internal/data"
	"blogicum/internal/logger"
	"blogicum/internal/policy"
)

const (
	maxTitleLength    = 256
	maxUsernameLength = 150
)

// PostRepository defines the Entity Store operations on posts.
type PostRepository interface {
	GetPost(ctx context.Context, id int64) (*data.Post, error)
	ListPosts(ctx context.Context, pred policy.Predicate, page data.PageRequest) ([]*data.Post, bool, error)
	CountPosts(ctx context.Context, pred policy.Predicate) (int, error)
	CreatePost(ctx context.Context, post *data.Post) error
	UpdatePost(ctx context.Context, post *data.Post) error
	DeletePost(ctx context.Context, id int64) error
}

// CategoryRepository defines the Entity Store operations on categories and locations.
type CategoryRepository interface {
	GetCategory(ctx context.Context, slug string) (*data.Category, error)
	GetCategoryByID(ctx context.Context, id int64) (*data.Category, error)
	ListCategories(ctx context.Context) ([]*data.Category, error)
	GetLocation(ctx context.Context, id int64) (*data.Location, error)
}

// CommentRepository defines the Entity Store operations on comments.
type CommentRepository interface {
	GetComment(ctx context.Context, id int64) (*data.Comment, error)
	ListComments(ctx context.Context, postID int64) ([]*data.Comment, error)
	CreateComment(ctx context.Context, comment *data.Comment) error
	UpdateComment(ctx context.Context, comment *data.Comment) error
	DeleteComment(ctx context.Context, id int64) error
}

// UserRepository defines the Entity Store operations on users.
type UserRepository interface {
	GetUserByUsername(ctx context.Context, username string) (*data.User, error)
	UpdateUser(ctx context.Context, user *data.User) error
}

// Store groups the repositories the service reads and writes through.
type Store struct {
	Posts      PostRepository
	Categories CategoryRepository
	Comments   CommentRepository
	Users      UserRepository
}

// PostInput carries the author-editable fields of a post.
type PostInput struct {
	Title       string
	Text        string
	PubDate     time.Time
	CategoryID  *int64
	LocationID  *int64
	Image       string
	IsPublished bool
}

// ProfileInput carries the editable fields of a user profile.
type ProfileInput struct {
	Username  string
	FirstName string
	LastName  string
	Email     string
}

// PostPage is one page of a post listing. Total counts the posts on all pages.
type PostPage struct {
	Posts   []*data.Post `json:"posts"`
	Number  int          `json:"page"`
	Total   int          `json:"total"`
	HasMore bool         `json:"has_more"`
}

// BlogServicer defines the operations the HTTP layer dispatches to.
type BlogServicer interface {
	Index(ctx context.Context, page int) (*PostPage, error)
	Categories(ctx context.Context) ([]*data.Category, error)
	CategoryFeed(ctx context.Context, slug string, page int) (*data.Category, *PostPage, error)
	Profile(ctx context.Context, viewer policy.Identity, username string, page int) (*data.User, *PostPage, error)
	EditProfile(ctx context.Context, viewer policy.Identity, username string, in ProfileInput) (*data.User, error)
	PostDetail(ctx context.Context, viewer policy.Identity, id int64) (*data.Post, []*data.Comment, error)
	CreatePost(ctx context.Context, viewer policy.Identity, in PostInput) (*data.Post, error)
	EditPost(ctx context.Context, viewer policy.Identity, id int64, in PostInput) (*data.Post, error)
	DeletePost(ctx context.Context, viewer policy.Identity, id int64) error
	AddComment(ctx context.Context, viewer policy.Identity, postID int64, text string) (*data.Comment, error)
	EditComment(ctx context.Context, viewer policy.Identity, postID, commentID int64, text string) (*data.Comment, error)
	DeleteComment(ctx context.Context, viewer policy.Identity, postID, commentID int64) error
	PublicPosts(ctx context.Context) ([]*data.Post, error)
}

// BlogService resolves resources through the Entity Store and consults the
// visibility and authorization policies before returning or writing them.
// Each operation reads the clock once and uses that instant throughout.
type BlogService struct {
	store    Store
	renderer *Renderer
	log      logger.Logger
	pageSize int
	now      func() time.Time
}

var _ BlogServicer = (*BlogService)(nil)

// NewBlogService creates a new BlogService.
func NewBlogService(store Store, renderer *Renderer, pageSize int, log logger.Logger) *BlogService {
	if pageSize <= 0 {
		pageSize = policy.DefaultPageSize
	}
	return &BlogService{
		store:    store,
		renderer: renderer,
		log:      log,
		pageSize: pageSize,
		now:      time.Now,
	}
}

// SetClock replaces the clock the service captures "now" from.
func (s *BlogService) SetClock(now func() time.Time) {
	s.now = now
}

func (s *BlogService) page(number int) data.PageRequest {
	if number < 1 {
		number = 1
	}
	return data.PageRequest{Number: number, Size: s.pageSize}
}

// list returns one page of the posts matching pred. A page past the last one
// is not found; the first page always exists, even when empty.
func (s *BlogService) list(ctx context.Context, pred policy.Predicate, number int) (*PostPage, error) {
	req := s.page(number)
	total, err := s.store.Posts.CountPosts(ctx, pred)
	if err != nil {
		return nil, err
	}
	last := (total + req.Size - 1) / req.Size
	if last < 1 {
		last = 1
	}
	if req.Number > last {
		return nil, fmt.Errorf("page %d of %d: %w", req.Number, last, policy.ErrNotFound)
	}
	posts, more, err := s.store.Posts.ListPosts(ctx, pred, req)
	if err != nil {
		return nil, err
	}
	return &PostPage{Posts: posts, Number: req.Number, Total: total, HasMore: more}, nil
}

// Index returns a page of the home feed.
func (s *BlogService) Index(ctx context.Context, page int) (*PostPage, error) {
	return s.list(ctx, policy.PublicFilter(s.now()), page)
}

// Categories returns the categories that can be browsed.
func (s *BlogService) Categories(ctx context.Context) ([]*data.Category, error) {
	return s.store.Categories.ListCategories(ctx)
}

// CategoryFeed returns a published category and a page of its public posts.
// An unpublished category is reported as not found to every viewer.
func (s *BlogService) CategoryFeed(ctx context.Context, slug string, page int) (*data.Category, *PostPage, error) {
	now := s.now()
	category, err := s.store.Categories.GetCategory(ctx, slug)
	if err != nil {
		return nil, nil, storeErr(err)
	}
	if !policy.IsCategoryVisible(category.View()) {
		return nil, nil, fmt.Errorf("category %q: %w", slug, policy.ErrNotFound)
	}
	posts, err := s.list(ctx, policy.CategoryFilter(category.ID, now), page)
	if err != nil {
		return nil, nil, err
	}
	return category, posts, nil
}

// Profile returns a user and a page of their posts as seen by viewer.
func (s *BlogService) Profile(ctx context.Context, viewer policy.Identity, username string, page int) (*data.User, *PostPage, error) {
	now := s.now()
	user, err := s.store.Users.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, nil, storeErr(err)
	}
	posts, err := s.list(ctx, policy.ProfileFilter(viewer, user.ID, now), page)
	if err != nil {
		return nil, nil, err
	}
	return user, posts, nil
}

// PostDetail returns a post visible to viewer together with its comments.
// A hidden post is indistinguishable from a missing one.
func (s *BlogService) PostDetail(ctx context.Context, viewer policy.Identity, id int64) (*data.Post, []*data.Comment, error) {
	now := s.now()
	post, err := s.store.Posts.GetPost(ctx, id)
	if err != nil {
		return nil, nil, storeErr(err)
	}
	if !policy.IsPostVisible(post.View(), viewer, now) {
		s.log.With(map[string]interface{}{"post_id": id, "viewer": viewer.ID}).Debug("Post hidden from viewer")
		return nil, nil, fmt.Errorf("post %d: %w", id, policy.ErrNotFound)
	}
	post.HTMLText = s.renderer.Render(postCacheKey(post), post.Text)

	comments, err := s.store.Comments.ListComments(ctx, post.ID)
	if err != nil {
		return nil, nil, err
	}
	for _, c := range comments {
		c.HTMLText = s.renderer.Render("", c.Text)
	}
	return post, comments, nil
}

func postCacheKey(post *data.Post) string {
	return fmt.Sprintf("post:%d:%d", post.ID, post.UpdatedAt.UnixNano())
}

// CreatePost stores a new post authored by viewer.
func (s *BlogService) CreatePost(ctx context.Context, viewer policy.Identity, in PostInput) (*data.Post, error) {
	now := s.now()
	authorID, err := policy.AssignAuthor(viewer)
	if err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}
	post := &data.Post{}
	if err := s.apply(ctx, post, in, now); err != nil {
		return nil, err
	}
	post.AuthorID = authorID
	if err := s.store.Posts.CreatePost(ctx, post); err != nil {
		return nil, err
	}
	s.log.With(map[string]interface{}{"post_id": post.ID, "author_id": viewer.ID}).Info("Post created")
	return post, nil
}

// EditPost updates a post owned by viewer. A non-author gets policy.ErrSoftDenied.
// A zero PubDate keeps the stored one.
func (s *BlogService) EditPost(ctx context.Context, viewer policy.Identity, id int64, in PostInput) (*data.Post, error) {
	now := s.now()
	post, err := s.authorizePost(ctx, viewer, id, policy.Edit)
	if err != nil {
		return nil, err
	}
	if err := s.apply(ctx, post, in, now); err != nil {
		return nil, err
	}
	if err := s.store.Posts.UpdatePost(ctx, post); err != nil {
		return nil, storeErr(err)
	}
	return post, nil
}

// DeletePost removes a post owned by viewer along with its comments.
func (s *BlogService) DeletePost(ctx context.Context, viewer policy.Identity, id int64) error {
	if _, err := s.authorizePost(ctx, viewer, id, policy.Delete); err != nil {
		return err
	}
	if err := s.store.Posts.DeletePost(ctx, id); err != nil {
		return storeErr(err)
	}
	s.log.With(map[string]interface{}{"post_id": id, "author_id": viewer.ID}).Info("Post deleted")
	return nil
}

func (s *BlogService) authorizePost(ctx context.Context, viewer policy.Identity, id int64, action policy.Action) (*data.Post, error) {
	post, err := s.store.Posts.GetPost(ctx, id)
	if err != nil {
		return nil, storeErr(err)
	}
	if err := policy.CanMutatePost(viewer, post.View(), action).Err(); err != nil {
		return nil, fmt.Errorf("%s post %d: %w", action, id, err)
	}
	return post, nil
}

// apply validates in and copies it onto post. A new post without a PubDate
// is published at now.
func (s *BlogService) apply(ctx context.Context, post *data.Post, in PostInput, now time.Time) error {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return invalid("title", "must not be empty")
	}
	if utf8.RuneCountInString(title) > maxTitleLength {
		return invalid("title", fmt.Sprintf("must be at most %d characters", maxTitleLength))
	}
	if strings.TrimSpace(in.Text) == "" {
		return invalid("text", "must not be empty")
	}
	if in.CategoryID != nil {
		if _, err := s.store.Categories.GetCategoryByID(ctx, *in.CategoryID); err != nil {
			if isNotFound(err) {
				return invalid("category", "does not exist")
			}
			return err
		}
	}
	if in.LocationID != nil {
		if _, err := s.store.Categories.GetLocation(ctx, *in.LocationID); err != nil {
			if isNotFound(err) {
				return invalid("location", "does not exist")
			}
			return err
		}
	}

	switch {
	case !in.PubDate.IsZero():
		post.PubDate = in.PubDate
	case post.ID == 0:
		post.PubDate = now
	}

	post.Title = title
	post.Text = in.Text
	post.CategoryID = in.CategoryID
	post.LocationID = in.LocationID
	post.Image = in.Image
	post.IsPublished = in.IsPublished
	return nil
}

// AddComment stores a comment by viewer on a post viewer can see.
func (s *BlogService) AddComment(ctx context.Context, viewer policy.Identity, postID int64, text string) (*data.Comment, error) {
	now := s.now()
	authorID, err := policy.AssignAuthor(viewer)
	if err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}
	post, err := s.store.Posts.GetPost(ctx, postID)
	if err != nil {
		return nil, storeErr(err)
	}
	if !policy.CanViewComments(post.View(), viewer, now) {
		return nil, fmt.Errorf("post %d: %w", postID, policy.ErrNotFound)
	}
	if strings.TrimSpace(text) == "" {
		return nil, invalid("text", "must not be empty")
	}
	comment := &data.Comment{Text: text, PostID: post.ID, AuthorID: authorID, AuthorUsername: viewer.Username}
	if err := s.store.Comments.CreateComment(ctx, comment); err != nil {
		return nil, err
	}
	return comment, nil
}

// EditComment rewrites a comment owned by viewer. A non-owner gets policy.ErrForbidden.
func (s *BlogService) EditComment(ctx context.Context, viewer policy.Identity, postID, commentID int64, text string) (*data.Comment, error) {
	comment, err := s.authorizeComment(ctx, viewer, postID, commentID, policy.Edit)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, invalid("text", "must not be empty")
	}
	comment.Text = text
	if err := s.store.Comments.UpdateComment(ctx, comment); err != nil {
		return nil, storeErr(err)
	}
	return comment, nil
}

// DeleteComment removes a comment owned by viewer.
func (s *BlogService) DeleteComment(ctx context.Context, viewer policy.Identity, postID, commentID int64) error {
	if _, err := s.authorizeComment(ctx, viewer, postID, commentID, policy.Delete); err != nil {
		return err
	}
	return storeErr(s.store.Comments.DeleteComment(ctx, commentID))
}

func (s *BlogService) authorizeComment(ctx context.Context, viewer policy.Identity, postID, commentID int64, action policy.Action) (*data.Comment, error) {
	comment, err := s.store.Comments.GetComment(ctx, commentID)
	if err != nil {
		return nil, storeErr(err)
	}
	if comment.PostID != postID {
		return nil, fmt.Errorf("comment %d on post %d: %w", commentID, postID, policy.ErrNotFound)
	}
	if err := policy.CanMutateComment(viewer, comment.View(), action).Err(); err != nil {
		return nil, fmt.Errorf("%s comment %d: %w", action, commentID, err)
	}
	return comment, nil
}

// EditProfile changes the profile of the user called username. Only that
// user may; anyone else gets policy.ErrForbidden.
func (s *BlogService) EditProfile(ctx context.Context, viewer policy.Identity, username string, in ProfileInput) (*data.User, error) {
	user, err := s.store.Users.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, storeErr(err)
	}
	if err := policy.CanEditProfile(viewer, user.ID).Err(); err != nil {
		return nil, fmt.Errorf("edit profile %q: %w", username, err)
	}

	newName := strings.TrimSpace(in.Username)
	if err := validateUsername(newName); err != nil {
		return nil, err
	}
	email := strings.TrimSpace(in.Email)
	if email != "" {
		if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
			return nil, invalid("email", "invalid address")
		}
	}
	if newName != user.Username {
		switch taken, err := s.store.Users.GetUserByUsername(ctx, newName); {
		case err == nil && taken.ID != user.ID:
			return nil, invalid("username", "already taken")
		case err != nil && !isNotFound(err):
			return nil, err
		}
	}

	user.Username = newName
	user.FirstName = strings.TrimSpace(in.FirstName)
	user.LastName = strings.TrimSpace(in.LastName)
	user.Email = email
	if err := s.store.Users.UpdateUser(ctx, user); err != nil {
		return nil, storeErr(err)
	}
	s.log.With(map[string]interface{}{"user_id": user.ID}).Info("Profile updated")
	return user, nil
}

// validateUsername accepts what a login name may contain: letters, digits
// and @.+-_ up to maxUsernameLength characters.
func validateUsername(name string) error {
	if name == "" {
		return invalid("username", "must not be empty")
	}
	if utf8.RuneCountInString(name) > maxUsernameLength {
		return invalid("username", fmt.Sprintf("must be at most %d characters", maxUsernameLength))
	}
	for _, r := range name {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && !strings.ContainsRune("@.+-_", r) {
			return invalid("username", "may contain only letters, digits and @.+-_")
		}
	}
	return nil
}

// PublicPosts returns every post an anonymous visitor can see, in listing order.
func (s *BlogService) PublicPosts(ctx context.Context) ([]*data.Post, error) {
	pred := policy.PublicFilter(s.now())
	var all []*data.Post
	for number := 1; ; number++ {
		posts, more, err := s.store.Posts.ListPosts(ctx, pred, s.page(number))
		if err != nil {
			return nil, err
		}
		all = append(all, posts...)
		if !more {
			return all, nil
		}
	}
}
