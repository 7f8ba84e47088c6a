package data

import (
	"database/sql"
	"html/template"
	"time"

	"blogicum/internal/policy"
)

// User is an author or commenter. Accounts are created outside this service;
// only the profile fields are edited here.
type User struct {
	ID        int64  `db:"id" json:"id"`
	Username  string `db:"username" json:"username"`
	FirstName string `db:"first_name" json:"first_name"`
	LastName  string `db:"last_name" json:"last_name"`
	Email     string `db:"email" json:"-"`
}

// Category groups posts. An unpublished category hides its posts from non-authors.
type Category struct {
	ID          int64     `db:"id" json:"id"`
	Title       string    `db:"title" json:"title"`
	Description string    `db:"description" json:"description"`
	Slug        string    `db:"slug" json:"slug"`
	IsPublished bool      `db:"is_published" json:"is_published"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// View returns the part of the category the policy layer needs.
func (c *Category) View() policy.CategoryView {
	return policy.CategoryView{ID: c.ID, IsPublished: c.IsPublished}
}

// Location is an optional place attached to a post. Its flag has no visibility effect.
type Location struct {
	ID          int64     `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	IsPublished bool      `db:"is_published" json:"is_published"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// Post is a publication. The joined columns are filled by the read queries only.
type Post struct {
	ID          int64     `db:"id" json:"id"`
	Title       string    `db:"title" json:"title"`
	Text        string    `db:"text" json:"text"`
	PubDate     time.Time `db:"pub_date" json:"pub_date"`
	AuthorID    int64     `db:"author_id" json:"author_id"`
	LocationID  *int64    `db:"location_id" json:"location_id,omitempty"`
	CategoryID  *int64    `db:"category_id" json:"category_id,omitempty"`
	Image       string    `db:"image" json:"image,omitempty"`
	IsPublished bool      `db:"is_published" json:"is_published"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`

	AuthorUsername      string         `db:"author_username" json:"author"`
	CategoryIsPublished sql.NullBool   `db:"category_is_published" json:"-"`
	CategoryTitle       sql.NullString `db:"category_title" json:"-"`
	CategorySlug        sql.NullString `db:"category_slug" json:"-"`
	LocationName        sql.NullString `db:"location_name" json:"-"`
	CommentCount        int            `db:"comment_count" json:"comment_count"`

	HTMLText template.HTML `db:"-" json:"html,omitempty"`
}

// View returns the part of the post the policy layer needs.
func (p *Post) View() policy.PostView {
	v := policy.PostView{
		ID:          p.ID,
		AuthorID:    p.AuthorID,
		IsPublished: p.IsPublished,
		PubDate:     p.PubDate,
	}
	if p.CategoryID != nil {
		v.Category = &policy.CategoryView{
			ID:          *p.CategoryID,
			IsPublished: !p.CategoryIsPublished.Valid || p.CategoryIsPublished.Bool,
		}
	}
	return v
}

// Comment is a reader's remark on a post.
type Comment struct {
	ID        int64     `db:"id" json:"id"`
	Text      string    `db:"text" json:"text"`
	PostID    int64     `db:"post_id" json:"post_id"`
	AuthorID  int64     `db:"author_id" json:"author_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`

	AuthorUsername string `db:"author_username" json:"author"`

	HTMLText template.HTML `db:"-" json:"html,omitempty"`
}

// View returns the part of the comment the policy layer needs.
func (c *Comment) View() policy.CommentView {
	return policy.CommentView{ID: c.ID, PostID: c.PostID, AuthorID: c.AuthorID}
}
