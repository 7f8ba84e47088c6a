package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"blogicum/internal/policy"

	"github.com/jmoiron/sqlx"
)

// MaxPageSize bounds PageRequest.Size.
const MaxPageSize = 1000

// PageRequest selects one page of a listing. Numbers start at 1.
type PageRequest struct {
	Number int
	Size   int
}

func (p PageRequest) normalize() PageRequest {
	if p.Number < 1 {
		p.Number = 1
	}
	if p.Size < 1 {
		p.Size = policy.DefaultPageSize
	}
	if p.Size > MaxPageSize {
		p.Size = MaxPageSize
	}
	return p
}

// offset returns the number of rows before the page. ok is false when the
// page lies beyond any representable offset.
func (p PageRequest) offset() (n int, ok bool) {
	if p.Number-1 > math.MaxInt/p.Size {
		return 0, false
	}
	return (p.Number - 1) * p.Size, true
}

const selectPosts = `SELECT p.id, p.title, p.text, p.pub_date, p.author_id, p.location_id, p.category_id,
	p.image, p.is_published, p.created_at, p.updated_at,
	u.username AS author_username,
	c.is_published AS category_is_published, c.title AS category_title, c.slug AS category_slug,
	l.name AS location_name,
	(SELECT COUNT(*) FROM comments cm WHERE cm.post_id = p.id) AS comment_count
FROM posts p
JOIN users u ON u.id = p.author_id
LEFT JOIN categories c ON c.id = p.category_id
LEFT JOIN locations l ON l.id = p.location_id`

// orderPosts qualifies policy.Ordering for the joined query.
const orderPosts = ` ORDER BY p.pub_date DESC, p.id DESC`

// SQLPostRepository stores posts using sqlx.
type SQLPostRepository struct {
	db *sqlx.DB
}

// NewSQLPostRepository creates a new SQLPostRepository.
func NewSQLPostRepository(db *sqlx.DB) *SQLPostRepository {
	return &SQLPostRepository{db: db}
}

// compilePredicate turns a visibility predicate into a WHERE clause over the
// aliases of selectPosts. A post whose category row is missing counts as
// published, matching policy.PostView's nil Category.
func compilePredicate(p policy.Predicate) (string, []interface{}) {
	var where []string
	var args []interface{}

	if p.AuthorID != nil {
		where = append(where, "p.author_id = ?")
		args = append(args, *p.AuthorID)
	}
	if p.CategoryID != nil {
		where = append(where, "p.category_id = ?")
		args = append(args, *p.CategoryID)
	}

	public := "(p.is_published = ? AND (c.id IS NULL OR c.is_published = ?) AND p.pub_date <= ?)"
	publicArgs := []interface{}{true, true, p.Now.UTC()}
	if p.Owner != nil {
		where = append(where, "(p.author_id = ? OR "+public+")")
		args = append(args, *p.Owner)
	} else {
		where = append(where, public)
	}
	args = append(args, publicArgs...)

	return strings.Join(where, " AND "), args
}

// ListPosts returns one page of the posts selected by pred in policy.Ordering,
// and whether a further page exists.
func (r *SQLPostRepository) ListPosts(ctx context.Context, pred policy.Predicate, page PageRequest) ([]*Post, bool, error) {
	page = page.normalize()
	offset, ok := page.offset()
	if !ok {
		return []*Post{}, false, nil
	}
	where, args := compilePredicate(pred)
	query := r.db.Rebind(selectPosts + " WHERE " + where + orderPosts + " LIMIT ? OFFSET ?")
	args = append(args, page.Size+1, offset)

	posts := []*Post{}
	if err := r.db.SelectContext(ctx, &posts, query, args...); err != nil {
		return nil, false, fmt.Errorf("failed to list posts: %w", err)
	}
	hasMore := len(posts) > page.Size
	if hasMore {
		posts = posts[:page.Size]
	}
	return posts, hasMore, nil
}

// CountPosts returns the number of posts selected by pred.
func (r *SQLPostRepository) CountPosts(ctx context.Context, pred policy.Predicate) (int, error) {
	where, args := compilePredicate(pred)
	query := r.db.Rebind(`SELECT COUNT(*) FROM posts p LEFT JOIN categories c ON c.id = p.category_id WHERE ` + where)
	var n int
	if err := r.db.GetContext(ctx, &n, query, args...); err != nil {
		return 0, fmt.Errorf("failed to count posts: %w", err)
	}
	return n, nil
}

// GetPost retrieves a single post by its ID regardless of its visibility.
func (r *SQLPostRepository) GetPost(ctx context.Context, id int64) (*Post, error) {
	var post Post
	query := r.db.Rebind(selectPosts + " WHERE p.id = ?")
	if err := r.db.GetContext(ctx, &post, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("post %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get post by id: %w", err)
	}
	return &post, nil
}

// CreatePost inserts a new post and sets its ID and timestamps.
func (r *SQLPostRepository) CreatePost(ctx context.Context, post *Post) error {
	now := time.Now().UTC()
	post.PubDate = post.PubDate.UTC()
	post.CreatedAt = now
	post.UpdatedAt = now

	query := `INSERT INTO posts (title, text, pub_date, author_id, location_id, category_id, image, is_published, created_at, updated_at)
		VALUES (:title, :text, :pub_date, :author_id, :location_id, :category_id, :image, :is_published, :created_at, :updated_at)`
	res, err := r.db.NamedExecContext(ctx, query, post)
	if err != nil {
		return fmt.Errorf("failed to execute create post query: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get inserted post id: %w", err)
	}
	post.ID = id
	return nil
}

// UpdatePost writes the mutable fields of an existing post.
func (r *SQLPostRepository) UpdatePost(ctx context.Context, post *Post) error {
	post.PubDate = post.PubDate.UTC()
	post.UpdatedAt = time.Now().UTC()

	query := `UPDATE posts SET title = :title, text = :text, pub_date = :pub_date, location_id = :location_id,
		category_id = :category_id, image = :image, is_published = :is_published, updated_at = :updated_at
		WHERE id = :id`
	result, err := r.db.NamedExecContext(ctx, query, post)
	if err != nil {
		return fmt.Errorf("failed to update post: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("post %d: %w", post.ID, ErrNotFound)
	}
	return nil
}

// DeletePost removes a post and its comments.
func (r *SQLPostRepository) DeletePost(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin delete post: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM comments WHERE post_id = ?`), id); err != nil {
		return fmt.Errorf("failed to delete post comments: %w", err)
	}
	result, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM posts WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("post %d: %w", id, ErrNotFound)
	}
	return tx.Commit()
}
