package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// CategoryRepository handles database operations for categories and locations.
type CategoryRepository struct {
	DB *sqlx.DB
}

// NewCategoryRepository creates a new CategoryRepository.
func NewCategoryRepository(db *sqlx.DB) *CategoryRepository {
	return &CategoryRepository{DB: db}
}

// GetCategory finds a category by its slug regardless of its publication flag.
func (r *CategoryRepository) GetCategory(ctx context.Context, slug string) (*Category, error) {
	var category Category
	err := r.DB.GetContext(ctx, &category, r.DB.Rebind("SELECT id, title, description, slug, is_published, created_at FROM categories WHERE slug = ?"), slug)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("category %q: %w", slug, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get category by slug: %w", err)
	}
	return &category, nil
}

// GetCategoryByID finds a category by its ID.
func (r *CategoryRepository) GetCategoryByID(ctx context.Context, id int64) (*Category, error) {
	var category Category
	err := r.DB.GetContext(ctx, &category, r.DB.Rebind("SELECT id, title, description, slug, is_published, created_at FROM categories WHERE id = ?"), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("category %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get category by id: %w", err)
	}
	return &category, nil
}

// ListCategories retrieves the published categories ordered by title.
func (r *CategoryRepository) ListCategories(ctx context.Context) ([]*Category, error) {
	categories := []*Category{}
	err := r.DB.SelectContext(ctx, &categories, r.DB.Rebind("SELECT id, title, description, slug, is_published, created_at FROM categories WHERE is_published = ? ORDER BY title"), true)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

// SaveCategory creates a new category and returns its ID.
func (r *CategoryRepository) SaveCategory(ctx context.Context, category *Category) (int64, error) {
	res, err := r.DB.NamedExecContext(ctx, "INSERT INTO categories (title, description, slug, is_published) VALUES (:title, :description, :slug, :is_published)", category)
	if err != nil {
		return 0, fmt.Errorf("failed to save category: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	category.ID = id
	return id, nil
}

// SetCategoryPublished flips the soft-unpublish flag of a category.
func (r *CategoryRepository) SetCategoryPublished(ctx context.Context, id int64, published bool) error {
	res, err := r.DB.ExecContext(ctx, r.DB.Rebind("UPDATE categories SET is_published = ? WHERE id = ?"), published, id)
	if err != nil {
		return fmt.Errorf("failed to update category: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("category %d: %w", id, ErrNotFound)
	}
	return nil
}

// GetLocation finds a location by its ID.
func (r *CategoryRepository) GetLocation(ctx context.Context, id int64) (*Location, error) {
	var location Location
	err := r.DB.GetContext(ctx, &location, r.DB.Rebind("SELECT id, name, is_published, created_at FROM locations WHERE id = ?"), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("location %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get location: %w", err)
	}
	return &location, nil
}

// SaveLocation creates a new location and returns its ID.
func (r *CategoryRepository) SaveLocation(ctx context.Context, location *Location) (int64, error) {
	res, err := r.DB.NamedExecContext(ctx, "INSERT INTO locations (name, is_published) VALUES (:name, :is_published)", location)
	if err != nil {
		return 0, fmt.Errorf("failed to save location: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	location.ID = id
	return id, nil
}
