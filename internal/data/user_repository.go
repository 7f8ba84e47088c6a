package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

const selectUsers = "SELECT id, username, first_name, last_name, email FROM users"

// UserRepository reads the accounts that author posts and comments.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// GetUserByUsername finds a user by username.
func (r *UserRepository) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	var user User
	if err := r.db.GetContext(ctx, &user, r.db.Rebind(selectUsers+" WHERE username = ?"), username); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user %q: %w", username, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// GetUserByID finds a user by ID.
func (r *UserRepository) GetUserByID(ctx context.Context, id int64) (*User, error) {
	var user User
	if err := r.db.GetContext(ctx, &user, r.db.Rebind(selectUsers+" WHERE id = ?"), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// CreateUser inserts a user and returns its ID.
func (r *UserRepository) CreateUser(ctx context.Context, username string) (int64, error) {
	res, err := r.db.ExecContext(ctx, r.db.Rebind("INSERT INTO users (username) VALUES (?)"), username)
	if err != nil {
		return 0, fmt.Errorf("failed to create user: %w", err)
	}
	return res.LastInsertId()
}

// UpdateUser saves the profile fields of an existing user. The caller has
// already loaded the user; MySQL reports unchanged rows as unaffected.
func (r *UserRepository) UpdateUser(ctx context.Context, user *User) error {
	query := `UPDATE users SET username = :username, first_name = :first_name, last_name = :last_name, email = :email
		WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, user); err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	return nil
}
