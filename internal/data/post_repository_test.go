package data

import (
	"context"
	"math"
	"regexp"
	"testing"
	"time"

	"blogicum/internal/policy"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockRepo(t *testing.T) (*SQLPostRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewSQLPostRepository(sqlx.NewDb(db, "sqlite3")), mock
}

func TestCompilePredicate(t *testing.T) {
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.FixedZone("MSK", 3*3600))

	t.Run("public", func(t *testing.T) {
		where, args := compilePredicate(policy.PublicFilter(at))
		assert.Equal(t, "(p.is_published = ? AND (c.id IS NULL OR c.is_published = ?) AND p.pub_date <= ?)", where)
		assert.Equal(t, []interface{}{true, true, at.UTC()}, args)
	})

	t.Run("owner override", func(t *testing.T) {
		where, args := compilePredicate(policy.ListFilterFor(policy.Authenticated(4, "u"), at))
		assert.Equal(t, "(p.author_id = ? OR (p.is_published = ? AND (c.id IS NULL OR c.is_published = ?) AND p.pub_date <= ?))", where)
		assert.Equal(t, []interface{}{int64(4), true, true, at.UTC()}, args)
	})

	t.Run("profile of someone else", func(t *testing.T) {
		where, args := compilePredicate(policy.ProfileFilter(policy.Authenticated(4, "u"), 9, at))
		assert.Equal(t, "p.author_id = ? AND (p.is_published = ? AND (c.id IS NULL OR c.is_published = ?) AND p.pub_date <= ?)", where)
		assert.Equal(t, []interface{}{int64(9), true, true, at.UTC()}, args)
	})

	t.Run("category", func(t *testing.T) {
		where, args := compilePredicate(policy.CategoryFilter(2, at))
		assert.Contains(t, where, "p.category_id = ? AND ")
		assert.Equal(t, int64(2), args[0])
	})
}

func TestListPosts_PaginatesInQuery(t *testing.T) {
	repo, mock := newMockRepo(t)
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	cols := []string{"id", "title", "text", "pub_date", "author_id", "location_id", "category_id", "image",
		"is_published", "created_at", "updated_at", "author_username", "category_is_published",
		"category_title", "category_slug", "location_name", "comment_count"}
	rows := sqlmock.NewRows(cols)
	for i := int64(3); i >= 1; i-- {
		rows.AddRow(i, "t", "x", at, 1, nil, nil, "", true, at, at, "alice", nil, nil, nil, nil, 0)
	}

	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY p.pub_date DESC, p.id DESC LIMIT ? OFFSET ?")).
		WithArgs(true, true, at, int64(3), int64(2)).
		WillReturnRows(rows)

	posts, more, err := repo.ListPosts(context.Background(), policy.PublicFilter(at), PageRequest{Number: 2, Size: 2})
	require.NoError(t, err)
	assert.True(t, more)
	assert.Len(t, posts, 2)
	assert.Equal(t, int64(3), posts[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListPosts_PageBeyondOffsetRange(t *testing.T) {
	repo, mock := newMockRepo(t)
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	posts, more, err := repo.ListPosts(context.Background(), policy.PublicFilter(at), PageRequest{Number: math.MaxInt/10 + 2, Size: 10})
	require.NoError(t, err)
	assert.Empty(t, posts)
	assert.False(t, more)
	// No query may run with a wrapped-around offset.
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPageRequestNormalize(t *testing.T) {
	p := PageRequest{}.normalize()
	assert.Equal(t, 1, p.Number)
	assert.Equal(t, policy.DefaultPageSize, p.Size)

	assert.Equal(t, MaxPageSize, PageRequest{Number: 1, Size: math.MaxInt}.normalize().Size)
}

func TestPageRequestOffset(t *testing.T) {
	testCases := []struct {
		name   string
		page   PageRequest
		want   int
		wantOK bool
	}{
		{"first page", PageRequest{Number: 1, Size: 10}, 0, true},
		{"third page", PageRequest{Number: 3, Size: 10}, 20, true},
		{"last representable", PageRequest{Number: math.MaxInt/10 + 1, Size: 10}, (math.MaxInt / 10) * 10, true},
		{"overflow", PageRequest{Number: math.MaxInt/10 + 2, Size: 10}, 0, false},
		{"size one never overflows", PageRequest{Number: math.MaxInt, Size: 1}, math.MaxInt - 1, true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := tc.page.offset()
			assert.Equal(t, tc.wantOK, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestPostView(t *testing.T) {
	cat := int64(5)
	post := &Post{ID: 1, AuthorID: 2, IsPublished: true, CategoryID: &cat}
	post.CategoryIsPublished.Valid = true

	v := post.View()
	require.NotNil(t, v.Category)
	assert.Equal(t, int64(5), v.Category.ID)
	assert.False(t, v.Category.IsPublished)

	post.CategoryID = nil
	assert.Nil(t, post.View().Category)
}
