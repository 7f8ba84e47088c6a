package policy

import (
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

var (
	yesterday = now.Add(-24 * time.Hour)
	tomorrow  = now.Add(24 * time.Hour)

	published   = &CategoryView{ID: 1, IsPublished: true}
	unpublished = &CategoryView{ID: 2, IsPublished: false}

	author = Authenticated(1, "author")
	reader = Authenticated(2, "reader")
)

// postGrid returns every combination of the fields visibility depends on.
func postGrid() []PostView {
	var posts []PostView
	id := int64(1)
	for _, authorID := range []int64{1, 2, 3} {
		for _, isPublished := range []bool{true, false} {
			for _, category := range []*CategoryView{nil, published, unpublished} {
				for _, pubDate := range []time.Time{yesterday, now, tomorrow} {
					posts = append(posts, PostView{
						ID:          id,
						AuthorID:    authorID,
						IsPublished: isPublished,
						PubDate:     pubDate,
						Category:    category,
					})
					id++
				}
			}
		}
	}
	return posts
}

func viewers() map[string]Identity {
	return map[string]Identity{
		"anonymous": Anonymous(),
		"author":    author,
		"reader":    reader,
		"stranger":  Authenticated(9, "stranger"),
	}
}

func TestIsPostVisible_AuthorAlwaysSees(t *testing.T) {
	for _, post := range postGrid() {
		viewer := Authenticated(post.AuthorID, "owner")
		assert.True(t, IsPostVisible(post, viewer, now), "post %+v", post)
	}
}

func TestIsPostVisible_NonAuthor(t *testing.T) {
	testCases := []struct {
		name string
		post PostView
		want bool
	}{
		{"published and due", PostView{AuthorID: 1, IsPublished: true, PubDate: yesterday, Category: published}, true},
		{"due exactly now", PostView{AuthorID: 1, IsPublished: true, PubDate: now, Category: published}, true},
		{"no category counts as published", PostView{AuthorID: 1, IsPublished: true, PubDate: yesterday}, true},
		{"unpublished", PostView{AuthorID: 1, IsPublished: false, PubDate: yesterday, Category: published}, false},
		{"scheduled", PostView{AuthorID: 1, IsPublished: true, PubDate: tomorrow, Category: published}, false},
		{"hidden category", PostView{AuthorID: 1, IsPublished: true, PubDate: yesterday, Category: unpublished}, false},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, IsPostVisible(tc.post, reader, now))
			assert.Equal(t, tc.want, IsPostVisible(tc.post, Anonymous(), now))
		})
	}
}

func TestIsPostVisible_ScheduledBecomesDue(t *testing.T) {
	post := PostView{ID: 1, AuthorID: 1, IsPublished: true, PubDate: tomorrow, Category: published}

	assert.True(t, IsPostVisible(post, author, now))
	assert.False(t, IsPostVisible(post, reader, now))
	assert.False(t, IsPostVisible(post, reader, tomorrow.Add(-time.Nanosecond)))
	assert.True(t, IsPostVisible(post, reader, tomorrow))
}

func TestAnonymousNeverOwns(t *testing.T) {
	post := PostView{AuthorID: 0, IsPublished: false, PubDate: yesterday}
	assert.False(t, IsPostVisible(post, Anonymous(), now))
	assert.False(t, CanMutatePost(Anonymous(), post, Edit).Allowed)
}

func TestListFilterFor_AgreesWithIsPostVisible(t *testing.T) {
	posts := postGrid()
	for name, viewer := range viewers() {
		t.Run(name, func(t *testing.T) {
			filter := ListFilterFor(viewer, now)
			for _, post := range posts {
				assert.Equal(t, IsPostVisible(post, viewer, now), filter.Matches(post), "post %+v", post)
			}
		})
	}
}

func TestPublicFilter_IgnoresOwnership(t *testing.T) {
	filter := PublicFilter(now)
	for _, post := range postGrid() {
		assert.Equal(t, IsPostVisible(post, Anonymous(), now), filter.Matches(post))
	}
}

func TestCategoryFilter(t *testing.T) {
	filter := CategoryFilter(published.ID, now)
	for _, post := range postGrid() {
		want := post.Category != nil && post.Category.ID == published.ID && IsPostVisible(post, Anonymous(), now)
		assert.Equal(t, want, filter.Matches(post), "post %+v", post)
	}

	for _, post := range postGrid() {
		assert.False(t, CategoryFilter(unpublished.ID, now).Matches(post), "post %+v", post)
	}
}

func TestProfileFilter(t *testing.T) {
	posts := postGrid()
	own := ProfileFilter(author, author.ID, now)
	other := ProfileFilter(reader, author.ID, now)

	var ownIDs, otherIDs []int64
	for _, post := range posts {
		if own.Matches(post) {
			ownIDs = append(ownIDs, post.ID)
		}
		if other.Matches(post) {
			otherIDs = append(otherIDs, post.ID)
		}
	}

	var wantOwn, wantOther []int64
	for _, post := range posts {
		if post.AuthorID != author.ID {
			continue
		}
		wantOwn = append(wantOwn, post.ID)
		if IsPostVisible(post, reader, now) {
			wantOther = append(wantOther, post.ID)
		}
	}
	assert.Equal(t, wantOwn, ownIDs)
	assert.Equal(t, wantOther, otherIDs)
	assert.Len(t, otherIDs, 4)
}

func TestProfileFeedScenario(t *testing.T) {
	posts := []PostView{
		{ID: 1, AuthorID: 1, IsPublished: true, PubDate: yesterday, Category: published},
		{ID: 2, AuthorID: 1, IsPublished: true, PubDate: tomorrow, Category: published},
		{ID: 3, AuthorID: 1, IsPublished: false, PubDate: yesterday},
		{ID: 4, AuthorID: 1, IsPublished: true, PubDate: yesterday},
		{ID: 5, AuthorID: 2, IsPublished: true, PubDate: yesterday},
	}
	list := func(p Predicate) []int64 {
		var selected []PostView
		for _, post := range posts {
			if p.Matches(post) {
				selected = append(selected, post)
			}
		}
		sort.Slice(selected, func(i, j int) bool {
			if !selected[i].PubDate.Equal(selected[j].PubDate) {
				return selected[i].PubDate.After(selected[j].PubDate)
			}
			return selected[i].ID > selected[j].ID
		})
		ids := make([]int64, len(selected))
		for i, post := range selected {
			ids[i] = post.ID
		}
		return ids
	}

	assert.Equal(t, []int64{2, 4, 3, 1}, list(ProfileFilter(author, 1, now)))
	assert.Equal(t, []int64{4, 1}, list(ProfileFilter(reader, 1, now)))
	assert.Equal(t, []int64{4, 1}, list(ProfileFilter(Anonymous(), 1, now)))
}

func TestIsCategoryVisible(t *testing.T) {
	assert.True(t, IsCategoryVisible(*published))
	assert.False(t, IsCategoryVisible(*unpublished))
}

func TestCanViewComments(t *testing.T) {
	hidden := PostView{AuthorID: 1, IsPublished: true, PubDate: yesterday, Category: unpublished}
	assert.True(t, CanViewComments(hidden, author, now))
	assert.False(t, CanViewComments(hidden, reader, now))
}

func TestPostState(t *testing.T) {
	testCases := []struct {
		post PostView
		want State
	}{
		{PostView{IsPublished: false, PubDate: tomorrow, Category: unpublished}, StateDraft},
		{PostView{IsPublished: true, PubDate: tomorrow, Category: unpublished}, StateHidden},
		{PostView{IsPublished: true, PubDate: tomorrow, Category: published}, StateScheduled},
		{PostView{IsPublished: true, PubDate: yesterday}, StatePublished},
	}
	for _, tc := range testCases {
		t.Run(tc.want.String(), func(t *testing.T) {
			assert.Equal(t, tc.want, PostState(tc.post, now))
		})
	}
}

func TestCanMutatePost(t *testing.T) {
	post := PostView{ID: 7, AuthorID: 1, IsPublished: true, PubDate: yesterday, Category: published}
	scheduled := PostView{ID: 8, AuthorID: 1, IsPublished: true, PubDate: tomorrow}

	testCases := []struct {
		name     string
		identity Identity
		post     PostView
		action   Action
		want     Decision
	}{
		{"anonymous create", Anonymous(), PostView{}, Create, Decision{Kind: KindUnauthenticated}},
		{"user create", reader, PostView{}, Create, Decision{Allowed: true}},
		{"anonymous edit", Anonymous(), post, Edit, Decision{Kind: KindSoftDenied}},
		{"author edit", author, post, Edit, Decision{Allowed: true}},
		{"other edit", reader, post, Edit, Decision{Kind: KindSoftDenied}},
		{"author delete", author, post, Delete, Decision{Allowed: true}},
		{"other delete", reader, post, Delete, Decision{Kind: KindSoftDenied}},
		{"author edits scheduled post", author, scheduled, Edit, Decision{Allowed: true}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, CanMutatePost(tc.identity, tc.post, tc.action))
		})
	}
}

func TestCanMutateComment(t *testing.T) {
	comment := CommentView{ID: 3, PostID: 7, AuthorID: 2}

	testCases := []struct {
		name     string
		identity Identity
		action   Action
		want     Decision
	}{
		{"anonymous create", Anonymous(), Create, Decision{Kind: KindUnauthenticated}},
		{"user create", author, Create, Decision{Allowed: true}},
		{"owner edit", reader, Edit, Decision{Allowed: true}},
		{"owner delete", reader, Delete, Decision{Allowed: true}},
		{"post author delete", author, Delete, Decision{Kind: KindForbidden}},
		{"anonymous delete", Anonymous(), Delete, Decision{Kind: KindForbidden}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, CanMutateComment(tc.identity, comment, tc.action))
		})
	}
}

func TestCanEditProfile(t *testing.T) {
	testCases := []struct {
		name     string
		identity Identity
		want     Decision
	}{
		{"owner", author, Decision{Allowed: true}},
		{"other user", reader, Decision{Kind: KindForbidden}},
		{"anonymous", Anonymous(), Decision{Kind: KindUnauthenticated}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, CanEditProfile(tc.identity, author.ID))
		})
	}
}

func TestAssignAuthor(t *testing.T) {
	id, err := AssignAuthor(reader)
	require.NoError(t, err)
	assert.Equal(t, reader.ID, id)

	_, err = AssignAuthor(Anonymous())
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestPublishedPostScenario(t *testing.T) {
	post := PostView{ID: 1, AuthorID: 1, IsPublished: true, PubDate: yesterday, Category: published}

	assert.True(t, IsPostVisible(post, reader, now))
	assert.True(t, CanMutatePost(author, post, Edit).Allowed)

	d := CanMutatePost(reader, post, Edit)
	require.False(t, d.Allowed)
	assert.ErrorIs(t, d.Err(), ErrSoftDenied)
}

func TestDecisionErr(t *testing.T) {
	assert.NoError(t, Decision{Allowed: true}.Err())
	assert.ErrorIs(t, Decision{Kind: KindNotFound}.Err(), ErrNotFound)
	assert.ErrorIs(t, Decision{Kind: KindForbidden}.Err(), ErrForbidden)
	assert.ErrorIs(t, Decision{Kind: KindUnauthenticated}.Err(), ErrUnauthenticated)
	assert.Equal(t, "allowed", KindNone.String())
}

func TestPurity(t *testing.T) {
	post := PostView{ID: 1, AuthorID: 1, IsPublished: true, PubDate: tomorrow}
	comment := CommentView{ID: 1, PostID: 1, AuthorID: 1}
	first := IsPostVisible(post, reader, now)
	for i := 0; i < 100; i++ {
		assert.Equal(t, first, IsPostVisible(post, reader, now))
		assert.Equal(t, Decision{Kind: KindSoftDenied}, CanMutatePost(reader, post, Delete))
		assert.Equal(t, Decision{Kind: KindForbidden}, CanMutateComment(reader, comment, Delete))
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", DefaultRestriction))
	assert.Equal(t, "abc", Truncate("abcdef", 3))
	assert.Equal(t, "Опу", Truncate("Опубликовано", 3))
	assert.Equal(t, "abcdef", Truncate("abcdef", 0))
}
