package service

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/inkwell-blog/inkwell/config"
	"github.com/inkwell-blog/inkwell/database"
	"github.com/inkwell-blog/inkwell/database/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type postFixture struct {
	posts *PostService
	cache *fakeCache
	owner *model.User
	other *model.User
}

func setupPosts(t *testing.T) *postFixture {
	t.Helper()
	require.NoError(t, database.InitDB(config.NewSQLiteConfig(filepath.Join(t.TempDir(), "posts.db"))))
	t.Cleanup(func() {
		_ = database.CloseDB()
	})

	ctx := context.Background()
	users := database.NewUserRepository(database.GetDB())
	auth := newTestAuth(t, users)
	owner, err := auth.Register(ctx, "owner", "secret1")
	require.NoError(t, err)
	other, err := auth.Register(ctx, "other", "secret2")
	require.NoError(t, err)

	cache := &fakeCache{}
	return &postFixture{
		posts: NewPostService(database.NewPostRepository(database.GetDB()), cache),
		cache: cache,
		owner: owner,
		other: other,
	}
}

func validInput() PostInput {
	return PostInput{Title: "Hello", Body: "A body long enough to pass."}
}

func TestPostInputValidate(t *testing.T) {
	tests := []struct {
		name  string
		in    PostInput
		field string
	}{
		{"valid", PostInput{Title: "abc", Body: "0123456789"}, ""},
		{"short title", PostInput{Title: "ab", Body: "0123456789"}, "title"},
		{"short body", PostInput{Title: "abc", Body: "012345678"}, "body"},
		{"multibyte title counted in characters", PostInput{Title: "日本", Body: "0123456789"}, "title"},
		{"multibyte minimum lengths", PostInput{Title: "日本語", Body: "ünïcödé ök"}, ""},
		{"multibyte short body", PostInput{Title: "abc", Body: "ééééééééé"}, "body"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.in.Validate()
			if tt.field == "" {
				assert.NoError(t, err)
				return
			}
			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Contains(t, verr.Fields, tt.field)
		})
	}
}

func TestCreateAndGet(t *testing.T) {
	f := setupPosts(t)
	ctx := context.Background()

	post, err := f.posts.Create(ctx, f.owner.Id, validInput())
	require.NoError(t, err)
	assert.Equal(t, f.owner.Id, post.UserId)
	assert.Equal(t, 1, f.cache.invalidated)

	got, err := f.posts.Get(ctx, post.Id)
	require.NoError(t, err)
	assert.Equal(t, "Hello", got.Title)

	_, err = f.posts.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.posts.Create(ctx, f.owner.Id, PostInput{Title: "x", Body: "y"})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestCreateRejectsUnknownOwner(t *testing.T) {
	f := setupPosts(t)
	_, err := f.posts.Create(context.Background(), "no-such-user", validInput())
	assert.ErrorIs(t, err, ErrInfrastructure)
}

func TestListUsesCache(t *testing.T) {
	f := setupPosts(t)
	ctx := context.Background()

	for i := 0; i < RecentPostsLimit+2; i++ {
		_, err := f.posts.Create(ctx, f.owner.Id, validInput())
		require.NoError(t, err)
	}

	posts, err := f.posts.List(ctx)
	require.NoError(t, err)
	assert.Len(t, posts, RecentPostsLimit)
	assert.Equal(t, 1, f.cache.sets)

	_, err = f.posts.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, f.cache.sets, "second list should be served from cache")
}

func TestDeleteOwnership(t *testing.T) {
	f := setupPosts(t)
	ctx := context.Background()
	post, err := f.posts.Create(ctx, f.owner.Id, validInput())
	require.NoError(t, err)

	t.Run("anonymous", func(t *testing.T) {
		assert.ErrorIs(t, f.posts.Delete(ctx, "", false, post.Id), ErrForbidden)
	})

	t.Run("non-owner", func(t *testing.T) {
		assert.ErrorIs(t, f.posts.Delete(ctx, f.other.Id, true, post.Id), ErrForbidden)
		_, err := f.posts.Get(ctx, post.Id)
		assert.NoError(t, err)
	})

	t.Run("owner", func(t *testing.T) {
		require.NoError(t, f.posts.Delete(ctx, f.owner.Id, true, post.Id))
		_, err := f.posts.Get(ctx, post.Id)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("nonexistent", func(t *testing.T) {
		assert.ErrorIs(t, f.posts.Delete(ctx, f.owner.Id, true, post.Id), ErrNotFound)
		assert.ErrorIs(t, f.posts.Delete(ctx, f.owner.Id, true, "never-existed"), ErrNotFound)
	})
}

// racingPostStore reports the post as present but loses the delete race.
type racingPostStore struct {
	post *model.Post
}

func (r *racingPostStore) FindByID(context.Context, string) (*model.Post, error) {
	return r.post, nil
}

func (r *racingPostStore) ListRecent(context.Context, int) ([]model.Post, error) {
	return nil, nil
}

func (r *racingPostStore) Create(context.Context, *model.Post) error {
	return nil
}

func (r *racingPostStore) DeleteByID(context.Context, string) error {
	return database.ErrNoRows
}

func TestConcurrentDeleteLoserGetsNotFound(t *testing.T) {
	store := &racingPostStore{post: &model.Post{Id: "p1", UserId: "u1"}}
	posts := NewPostService(store, nil)
	assert.ErrorIs(t, posts.Delete(context.Background(), "u1", true, "p1"), ErrNotFound)
}

func TestAuthorize(t *testing.T) {
	post := &model.Post{Id: "p1", UserId: "u1"}
	tests := []struct {
		name        string
		identity    string
		hasIdentity bool
		want        error
	}{
		{"owner", "u1", true, nil},
		{"someone else", "u2", true, ErrForbidden},
		{"anonymous", "", false, ErrForbidden},
		{"absent flag wins", "u1", false, ErrForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Authorize(tt.identity, tt.hasIdentity, post)
			if tt.want == nil {
				assert.NoError(t, err)
				assert.True(t, IsOwner(tt.identity, tt.hasIdentity, post))
			} else {
				assert.ErrorIs(t, err, tt.want)
				assert.False(t, IsOwner(tt.identity, tt.hasIdentity, post))
			}
		})
	}
	assert.ErrorIs(t, Authorize("u1", true, nil), ErrForbidden)
}
