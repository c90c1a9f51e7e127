package service

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/inkwell-blog/inkwell/database/model"
	"github.com/inkwell-blog/inkwell/web/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterValidation(t *testing.T) {
	tests := []struct {
		name      string
		username  string
		password  string
		badFields []string
	}{
		{"short username", "ab", "123456", []string{"username"}},
		{"short password", "abc", "12345", []string{"password"}},
		{"both short", "", "", []string{"username", "password"}},
		{"minimum lengths", "abc", "123456", nil},
		{"multibyte username counted in characters", "éa", "123456", []string{"username"}},
		{"multibyte minimum lengths", "日本語", "pässwö", nil},
		{"password at bcrypt limit", "abc", strings.Repeat("p", MaxPasswordLength), nil},
		{"password over bcrypt limit", "abc", strings.Repeat("p", 80), []string{"password"}},
		{"multibyte password over bcrypt limit", "abc", strings.Repeat("ü", 40), []string{"password"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			auth := newTestAuth(t, newFakeUserStore())
			user, err := auth.Register(context.Background(), tt.username, tt.password)
			if tt.badFields == nil {
				require.NoError(t, err)
				assert.Equal(t, tt.username, user.Username)
				assert.NotEmpty(t, user.Id)
				assert.NotEqual(t, tt.password, user.PasswordHash)
				return
			}
			assert.ErrorIs(t, err, ErrValidation)
			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Len(t, verr.Fields, len(tt.badFields))
			for _, f := range tt.badFields {
				assert.Contains(t, verr.Fields, f)
			}
		})
	}
}

func TestRegisterConflict(t *testing.T) {
	ctx := context.Background()
	auth := newTestAuth(t, newFakeUserStore())

	_, err := auth.Register(ctx, "alice", "secret1")
	require.NoError(t, err)

	_, err = auth.Register(ctx, "alice", "secret2")
	assert.ErrorIs(t, err, ErrConflict)
}

// blindUserStore misses rows on username lookup, like a concurrent insert
// that lands between the pre-check and Create.
type blindUserStore struct {
	*fakeUserStore
}

func (b *blindUserStore) FindByUsername(context.Context, string) (*model.User, error) {
	return nil, nil
}

func TestRegisterUniqueIndexRace(t *testing.T) {
	ctx := context.Background()
	store := newFakeUserStore()
	_, err := newTestAuth(t, store).Register(ctx, "alice", "secret1")
	require.NoError(t, err)

	auth := newTestAuth(t, &blindUserStore{fakeUserStore: store})
	_, err = auth.Register(ctx, "alice", "secret2")
	assert.ErrorIs(t, err, ErrConflict)
}

func TestRegisterInfrastructureError(t *testing.T) {
	store := newFakeUserStore()
	store.createErr = errors.New("disk full")
	auth := newTestAuth(t, store)

	_, err := auth.Register(context.Background(), "alice", "secret1")
	assert.ErrorIs(t, err, ErrInfrastructure)
	assert.NotErrorIs(t, err, ErrConflict)
}

func TestLoginDoesNotRevealWhichPartFailed(t *testing.T) {
	ctx := context.Background()
	auth := newTestAuth(t, newFakeUserStore())
	registered, err := auth.Register(ctx, "realuser", "rightpass")
	require.NoError(t, err)

	user, err := auth.Login(ctx, "realuser", "rightpass")
	require.NoError(t, err)
	assert.Equal(t, registered.Id, user.Id)

	noUser, errNoUser := auth.Login(ctx, "nouser", "anything")
	badPass, errBadPass := auth.Login(ctx, "realuser", "wrongpass")
	assert.Nil(t, noUser)
	assert.Nil(t, badPass)
	assert.ErrorIs(t, errNoUser, ErrNotFound)
	assert.ErrorIs(t, errBadPass, ErrNotFound)
	assert.Equal(t, errNoUser.Error(), errBadPass.Error())
}

func TestLoginInfrastructureError(t *testing.T) {
	store := newFakeUserStore()
	store.findErr = errors.New("connection reset")
	auth := newTestAuth(t, store)

	_, err := auth.Login(context.Background(), "alice", "secret1")
	assert.ErrorIs(t, err, ErrInfrastructure)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestCurrentUserID(t *testing.T) {
	auth := newTestAuth(t, newFakeUserStore())

	_, ok := auth.CurrentUserID(requestAs(t, auth, http.MethodGet, "/", ""))
	assert.False(t, ok)

	id, ok := auth.CurrentUserID(requestAs(t, auth, http.MethodGet, "/", "u1"))
	assert.True(t, ok)
	assert.Equal(t, "u1", id)

	req := requestAs(t, auth, http.MethodGet, "/", "")
	req.AddCookie(&http.Cookie{Name: session.CookieName, Value: "forged"})
	_, ok = auth.CurrentUserID(req)
	assert.False(t, ok)
}

func TestRequireUserID(t *testing.T) {
	auth := newTestAuth(t, newFakeUserStore())

	t.Run("anonymous uses the requested path", func(t *testing.T) {
		_, err := auth.RequireUserID(requestAs(t, auth, http.MethodPost, "/posts/new", ""), "")
		require.ErrorIs(t, err, ErrUnauthenticated)

		var unauth *UnauthenticatedError
		require.True(t, errors.As(err, &unauth))
		assert.Equal(t, "/auth/login?redirectTo=%2Fposts%2Fnew", unauth.Location())

		loc, err := url.Parse(unauth.Location())
		require.NoError(t, err)
		assert.Equal(t, LoginPath, loc.Path)
		assert.Equal(t, "/posts/new", loc.Query().Get("redirectTo"))
	})

	t.Run("anonymous with explicit target", func(t *testing.T) {
		_, err := auth.RequireUserID(requestAs(t, auth, http.MethodPost, "/posts/abc", ""), "/posts")
		var unauth *UnauthenticatedError
		require.True(t, errors.As(err, &unauth))
		assert.Equal(t, "/posts", unauth.RedirectTo)
	})

	t.Run("logged in", func(t *testing.T) {
		id, err := auth.RequireUserID(requestAs(t, auth, http.MethodPost, "/posts/new", "u7"), "")
		require.NoError(t, err)
		assert.Equal(t, "u7", id)
	})
}

func TestCurrentUser(t *testing.T) {
	ctx := context.Background()
	store := newFakeUserStore()
	auth := newTestAuth(t, store)
	alice, err := auth.Register(ctx, "alice", "secret1")
	require.NoError(t, err)

	user, err := auth.CurrentUser(ctx, requestAs(t, auth, http.MethodGet, "/", ""))
	assert.NoError(t, err)
	assert.Nil(t, user)

	user, err = auth.CurrentUser(ctx, requestAs(t, auth, http.MethodGet, "/", alice.Id))
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "alice", user.Username)

	user, err = auth.CurrentUser(ctx, requestAs(t, auth, http.MethodGet, "/", "deleted-user"))
	assert.NoError(t, err)
	assert.Nil(t, user)
}

func TestCurrentUserForcesLogoutOnStoreFailure(t *testing.T) {
	ctx := context.Background()
	store := newFakeUserStore()
	auth := newTestAuth(t, store)
	req := requestAs(t, auth, http.MethodGet, "/posts", "u1")

	store.findErr = errors.New("database is locked")
	user, err := auth.CurrentUser(ctx, req)
	assert.Nil(t, user)
	assert.ErrorIs(t, err, ErrInfrastructure)

	var forced *ForcedLogoutError
	require.True(t, errors.As(err, &forced))
	require.NotNil(t, forced.Logout)
	assert.Equal(t, LoginPath, forced.Logout.Location)
	assert.Equal(t, session.CookieName, forced.Logout.Cookie.Name)
	assert.Less(t, forced.Logout.Cookie.MaxAge, 0)
}

func TestCreateSession(t *testing.T) {
	auth := newTestAuth(t, newFakeUserStore())

	tests := []struct {
		target string
		want   string
	}{
		{"/posts/123", "/posts/123"},
		{"/", "/"},
		{"", "/"},
		{"https://evil.example/", "/"},
		{"//evil.example/", "/"},
		{"/\\evil.example", "/"},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			redirect, err := auth.CreateSession("u1", tt.target)
			require.NoError(t, err)
			assert.Equal(t, tt.want, redirect.Location)
			require.NotNil(t, redirect.Cookie)
			assert.Equal(t, session.MaxAge, redirect.Cookie.MaxAge)
		})
	}

	redirect, err := auth.CreateSession("u1", "/")
	require.NoError(t, err)
	codec := newTestCodec(t)
	assert.Equal(t, map[string]string{session.KeyUserID: "u1"}, codec.Decode(redirect.Cookie.Value))
}

func TestLogout(t *testing.T) {
	auth := newTestAuth(t, newFakeUserStore())
	req := requestAs(t, auth, http.MethodPost, "/auth/logout", "u1")

	redirect := auth.Logout(req)
	assert.Equal(t, LoginPath, redirect.Location)
	assert.Equal(t, session.CookieName, redirect.Cookie.Name)
	assert.Empty(t, redirect.Cookie.Value)
	assert.Less(t, redirect.Cookie.MaxAge, 0)
}
