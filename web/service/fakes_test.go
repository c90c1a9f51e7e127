package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/inkwell-blog/inkwell/config"
	"github.com/inkwell-blog/inkwell/database/model"
	"github.com/inkwell-blog/inkwell/util/crypto"
	"github.com/inkwell-blog/inkwell/web/session"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeUserStore struct {
	mu        sync.Mutex
	byID      map[string]*model.User
	findErr   error
	createErr error
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{byID: make(map[string]*model.User)}
}

func (f *fakeUserStore) FindByUsername(_ context.Context, username string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findErr != nil {
		return nil, f.findErr
	}
	for _, u := range f.byID {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeUserStore) FindByID(_ context.Context, id string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findErr != nil {
		return nil, f.findErr
	}
	u, ok := f.byID[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUserStore) Create(_ context.Context, user *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	for _, u := range f.byID {
		if u.Username == user.Username {
			return gorm.ErrDuplicatedKey
		}
	}
	if user.Id == "" {
		user.Id = uuid.NewString()
	}
	cp := *user
	f.byID[user.Id] = &cp
	return nil
}

func (f *fakeUserStore) List(_ context.Context) ([]model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	users := make([]model.User, 0, len(f.byID))
	for _, u := range f.byID {
		users = append(users, *u)
	}
	return users, nil
}

type fakeCache struct {
	posts       []model.Post
	hit         bool
	sets        int
	invalidated int
}

func (f *fakeCache) GetRecent(context.Context) ([]model.Post, bool) {
	return f.posts, f.hit
}

func (f *fakeCache) SetRecent(_ context.Context, posts []model.Post) {
	f.posts = posts
	f.hit = true
	f.sets++
}

func (f *fakeCache) Invalidate(context.Context) {
	f.posts = nil
	f.hit = false
	f.invalidated++
}

func newTestCodec(t *testing.T) *session.Codec {
	t.Helper()
	codec, err := session.NewCodec(&config.Config{SessionSecret: "service-test-secret"})
	require.NoError(t, err)
	return codec
}

func newTestAuth(t *testing.T, users UserStore) *AuthService {
	t.Helper()
	return NewAuthService(users, crypto.NewHasher(4), newTestCodec(t))
}

// requestAs returns a request to path carrying a session for userID, or no
// cookie at all when userID is empty.
func requestAs(t *testing.T, auth *AuthService, method, path, userID string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	if userID == "" {
		return req
	}
	redirect, err := auth.CreateSession(userID, "/")
	require.NoError(t, err)
	req.AddCookie(redirect.Cookie)
	return req
}
