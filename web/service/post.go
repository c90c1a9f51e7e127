package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/inkwell-blog/inkwell/database"
	"github.com/inkwell-blog/inkwell/database/model"
	"github.com/inkwell-blog/inkwell/logger"
)

const (
	RecentPostsLimit = 20

	MinTitleLength = 3
	MinBodyLength  = 10
)

type PostStore interface {
	FindByID(ctx context.Context, id string) (*model.Post, error)
	ListRecent(ctx context.Context, limit int) ([]model.Post, error)
	Create(ctx context.Context, post *model.Post) error
	DeleteByID(ctx context.Context, id string) error
}

// RecentCache holds the rendered-list snapshot. Misses and failures are
// indistinguishable to callers.
type RecentCache interface {
	GetRecent(ctx context.Context) ([]model.Post, bool)
	SetRecent(ctx context.Context, posts []model.Post)
	Invalidate(ctx context.Context)
}

type noCache struct{}

func (noCache) GetRecent(context.Context) ([]model.Post, bool) { return nil, false }
func (noCache) SetRecent(context.Context, []model.Post)         {}
func (noCache) Invalidate(context.Context)                      {}

type PostService struct {
	posts PostStore
	cache RecentCache
}

// NewPostService wires the store and an optional cache (nil disables caching).
func NewPostService(posts PostStore, cache RecentCache) *PostService {
	if cache == nil {
		cache = noCache{}
	}
	return &PostService{
		posts: posts,
		cache: cache,
	}
}

// PostInput is the submitted post form.
type PostInput struct {
	Title string `json:"title" form:"title"`
	Body  string `json:"body" form:"body"`
}

func (in PostInput) Validate() error {
	verr := &ValidationError{}
	if utf8.RuneCountInString(in.Title) < MinTitleLength {
		verr.Add("title", "validation.titleTooShort")
	}
	if utf8.RuneCountInString(in.Body) < MinBodyLength {
		verr.Add("body", "validation.bodyTooShort")
	}
	return verr.OrNil()
}

// List returns the most recent posts, newest first.
func (s *PostService) List(ctx context.Context) ([]model.Post, error) {
	if posts, ok := s.cache.GetRecent(ctx); ok {
		return posts, nil
	}
	posts, err := s.posts.ListRecent(ctx, RecentPostsLimit)
	if err != nil {
		return nil, fmt.Errorf("%w: list posts: %v", ErrInfrastructure, err)
	}
	s.cache.SetRecent(ctx, posts)
	return posts, nil
}

// Get never restricts by ownership.
func (s *PostService) Get(ctx context.Context, id string) (*model.Post, error) {
	post, err := s.posts.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: find post: %v", ErrInfrastructure, err)
	}
	if post == nil {
		return nil, fmt.Errorf("post %q: %w", id, ErrNotFound)
	}
	return post, nil
}

// Create stores a post owned by userID.
func (s *PostService) Create(ctx context.Context, userID string, in PostInput) (*model.Post, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(userID) == "" {
		return nil, ErrUnauthenticated
	}
	post := &model.Post{
		Title:  in.Title,
		Body:   in.Body,
		UserId: userID,
	}
	if err := s.posts.Create(ctx, post); err != nil {
		return nil, fmt.Errorf("%w: create post: %v", ErrInfrastructure, err)
	}
	s.cache.Invalidate(ctx)
	logger.Debugf("user %s created post %s", userID, post.Id)
	return post, nil
}

// Delete removes a post on behalf of identity. It fails with ErrNotFound when
// the id does not resolve and ErrForbidden when identity is not the owner.
func (s *PostService) Delete(ctx context.Context, identity string, hasIdentity bool, id string) error {
	post, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := Authorize(identity, hasIdentity, post); err != nil {
		return err
	}
	if err := s.posts.DeleteByID(ctx, id); err != nil {
		if errors.Is(err, database.ErrNoRows) {
			return fmt.Errorf("post %q: %w", id, ErrNotFound)
		}
		return fmt.Errorf("%w: delete post: %v", ErrInfrastructure, err)
	}
	s.cache.Invalidate(ctx)
	logger.Debugf("user %s deleted post %s", identity, id)
	return nil
}
