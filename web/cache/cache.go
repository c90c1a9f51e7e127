package cache

import (
	"context"
	"errors"
	"time"

	"github.com/inkwell-blog/inkwell/database/model"
	"github.com/inkwell-blog/inkwell/logger"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
)

const (
	KeyRecentPosts = "posts:recent"
	TTLRecentPosts = time.Minute
)

// PostCache stores the recent posts list as JSON. Redis errors are logged and
// treated as misses.
type PostCache struct {
	client *Client
	ttl    time.Duration
}

func NewPostCache(client *Client) *PostCache {
	return &PostCache{
		client: client,
		ttl:    TTLRecentPosts,
	}
}

func (c *PostCache) GetRecent(ctx context.Context) ([]model.Post, bool) {
	data, err := c.client.rdb.Get(ctx, KeyRecentPosts).Bytes()
	if errors.Is(err, redis.Nil) {
		logger.Debug("Cache miss for key:", KeyRecentPosts)
		return nil, false
	} else if err != nil {
		logger.Warningf("Failed to read cache key %s: %v", KeyRecentPosts, err)
		return nil, false
	}

	var posts []model.Post
	if err := json.Unmarshal(data, &posts); err != nil {
		logger.Warningf("Dropping corrupt cache key %s: %v", KeyRecentPosts, err)
		c.Invalidate(ctx)
		return nil, false
	}
	logger.Debug("Cache hit for key:", KeyRecentPosts)
	return posts, true
}

func (c *PostCache) SetRecent(ctx context.Context, posts []model.Post) {
	data, err := json.Marshal(posts)
	if err != nil {
		logger.Warningf("Failed to marshal %s: %v", KeyRecentPosts, err)
		return
	}
	if err := c.client.rdb.Set(ctx, KeyRecentPosts, data, c.ttl).Err(); err != nil {
		logger.Warningf("Failed to set cache for key %s: %v", KeyRecentPosts, err)
	}
}

func (c *PostCache) Invalidate(ctx context.Context) {
	if err := c.client.rdb.Del(ctx, KeyRecentPosts).Err(); err != nil {
		logger.Warningf("Failed to invalidate cache key %s: %v", KeyRecentPosts, err)
	}
}
