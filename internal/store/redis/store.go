// Package redis caches rendered post HTML so repeated previews of an
// unchanged body skip the Markdown pipeline.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultRenderTTL is the default TTL for cached rendered HTML (24 hours)
const DefaultRenderTTL = 24 * time.Hour

// Store handles Redis operations for the render cache
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStore creates a new Redis store. A zero ttl falls back to
// DefaultRenderTTL.
func NewStore(client *redis.Client, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultRenderTTL
	}
	return &Store{
		client: client,
		ttl:    ttl,
	}
}

// CacheRendered stores a post's rendered HTML
func (s *Store) CacheRendered(ctx context.Context, postID, html string) error {
	key := RenderKey(postID)
	if err := s.client.Set(ctx, key, html, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache rendered html: %w", err)
	}
	return nil
}

// GetRendered retrieves cached rendered HTML. A cache miss returns ""
// with no error.
func (s *Store) GetRendered(ctx context.Context, postID string) (string, error) {
	key := RenderKey(postID)
	html, err := s.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil // Cache miss
		}
		return "", fmt.Errorf("failed to get cached html: %w", err)
	}
	return html, nil
}

// Invalidate removes one post's cached HTML. Called whenever the body
// changes.
func (s *Store) Invalidate(ctx context.Context, postID string) error {
	key := RenderKey(postID)
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to invalidate render cache: %w", err)
	}
	return nil
}

// Flush removes all cached renders
func (s *Store) Flush(ctx context.Context) error {
	iter := s.client.Scan(ctx, 0, KeyPrefixRender+"*", 0).Iterator()
	for iter.Next(ctx) {
		if err := s.client.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("failed to delete cache key: %w", err)
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to flush render cache: %w", err)
	}
	return nil
}
