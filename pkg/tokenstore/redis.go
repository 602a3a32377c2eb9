package tokenstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/shelfhq/shelf-go/pkg/shelf"
)

// Redis stores one identity's token under a fixed key, serialized as
// JSON. It is the cross-process store: several workers holding the same
// identity converge on whichever token was written last.
type Redis struct {
	client redis.UniversalClient
	key    string
	ttl    time.Duration
}

// RedisOption configures a Redis store.
type RedisOption func(*Redis)

// WithTTL expires the stored entry. Zero (the default) keeps it until
// cleared; refresh tokens outlive their access token, so an aggressive
// TTL can lose the ability to refresh.
func WithTTL(ttl time.Duration) RedisOption {
	return func(r *Redis) { r.ttl = ttl }
}

// NewRedis binds a store to one identity's key, e.g.
// "shelf:tokens:user:12345".
func NewRedis(client redis.UniversalClient, key string, opts ...RedisOption) *Redis {
	r := &Redis{client: client, key: key}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Redis) Read(ctx context.Context) (*shelf.TokenInfo, error) {
	raw, err := r.client.Get(ctx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("tokenstore: redis read: %w", err)
	}

	var info shelf.TokenInfo
	if err := json.Unmarshal(raw, &info); err != nil {
		return nil, fmt.Errorf("tokenstore: decode stored token: %w", err)
	}
	return &info, nil
}

func (r *Redis) Write(ctx context.Context, info *shelf.TokenInfo) error {
	raw, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("tokenstore: encode token: %w", err)
	}
	if err := r.client.Set(ctx, r.key, raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("tokenstore: redis write: %w", err)
	}
	return nil
}

func (r *Redis) Clear(ctx context.Context) error {
	if err := r.client.Del(ctx, r.key).Err(); err != nil {
		return fmt.Errorf("tokenstore: redis clear: %w", err)
	}
	return nil
}
