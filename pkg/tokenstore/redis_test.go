package tokenstore_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/shelfhq/shelf-go/pkg/shelf"
	"github.com/shelfhq/shelf-go/pkg/tokenstore"
)

func newRedisClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func TestRedis(t *testing.T) {
	ctx := context.Background()

	t.Run("missing key reads nil", func(t *testing.T) {
		_, client := newRedisClient(t)
		store := tokenstore.NewRedis(client, "shelf:tokens:user:1")

		info, err := store.Read(ctx)
		require.NoError(t, err)
		require.Nil(t, info)
	})

	t.Run("write then read round trips", func(t *testing.T) {
		_, client := newRedisClient(t)
		store := tokenstore.NewRedis(client, "shelf:tokens:user:1")

		want := &shelf.TokenInfo{
			AccessToken:  "at",
			RefreshToken: "rt",
			ExpiresAt:    time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
			AcquiredAt:   time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC),
		}
		require.NoError(t, store.Write(ctx, want))

		got, err := store.Read(ctx)
		require.NoError(t, err)
		require.Equal(t, want, got)
	})

	t.Run("keys isolate identities", func(t *testing.T) {
		_, client := newRedisClient(t)
		alice := tokenstore.NewRedis(client, "shelf:tokens:user:alice")
		bob := tokenstore.NewRedis(client, "shelf:tokens:user:bob")

		require.NoError(t, alice.Write(ctx, &shelf.TokenInfo{AccessToken: "a"}))

		info, err := bob.Read(ctx)
		require.NoError(t, err)
		require.Nil(t, info)
	})

	t.Run("clear removes the entry", func(t *testing.T) {
		_, client := newRedisClient(t)
		store := tokenstore.NewRedis(client, "shelf:tokens:user:1")

		require.NoError(t, store.Write(ctx, &shelf.TokenInfo{AccessToken: "at"}))
		require.NoError(t, store.Clear(ctx))

		info, err := store.Read(ctx)
		require.NoError(t, err)
		require.Nil(t, info)
	})

	t.Run("TTL expires the entry", func(t *testing.T) {
		mr, client := newRedisClient(t)
		store := tokenstore.NewRedis(client, "shelf:tokens:user:1", tokenstore.WithTTL(time.Minute))

		require.NoError(t, store.Write(ctx, &shelf.TokenInfo{AccessToken: "at"}))
		mr.FastForward(2 * time.Minute)

		info, err := store.Read(ctx)
		require.NoError(t, err)
		require.Nil(t, info)
	})

	t.Run("corrupt payload surfaces an error", func(t *testing.T) {
		mr, client := newRedisClient(t)
		store := tokenstore.NewRedis(client, "shelf:tokens:user:1")

		require.NoError(t, mr.Set("shelf:tokens:user:1", "not json"))
		_, err := store.Read(ctx)
		require.Error(t, err)
	})
}
