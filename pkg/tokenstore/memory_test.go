package tokenstore_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/shelfhq/shelf-go/pkg/shelf"
	"github.com/shelfhq/shelf-go/pkg/tokenstore"
)

func TestMemory(t *testing.T) {
	ctx := context.Background()

	t.Run("empty store reads nil", func(t *testing.T) {
		store := tokenstore.NewMemory()
		info, err := store.Read(ctx)
		require.NoError(t, err)
		require.Nil(t, info)
	})

	t.Run("write then read round trips", func(t *testing.T) {
		store := tokenstore.NewMemory()
		want := &shelf.TokenInfo{
			AccessToken:  "at",
			RefreshToken: "rt",
			ExpiresAt:    time.Now().Add(time.Hour).UTC(),
			AcquiredAt:   time.Now().UTC(),
		}
		require.NoError(t, store.Write(ctx, want))

		got, err := store.Read(ctx)
		require.NoError(t, err)
		require.Equal(t, want, got)
	})

	t.Run("read returns a copy", func(t *testing.T) {
		store := tokenstore.NewMemory()
		require.NoError(t, store.Write(ctx, &shelf.TokenInfo{AccessToken: "at"}))

		got, err := store.Read(ctx)
		require.NoError(t, err)
		got.AccessToken = "mutated"

		again, err := store.Read(ctx)
		require.NoError(t, err)
		require.Equal(t, "at", again.AccessToken)
	})

	t.Run("clear removes the entry", func(t *testing.T) {
		store := tokenstore.NewMemory()
		require.NoError(t, store.Write(ctx, &shelf.TokenInfo{AccessToken: "at"}))
		require.NoError(t, store.Clear(ctx))

		info, err := store.Read(ctx)
		require.NoError(t, err)
		require.Nil(t, info)
	})
}
