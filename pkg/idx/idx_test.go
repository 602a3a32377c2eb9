package idx_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/shelfhq/shelf-go/pkg/idx"
)

func TestNew(t *testing.T) {
	t.Run("unique across many calls", func(t *testing.T) {
		seen := make(map[idx.ID]bool)
		for n := 0; n < 1000; n++ {
			id := idx.New()
			require.False(t, seen[id], "duplicate id %s", id)
			seen[id] = true
		}
	})

	t.Run("sortable within one millisecond", func(t *testing.T) {
		at := time.Now().UTC()
		a := idx.NewAt(at)
		b := idx.NewAt(at)
		require.Less(t, a.String(), b.String())
	})
}

func TestParse(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		id := idx.New()
		parsed, err := idx.Parse(id.String())
		require.NoError(t, err)
		require.Equal(t, id, parsed)
	})

	t.Run("empty string", func(t *testing.T) {
		_, err := idx.Parse("")
		require.ErrorIs(t, err, idx.ErrInvalid)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := idx.Parse("not-a-ulid")
		require.ErrorIs(t, err, idx.ErrInvalid)
	})
}

func TestTime(t *testing.T) {
	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	id := idx.NewAt(at)
	require.WithinDuration(t, at, id.Time(), time.Millisecond)
}
