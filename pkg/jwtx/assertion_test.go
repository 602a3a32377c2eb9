package jwtx_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/shelfhq/shelf-go/pkg/jwtx"
)

func TestNewAssertion(t *testing.T) {
	now := time.Now().UTC()

	t.Run("fresh nonce every mint", func(t *testing.T) {
		a := jwtx.NewAssertion("client-1", "user", "u-1", "https://auth/token", 30*time.Second, 0, now)
		b := jwtx.NewAssertion("client-1", "user", "u-1", "https://auth/token", 30*time.Second, 0, now)
		require.NotEmpty(t, a.ID)
		require.NotEqual(t, a.ID, b.ID)
	})

	t.Run("claims populated", func(t *testing.T) {
		a := jwtx.NewAssertion("client-1", "enterprise", "e-9", "https://auth/token", 30*time.Second, 0, now)
		require.Equal(t, "client-1", a.Issuer)
		require.Equal(t, "e-9", a.Subject)
		require.Equal(t, "enterprise", a.SubjectType)
		require.Contains(t, a.Audience, "https://auth/token")
		require.WithinDuration(t, now.Add(30*time.Second), a.ExpiresAt.Time, time.Second)
	})

	t.Run("skew backdates not-before", func(t *testing.T) {
		a := jwtx.NewAssertion("client-1", "user", "u-1", "aud", 30*time.Second, 10*time.Second, now)
		require.WithinDuration(t, now.Add(-10*time.Second), a.NotBefore.Time, time.Second)
	})

	t.Run("zero ttl uses default", func(t *testing.T) {
		a := jwtx.NewAssertion("client-1", "user", "u-1", "aud", 0, 0, now)
		require.WithinDuration(t, now.Add(jwtx.DefaultAssertionTTL), a.ExpiresAt.Time, time.Second)
	})
}
