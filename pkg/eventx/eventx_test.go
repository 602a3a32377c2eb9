package eventx_test

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/shelfhq/shelf-go/pkg/eventx"
)

func TestBus(t *testing.T) {
	t.Run("delivers to subscribers", func(t *testing.T) {
		bus := eventx.New()

		var got eventx.RequestEvent
		require.NoError(t, bus.Subscribe(eventx.TopicRequestRetry, func(ev eventx.RequestEvent) {
			got = ev
		}))

		bus.Publish(eventx.TopicRequestRetry, eventx.RequestEvent{Method: "GET", Path: "/x", Attempt: 2})
		require.Equal(t, "GET", got.Method)
		require.Equal(t, 2, got.Attempt)
	})

	t.Run("async subscribers drain on WaitAsync", func(t *testing.T) {
		bus := eventx.New()

		var count int64
		require.NoError(t, bus.SubscribeAsync(eventx.TopicTokenRefresh, func(ev eventx.TokenEvent) {
			atomic.AddInt64(&count, 1)
		}))

		for n := 0; n < 5; n++ {
			bus.Publish(eventx.TopicTokenRefresh, eventx.TokenEvent{GrantType: "client_credentials"})
		}
		bus.WaitAsync()
		require.EqualValues(t, 5, atomic.LoadInt64(&count))
	})

	t.Run("unsubscribed handlers stop receiving", func(t *testing.T) {
		bus := eventx.New()

		var count int64
		handler := func(ev eventx.RequestEvent) { atomic.AddInt64(&count, 1) }
		require.NoError(t, bus.Subscribe(eventx.TopicRequestFailure, handler))

		bus.Publish(eventx.TopicRequestFailure, eventx.RequestEvent{})
		require.NoError(t, bus.Unsubscribe(eventx.TopicRequestFailure, handler))
		bus.Publish(eventx.TopicRequestFailure, eventx.RequestEvent{})

		require.EqualValues(t, 1, atomic.LoadInt64(&count))
	})

	t.Run("nil bus drops everything", func(t *testing.T) {
		var bus *eventx.Bus
		bus.Publish(eventx.TopicRequestRetry, eventx.RequestEvent{})
		bus.WaitAsync()
	})
}
