// Package eventx is the SDK's observability event surface. Components
// publish typed events onto a Bus; host programs subscribe to the topics
// they care about (metrics, audit logs, alerting).
//
// The Bus is instance-scoped: each SDK client owns one and hands it to the
// components it builds. There is deliberately no package-level bus.
package eventx

import (
	"time"

	evbus "github.com/asaskevich/EventBus"
)

// Topics published by the SDK.
const (
	TopicRequestRetry   = "request.retry"
	TopicRequestFailure = "request.failure"
	TopicRequestSuccess = "request.success"
	TopicTokenRefresh   = "token.refresh"
	TopicTokenRevoke    = "token.revoke"
)

// RequestEvent describes one attempt-level outcome of an outbound API call.
type RequestEvent struct {
	Method  string        `json:"method"`
	Path    string        `json:"path"`
	Attempt int           `json:"attempt"`
	Elapsed time.Duration `json:"elapsed"`
	Status  int           `json:"status,omitempty"`
	Kind    string        `json:"kind,omitempty"` // classified outcome, e.g. "rate_limited"
	Err     string        `json:"error,omitempty"`
}

// TokenEvent describes a token lifecycle transition.
type TokenEvent struct {
	GrantType  string        `json:"grant_type,omitempty"`
	EntityType string        `json:"entity_type,omitempty"`
	EntityID   string        `json:"entity_id,omitempty"`
	Elapsed    time.Duration `json:"elapsed"`
	Err        string        `json:"error,omitempty"`
}

// Bus wraps an EventBus instance. All methods are safe on a nil Bus, which
// publishes nothing; components never need to nil-check their bus.
type Bus struct {
	bus evbus.Bus
}

func New() *Bus {
	return &Bus{bus: evbus.New()}
}

// Publish delivers an event to subscribers of topic synchronously.
func (b *Bus) Publish(topic string, event any) {
	if b == nil || b.bus == nil {
		return
	}
	b.bus.Publish(topic, event)
}

// Subscribe registers fn for topic. fn's signature must match the payload
// published on that topic (e.g. func(eventx.RequestEvent) for request topics).
func (b *Bus) Subscribe(topic string, fn any) error {
	if b == nil || b.bus == nil {
		return nil
	}
	return b.bus.Subscribe(topic, fn)
}

// SubscribeAsync registers fn to run on its own goroutine per event.
func (b *Bus) SubscribeAsync(topic string, fn any) error {
	if b == nil || b.bus == nil {
		return nil
	}
	return b.bus.SubscribeAsync(topic, fn, false)
}

// Unsubscribe removes a previously registered handler.
func (b *Bus) Unsubscribe(topic string, fn any) error {
	if b == nil || b.bus == nil {
		return nil
	}
	return b.bus.Unsubscribe(topic, fn)
}

// WaitAsync blocks until all async handlers have drained.
func (b *Bus) WaitAsync() {
	if b == nil || b.bus == nil {
		return
	}
	b.bus.WaitAsync()
}
