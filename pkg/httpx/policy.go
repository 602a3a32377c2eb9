package httpx

import (
	"time"

	"github.com/cenkalti/backoff/v4"
)

// RetryPolicy bounds how hard the executor tries before giving up.
type RetryPolicy struct {
	// MaxAttempts is the total attempt budget, first try included.
	MaxAttempts int

	// InitialDelay is the backoff before the second attempt. Each retry
	// doubles it, up to MaxDelay.
	InitialDelay time.Duration

	// MaxDelay caps the computed backoff. A server-provided Retry-After
	// may still exceed it.
	MaxDelay time.Duration

	// Jitter is the randomization factor applied to each delay, 0..1.
	Jitter float64
}

// DefaultRetryPolicy mirrors what the remote API tolerates well: five
// attempts, half a second initial backoff, capped at thirty seconds.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:  5,
		InitialDelay: 500 * time.Millisecond,
		MaxDelay:     30 * time.Second,
		Jitter:       0.5,
	}
}

func (p RetryPolicy) withDefaults() RetryPolicy {
	def := DefaultRetryPolicy()
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = def.MaxAttempts
	}
	if p.InitialDelay <= 0 {
		p.InitialDelay = def.InitialDelay
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = def.MaxDelay
	}
	if p.Jitter < 0 || p.Jitter > 1 {
		p.Jitter = def.Jitter
	}
	return p
}

// newBackOff builds a fresh schedule for one request's retry loop.
// Schedules are stateful, so they are never shared between requests.
func (p RetryPolicy) newBackOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.InitialDelay
	b.MaxInterval = p.MaxDelay
	b.Multiplier = 2
	b.RandomizationFactor = p.Jitter
	b.MaxElapsedTime = 0 // attempts are bounded by MaxAttempts, not wall time
	b.Reset()
	return b
}
