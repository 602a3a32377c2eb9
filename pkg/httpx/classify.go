package httpx

import (
	"net/http"
	"strconv"
	"time"
)

// Outcome is the executor's classification of one attempt.
type Outcome int

const (
	// OutcomeSuccess is any 2xx response.
	OutcomeSuccess Outcome = iota

	// OutcomeRetryableServer covers 5xx responses and connection-level
	// failures (timeout, reset, refused).
	OutcomeRetryableServer

	// OutcomeRateLimited is a 429; the server may advertise how long to
	// wait via Retry-After.
	OutcomeRateLimited

	// OutcomeClientError is any other 4xx. The request will not succeed
	// by repetition, so it is never retried.
	OutcomeClientError

	// OutcomeFatal is a local failure building or serializing the request.
	OutcomeFatal
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeRetryableServer:
		return "retryable_server"
	case OutcomeRateLimited:
		return "rate_limited"
	case OutcomeClientError:
		return "client_error"
	default:
		return "fatal"
	}
}

// Retryable reports whether the executor may try again, subject to the
// attempt budget and the non-idempotent guard.
func (o Outcome) Retryable() bool {
	return o == OutcomeRetryableServer || o == OutcomeRateLimited
}

// classifyStatus maps a received HTTP status to an Outcome.
func classifyStatus(status int) Outcome {
	switch {
	case status >= 200 && status < 300:
		return OutcomeSuccess
	case status == http.StatusTooManyRequests:
		return OutcomeRateLimited
	case status >= 500:
		return OutcomeRetryableServer
	default:
		return OutcomeClientError
	}
}

// classifyErr maps a transport error to an Outcome. Anything reaching it
// is connection-level (timeout, reset, refused): no response was received,
// so it is retryable and counted against the budget like any 5xx. Context
// cancellation is checked by the caller before classification.
func classifyErr(_ error) Outcome {
	return OutcomeRetryableServer
}

// retryAfter parses a Retry-After header, which may be delta-seconds or an
// HTTP-date. Returns 0 when absent or unparseable.
func retryAfter(h http.Header, now time.Time) time.Duration {
	val := h.Get("Retry-After")
	if val == "" {
		return 0
	}

	if secs, err := strconv.Atoi(val); err == nil {
		if secs < 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}

	if at, err := http.ParseTime(val); err == nil {
		if d := at.Sub(now); d > 0 {
			return d
		}
	}
	return 0
}
