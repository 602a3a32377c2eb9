// Package httpx executes outbound API calls with bounded retries,
// exponential backoff and rate-limit awareness. It fully resolves
// retryable conditions locally and surfaces only terminal outcomes.
package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/shelfhq/shelf-go/pkg/eventx"
	"github.com/shelfhq/shelf-go/pkg/slogx"
)

// Request describes one logical API call. The executor may transmit it
// several times; the body is therefore kept replayable (bytes, not a
// stream).
type Request struct {
	Method  string
	Path    string // joined to the executor's base URL, or a full URL
	Query   url.Values
	Headers map[string]string

	// Body precedence: Form, then JSON (marshaled), then Body raw bytes.
	Form url.Values
	JSON any
	Body []byte

	// AuthToken, when set, is sent as a Bearer Authorization header.
	AuthToken string

	// MaxAttempts overrides the executor's attempt budget for this call.
	MaxAttempts int

	// Idempotent overrides the method-derived replay safety. POST and
	// PATCH default to non-idempotent.
	Idempotent *bool
}

// Response is a fully-read API response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// DecodeJSON unmarshals the response body into target.
func (r *Response) DecodeJSON(target any) error {
	if err := json.Unmarshal(r.Body, target); err != nil {
		return fmt.Errorf("httpx: decode response: %w", err)
	}
	return nil
}

// Executor performs requests against one base URL with a shared retry
// policy, optional client-side throttle and an event bus for
// observability.
type Executor struct {
	baseURL string
	client  *http.Client
	policy  RetryPolicy
	limiter *rate.Limiter
	bus     *eventx.Bus
	log     *slog.Logger
}

// Option configures an Executor.
type Option func(*Executor)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(e *Executor) {
		if c != nil {
			e.client = c
		}
	}
}

// WithTimeout sets the per-attempt timeout on the executor's client.
func WithTimeout(d time.Duration) Option {
	return func(e *Executor) {
		if d > 0 {
			e.client.Timeout = d
		}
	}
}

// WithRetryPolicy replaces the default retry policy.
func WithRetryPolicy(p RetryPolicy) Option {
	return func(e *Executor) { e.policy = p.withDefaults() }
}

// WithRateLimit throttles attempts client-side to avoid tripping the
// server's limiter in the first place.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(e *Executor) {
		if perSecond > 0 {
			e.limiter = rate.NewLimiter(rate.Limit(perSecond), max(burst, 1))
		}
	}
}

// WithBus attaches the observability event bus.
func WithBus(bus *eventx.Bus) Option {
	return func(e *Executor) { e.bus = bus }
}

// WithLogger attaches a logger. Defaults to a no-op logger.
func WithLogger(log *slog.Logger) Option {
	return func(e *Executor) {
		if log != nil {
			e.log = log
		}
	}
}

// New creates an executor rooted at baseURL.
func New(baseURL string, opts ...Option) *Executor {
	e := &Executor{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{Timeout: 30 * time.Second},
		policy:  DefaultRetryPolicy(),
		log:     slogx.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Do executes the request and returns an error for any terminal non-2xx
// outcome. Retryable failures are handled internally up to the attempt
// budget.
func (e *Executor) Do(ctx context.Context, req *Request) (*Response, error) {
	return e.do(ctx, req, false)
}

// DoRaw is like Do but hands back received non-2xx responses as data
// rather than errors, for callers that inspect status codes themselves.
// Retryable responses are still retried; the last one received is returned
// when the budget runs out.
func (e *Executor) DoRaw(ctx context.Context, req *Request) (*Response, error) {
	return e.do(ctx, req, true)
}

// Get issues a GET for path.
func (e *Executor) Get(ctx context.Context, path string, query url.Values) (*Response, error) {
	return e.Do(ctx, &Request{Method: http.MethodGet, Path: path, Query: query})
}

// Post issues a POST with a JSON body.
func (e *Executor) Post(ctx context.Context, path string, body any) (*Response, error) {
	return e.Do(ctx, &Request{Method: http.MethodPost, Path: path, JSON: body})
}

// Put issues a PUT with a JSON body.
func (e *Executor) Put(ctx context.Context, path string, body any) (*Response, error) {
	return e.Do(ctx, &Request{Method: http.MethodPut, Path: path, JSON: body})
}

// Delete issues a DELETE for path.
func (e *Executor) Delete(ctx context.Context, path string) (*Response, error) {
	return e.Do(ctx, &Request{Method: http.MethodDelete, Path: path})
}

func (e *Executor) do(ctx context.Context, req *Request, raw bool) (*Response, error) {
	body, contentType, err := encodeBody(req)
	if err != nil {
		// Serialization failure is fatal, never retried.
		return nil, err
	}

	attempts := e.policy.MaxAttempts
	if req.MaxAttempts > 0 {
		attempts = req.MaxAttempts
	}

	bo := e.policy.newBackOff()

	var (
		lastErr  error
		lastResp *Response
	)

	for attempt := 1; attempt <= attempts; attempt++ {
		if e.limiter != nil {
			if err := e.limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}

		started := time.Now()
		resp, attErr := e.attempt(ctx, req, body, contentType)
		elapsed := time.Since(started)

		if attErr != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}

			// Connection-level failure: nothing reached the server, so
			// even non-idempotent requests may be replayed.
			outcome := classifyErr(attErr)
			lastErr = attErr
			lastResp = nil

			if attempt == attempts {
				break
			}
			if err := e.waitRetry(ctx, req, bo.NextBackOff(), attempt, elapsed, 0, outcome, attErr); err != nil {
				return nil, err
			}
			continue
		}

		outcome := classifyStatus(resp.StatusCode)

		if outcome == OutcomeSuccess {
			e.emit(eventx.TopicRequestSuccess, req, attempt, elapsed, resp.StatusCode, outcome, nil)
			return resp, nil
		}

		statusErr := newStatusError(resp.StatusCode, resp.Body)

		if !outcome.Retryable() {
			e.emit(eventx.TopicRequestFailure, req, attempt, elapsed, resp.StatusCode, outcome, statusErr)
			if raw {
				return resp, nil
			}
			return nil, statusErr
		}

		// The server responded. A non-idempotent request may already have
		// taken effect, so it must never be replayed past this point.
		if !isIdempotent(req) {
			e.emit(eventx.TopicRequestFailure, req, attempt, elapsed, resp.StatusCode, outcome, statusErr)
			if raw {
				return resp, nil
			}
			return nil, statusErr
		}

		lastErr = statusErr
		lastResp = resp

		if attempt == attempts {
			break
		}

		delay := bo.NextBackOff()
		if ra := retryAfter(resp.Header, time.Now()); ra > delay {
			delay = ra
		}
		if err := e.waitRetry(ctx, req, delay, attempt, elapsed, resp.StatusCode, outcome, statusErr); err != nil {
			return nil, err
		}
	}

	retryErr := &MaxRetriesError{Attempts: attempts, Last: lastErr}
	e.emit(eventx.TopicRequestFailure, req, attempts, 0, statusOf(lastResp), OutcomeRetryableServer, retryErr)

	if raw && lastResp != nil {
		return lastResp, nil
	}
	return nil, retryErr
}

// attempt transmits the request once and reads the full response.
func (e *Executor) attempt(ctx context.Context, req *Request, body []byte, contentType string) (*Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, e.url(req), reader)
	if err != nil {
		return nil, fmt.Errorf("httpx: build request: %w", err)
	}

	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	if req.AuthToken != "" {
		httpReq.Header.Set("Authorization", "Bearer "+req.AuthToken)
	}
	for key, value := range req.Headers {
		httpReq.Header.Set(key, value)
	}

	resp, err := e.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("httpx: send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("httpx: read response: %w", err)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       respBody,
	}, nil
}

// waitRetry emits the retry event and sleeps for delay, honoring ctx.
func (e *Executor) waitRetry(
	ctx context.Context,
	req *Request,
	delay time.Duration,
	attempt int,
	elapsed time.Duration,
	status int,
	outcome Outcome,
	cause error,
) error {
	e.emit(eventx.TopicRequestRetry, req, attempt, elapsed, status, outcome, cause)
	e.log.Debug("retrying request",
		"method", req.Method,
		"path", req.Path,
		"attempt", attempt,
		"delay", delay,
		"kind", outcome.String(),
	)

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (e *Executor) emit(
	topic string,
	req *Request,
	attempt int,
	elapsed time.Duration,
	status int,
	outcome Outcome,
	cause error,
) {
	ev := eventx.RequestEvent{
		Method:  req.Method,
		Path:    req.Path,
		Attempt: attempt,
		Elapsed: elapsed,
		Status:  status,
		Kind:    outcome.String(),
	}
	if cause != nil {
		ev.Err = cause.Error()
	}
	e.bus.Publish(topic, ev)
}

func (e *Executor) url(req *Request) string {
	target := req.Path
	if !strings.HasPrefix(target, "http://") && !strings.HasPrefix(target, "https://") {
		target = e.baseURL + target
	}
	if len(req.Query) > 0 {
		target += "?" + req.Query.Encode()
	}
	return target
}

// encodeBody serializes the request body once so each attempt can replay
// the same bytes.
func encodeBody(req *Request) ([]byte, string, error) {
	switch {
	case req.Form != nil:
		return []byte(req.Form.Encode()), "application/x-www-form-urlencoded", nil
	case req.JSON != nil:
		b, err := json.Marshal(req.JSON)
		if err != nil {
			return nil, "", fmt.Errorf("httpx: encode body: %w", err)
		}
		return b, "application/json", nil
	case req.Body != nil:
		return req.Body, req.Headers["Content-Type"], nil
	default:
		return nil, "", nil
	}
}

func isIdempotent(req *Request) bool {
	if req.Idempotent != nil {
		return *req.Idempotent
	}
	switch req.Method {
	case http.MethodPost, http.MethodPatch:
		return false
	default:
		return true
	}
}

func statusOf(r *Response) int {
	if r == nil {
		return 0
	}
	return r.StatusCode
}
