package httpx

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// StatusError represents a non-2xx API response. The executor fills Code
// and Description from RFC 6749 style error bodies when the server sends
// one; Body always carries the raw payload for callers that need more.
type StatusError struct {
	StatusCode  int
	Code        string
	Description string
	Body        []byte
}

func (e *StatusError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("httpx: %d %s: %s", e.StatusCode, e.Code, e.Description)
	}
	return fmt.Sprintf("httpx: %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// MaxRetriesError reports an exhausted attempt budget. Last carries the
// final underlying failure so callers can still inspect what went wrong.
type MaxRetriesError struct {
	Attempts int
	Last     error
}

func (e *MaxRetriesError) Error() string {
	return fmt.Sprintf("httpx: retry budget exhausted after %d attempts: %v", e.Attempts, e.Last)
}

func (e *MaxRetriesError) Unwrap() error { return e.Last }

// newStatusError builds a StatusError from a terminal response, pulling a
// structured code out of the body when the server sent one.
func newStatusError(status int, body []byte) *StatusError {
	se := &StatusError{StatusCode: status, Body: body}

	// Standard OAuth2 / API error body
	var errResp struct {
		Error            string `json:"error"`
		ErrorDescription string `json:"error_description"`
	}
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != "" {
		se.Code = errResp.Error
		se.Description = errResp.ErrorDescription
		return se
	}

	// Validation-style error body
	var valResp struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &valResp); err == nil && valResp.Code != "" {
		se.Code = valResp.Code
		se.Description = valResp.Message
	}
	return se
}
