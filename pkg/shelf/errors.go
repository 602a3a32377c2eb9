package shelf

import (
	"errors"
	"fmt"

	"github.com/shelfhq/shelf-go/pkg/httpx"
)

// RFC 6749 error codes the token endpoint returns.
const (
	errorCodeInvalidGrant       = "invalid_grant"
	errorCodeInvalidClient      = "invalid_client"
	errorCodeUnauthorizedClient = "unauthorized_client"
)

var (
	// ErrInvalidGrant means the credential itself was rejected (bad
	// client secret, expired code, revoked or reused refresh token).
	// Retrying cannot help; the caller must supply new credentials.
	ErrInvalidGrant = errors.New("shelf: invalid grant")

	// ErrConfiguration reports missing or malformed settings, detected at
	// construction where possible.
	ErrConfiguration = errors.New("shelf: invalid configuration")

	// ErrSessionExpired is returned by a basic session whose fixed token
	// has run out. Basic sessions have no refresh capability.
	ErrSessionExpired = errors.New("shelf: session expired")

	// ErrUnrecoverable marks a session whose refresh credential was
	// rejected. The session will not retry on its own.
	ErrUnrecoverable = errors.New("shelf: session unrecoverable")
)

// classifyGrantErr maps a token endpoint failure onto the SDK taxonomy.
// Credential rejections become ErrInvalidGrant; transport-level outcomes
// (including an exhausted retry budget) pass through unchanged.
func classifyGrantErr(err error) error {
	var se *httpx.StatusError
	if errors.As(err, &se) {
		switch se.Code {
		case errorCodeInvalidGrant, errorCodeInvalidClient, errorCodeUnauthorizedClient:
			return fmt.Errorf("%w: %w", ErrInvalidGrant, err)
		}
	}
	return err
}
