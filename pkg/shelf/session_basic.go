package shelf

import (
	"context"
	"time"
)

// BasicSession holds one fixed access token for its whole lifetime. It has
// no refresh capability: once the token expires every call fails with
// ErrSessionExpired until the caller constructs a new session.
type BasicSession struct {
	token     string
	expiresAt time.Time // zero means no known expiry
	now       func() time.Time
}

// NewBasicSession wraps a developer-supplied token. Pass the zero time
// when the expiry is unknown; expiry then surfaces as API 401s instead.
func NewBasicSession(accessToken string, expiresAt time.Time) *BasicSession {
	return &BasicSession{
		token:     accessToken,
		expiresAt: expiresAt,
		now:       time.Now,
	}
}

func (s *BasicSession) AccessToken(ctx context.Context) (string, error) {
	if s.token == "" {
		return "", ErrSessionExpired
	}
	if !s.expiresAt.IsZero() && !s.now().Before(s.expiresAt) {
		return "", ErrSessionExpired
	}
	return s.token, nil
}
