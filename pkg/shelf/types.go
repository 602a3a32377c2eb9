package shelf

import (
	"context"
	"time"
)

// GrantType enumerates the token-exchange protocol variants the token
// manager can perform.
type GrantType string

const (
	GrantAuthorizationCode GrantType = "authorization_code"
	GrantRefreshToken      GrantType = "refresh_token"
	GrantClientCredentials GrantType = "client_credentials"
	GrantJWTBearer         GrantType = "urn:ietf:params:oauth:grant-type:jwt-bearer"
	GrantTokenExchange     GrantType = "urn:ietf:params:oauth:grant-type:token-exchange"
)

// EntityType says what a server-auth subject identifies.
type EntityType string

const (
	EntityEnterprise EntityType = "enterprise"
	EntityUser       EntityType = "user"

	// entityAnonymous keys the process-wide shared client-credentials
	// token in the app-auth cache. Not a wire value.
	entityAnonymous EntityType = "anonymous"
)

// TokenInfo is one issued access token plus its lifetime bookkeeping.
// It is immutable once created: a refresh produces a new TokenInfo.
type TokenInfo struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	ExpiresAt    time.Time `json:"expires_at"`
	AcquiredAt   time.Time `json:"acquired_at"`
}

// Stale reports whether the token should no longer be handed to callers.
// The margin backdates the literal expiry so a token never runs out in the
// middle of a dependent API call.
func (t *TokenInfo) Stale(now time.Time, margin time.Duration) bool {
	if t == nil || t.AccessToken == "" {
		return true
	}
	return !now.Before(t.ExpiresAt.Add(-margin))
}

// GrantRequest describes one token-exchange attempt. Constructed per call,
// never persisted.
type GrantRequest struct {
	Type GrantType

	// Code is the authorization code (authorization_code grant).
	Code string

	// RefreshToken is the token to exchange (refresh_token grant).
	RefreshToken string

	// SubjectType and SubjectID scope a server-auth grant to an
	// enterprise or one of its managed users.
	SubjectType EntityType
	SubjectID   string

	// SubjectToken and Scopes drive a token-exchange (downscope) grant.
	SubjectToken string
	Scopes       []string
	Resource     string
}

// tokenResponse is the token endpoint's wire shape (RFC 6749).
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
}

// TokenStore is a caller-supplied persistence capability for sharing
// tokens across processes. Implementations are bound to one identity at
// construction time; the SDK treats the store as opaque and makes no
// exclusivity assumptions about it.
type TokenStore interface {
	// Read returns the stored token, or (nil, nil) when absent.
	Read(ctx context.Context) (*TokenInfo, error)
	Write(ctx context.Context, info *TokenInfo) error
	Clear(ctx context.Context) error
}

// Session is the one capability resource managers consume: a valid bearer
// token, refreshed behind the scenes when the variant supports it.
type Session interface {
	AccessToken(ctx context.Context) (string, error)
}
