package shelf

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/shelfhq/shelf-go/pkg/eventx"
	"github.com/shelfhq/shelf-go/pkg/jwtx"
)

// Default endpoints and tuning values. Every field on Config documents its
// default next to it; zero values mean "use the default".
const (
	DefaultAPIBaseURL = "https://api.shelf.dev/2.0"
	DefaultTokenURL   = "https://account.shelf.dev/oauth2/token"
	DefaultRevokeURL  = "https://account.shelf.dev/oauth2/revoke"

	DefaultTimeout      = 30 * time.Second
	DefaultExpiryMargin = 60 * time.Second
	DefaultClockSkew    = 10 * time.Second
)

// AppAuthConfig carries the signing material for server authentication
// (JWT bearer grants acting as an enterprise or a managed user).
type AppAuthConfig struct {
	// PrivateKeyPEM is the RSA signing key. When Passphrase is set, this
	// is an encrypted blob produced by jwtx.EncryptPrivateKey.
	PrivateKeyPEM []byte
	Passphrase    string

	// KeyID is the registered public key identifier sent in the
	// assertion header.
	KeyID string

	// EnterpriseID identifies the enterprise this application acts for.
	EnterpriseID string

	// AssertionTTL bounds assertion lifetime. Default 30s.
	AssertionTTL time.Duration
}

// Config is the SDK's static settings object, constructed once at startup.
// There is no dynamic option merging: unknown settings have nowhere to go.
type Config struct {
	ClientID     string
	ClientSecret string

	// APIBaseURL default: DefaultAPIBaseURL.
	APIBaseURL string
	// TokenURL default: DefaultTokenURL.
	TokenURL string
	// RevokeURL default: DefaultRevokeURL.
	RevokeURL string

	// AppAuth enables server authentication. Optional.
	AppAuth *AppAuthConfig

	// Timeout bounds each network attempt. Default 30s.
	Timeout time.Duration
	// MaxAttempts is the retry budget per request. Default 5.
	MaxAttempts int
	// BackoffInitial is the first retry delay. Default 500ms.
	BackoffInitial time.Duration
	// BackoffMax caps computed delays. Default 30s.
	BackoffMax time.Duration

	// ExpiryMargin treats tokens as stale this long before their literal
	// expiry. Default 60s.
	ExpiryMargin time.Duration
	// ClockSkewTolerance backdates assertion validity. Default 10s.
	ClockSkewTolerance time.Duration

	// RequestsPerSecond throttles calls client-side. 0 disables.
	RequestsPerSecond float64
	// Burst for the client-side throttle. Default 1 when throttling.
	Burst int

	// Logger for SDK internals. Default: discard.
	Logger *slog.Logger
	// HTTPClient overrides the default transport. Optional.
	HTTPClient *http.Client
	// Bus receives observability events. Default: a fresh private bus.
	Bus *eventx.Bus
}

func (c Config) withDefaults() Config {
	if c.APIBaseURL == "" {
		c.APIBaseURL = DefaultAPIBaseURL
	}
	if c.TokenURL == "" {
		c.TokenURL = DefaultTokenURL
	}
	if c.RevokeURL == "" {
		c.RevokeURL = DefaultRevokeURL
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.ExpiryMargin <= 0 {
		c.ExpiryMargin = DefaultExpiryMargin
	}
	if c.ClockSkewTolerance <= 0 {
		c.ClockSkewTolerance = DefaultClockSkew
	}
	return c
}

// validate fails fast on misconfiguration that would otherwise surface as
// a confusing first-use error. Returns the app-auth signer when
// configured, since building it is the validation.
func (c Config) validate() (jwtx.Signer, error) {
	if c.ClientID == "" {
		return nil, fmt.Errorf("%w: ClientID is required", ErrConfiguration)
	}

	if c.AppAuth == nil {
		return nil, nil
	}

	if c.AppAuth.KeyID == "" {
		return nil, fmt.Errorf("%w: AppAuth.KeyID is required", ErrConfiguration)
	}
	if len(c.AppAuth.PrivateKeyPEM) == 0 {
		return nil, fmt.Errorf("%w: AppAuth.PrivateKeyPEM is required", ErrConfiguration)
	}

	var (
		signer jwtx.Signer
		err    error
	)
	if c.AppAuth.Passphrase != "" {
		signer, err = jwtx.NewSignerRS256Encrypted(c.AppAuth.KeyID, c.AppAuth.PrivateKeyPEM, c.AppAuth.Passphrase)
	} else {
		signer, err = jwtx.NewSignerRS256(c.AppAuth.KeyID, c.AppAuth.PrivateKeyPEM)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfiguration, err)
	}
	if err := signer.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfiguration, err)
	}
	return signer, nil
}
