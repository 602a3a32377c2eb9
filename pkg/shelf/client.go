package shelf

import (
	"context"
	"log/slog"
	"time"

	"github.com/shelfhq/shelf-go/pkg/eventx"
	"github.com/shelfhq/shelf-go/pkg/httpx"
	"github.com/shelfhq/shelf-go/pkg/slogx"
)

// Client is the SDK entry point. It owns the request executor, the token
// manager, the event bus and the single shared anonymous session, and
// hands out the session variants.
type Client struct {
	cfg    Config
	exec   *httpx.Executor
	tokens *TokenManager
	bus    *eventx.Bus
	log    *slog.Logger
	anon   *AnonymousSession
}

// New validates cfg and builds a Client. Malformed signing key material
// fails here, not on first use.
func New(cfg Config) (*Client, error) {
	cfg = cfg.withDefaults()

	signer, err := cfg.validate()
	if err != nil {
		return nil, err
	}

	log := cfg.Logger
	if log == nil {
		log = slogx.Nop()
	}
	bus := cfg.Bus
	if bus == nil {
		bus = eventx.New()
	}

	opts := []httpx.Option{
		httpx.WithRetryPolicy(httpx.RetryPolicy{
			MaxAttempts:  cfg.MaxAttempts,
			InitialDelay: cfg.BackoffInitial,
			MaxDelay:     cfg.BackoffMax,
		}),
		httpx.WithBus(bus),
		httpx.WithLogger(log),
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, httpx.WithHTTPClient(cfg.HTTPClient))
	} else {
		opts = append(opts, httpx.WithTimeout(cfg.Timeout))
	}
	if cfg.RequestsPerSecond > 0 {
		opts = append(opts, httpx.WithRateLimit(cfg.RequestsPerSecond, cfg.Burst))
	}

	exec := httpx.New(cfg.APIBaseURL, opts...)
	tokens := newTokenManager(cfg, signer, exec, bus, log)

	c := &Client{
		cfg:    cfg,
		exec:   exec,
		tokens: tokens,
		bus:    bus,
		log:    log,
	}
	c.anon = &AnonymousSession{mgr: tokens, clientID: cfg.ClientID}
	return c, nil
}

// Executor exposes the request executor for resource managers.
func (c *Client) Executor() *httpx.Executor { return c.exec }

// Tokens exposes the token lifecycle manager.
func (c *Client) Tokens() *TokenManager { return c.tokens }

// Bus exposes the observability event bus for subscription.
func (c *Client) Bus() *eventx.Bus { return c.bus }

// AnonymousSession returns the shared anonymous session. Every call
// returns the same instance.
func (c *Client) AnonymousSession() *AnonymousSession { return c.anon }

// BasicSession wraps a developer-supplied fixed token. Zero expiresAt
// means no known expiry.
func (c *Client) BasicSession(accessToken string, expiresAt time.Time) *BasicSession {
	return NewBasicSession(accessToken, expiresAt)
}

// PersistentSession builds a refreshable session from an existing token
// pair, optionally backed by a Token Store for cross-process sharing.
func (c *Client) PersistentSession(info *TokenInfo, store TokenStore) *PersistentSession {
	return &PersistentSession{
		mgr:    c.tokens,
		store:  store,
		log:    c.log,
		margin: c.cfg.ExpiryMargin,
		now:    time.Now,
		info:   info,
	}
}

// AppEnterpriseSession authenticates as the given enterprise. Pass an
// empty id to use the configured AppAuth enterprise.
func (c *Client) AppEnterpriseSession(enterpriseID string, store TokenStore) *AppAuthSession {
	if enterpriseID == "" && c.cfg.AppAuth != nil {
		enterpriseID = c.cfg.AppAuth.EnterpriseID
	}
	return &AppAuthSession{mgr: c.tokens, entityType: EntityEnterprise, entityID: enterpriseID, store: store}
}

// AppUserSession authenticates as one of the enterprise's managed users.
func (c *Client) AppUserSession(userID string, store TokenStore) *AppAuthSession {
	return &AppAuthSession{mgr: c.tokens, entityType: EntityUser, entityID: userID, store: store}
}

// SessionFromCode exchanges an authorization code and wraps the result in
// a persistent session.
func (c *Client) SessionFromCode(ctx context.Context, code string, store TokenStore) (*PersistentSession, error) {
	info, err := c.tokens.Grant(ctx, GrantRequest{Type: GrantAuthorizationCode, Code: code})
	if err != nil {
		return nil, err
	}
	return c.PersistentSession(info, store), nil
}

// Downscope derives a scoped child token from the session's token via a
// token-exchange grant. The child is handed back raw; it is the caller's
// to manage (typically passed to a less-trusted component).
func (c *Client) Downscope(ctx context.Context, sess Session, scopes []string, resource string) (*TokenInfo, error) {
	parent, err := sess.AccessToken(ctx)
	if err != nil {
		return nil, err
	}
	return c.tokens.Grant(ctx, GrantRequest{
		Type:         GrantTokenExchange,
		SubjectToken: parent,
		Scopes:       scopes,
		Resource:     resource,
	})
}

// Close releases cached tokens and drains async event handlers.
func (c *Client) Close() {
	c.tokens.Close()
	c.bus.WaitAsync()
}
