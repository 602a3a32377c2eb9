package shelf

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/shelfhq/shelf-go/pkg/eventx"
	"github.com/shelfhq/shelf-go/pkg/httpx"
	"github.com/shelfhq/shelf-go/pkg/jwtx"
)

// TokenManager issues, caches and revokes access tokens. App-auth tokens
// are cached per (entity type, entity ID); concurrent callers needing the
// same refresh join one in-flight exchange instead of starting their own.
type TokenManager struct {
	cfg    Config
	exec   *httpx.Executor
	signer jwtx.Signer // nil unless app auth is configured
	bus    *eventx.Bus
	log    *slog.Logger
	now    func() time.Time

	mu     sync.Mutex
	cache  map[cacheKey]*TokenInfo
	flight singleflight.Group
}

type cacheKey struct {
	Type EntityType
	ID   string
}

func (k cacheKey) String() string {
	return string(k.Type) + ":" + k.ID
}

func newTokenManager(cfg Config, signer jwtx.Signer, exec *httpx.Executor, bus *eventx.Bus, log *slog.Logger) *TokenManager {
	return &TokenManager{
		cfg:    cfg,
		exec:   exec,
		signer: signer,
		bus:    bus,
		log:    log,
		now:    time.Now,
		cache:  make(map[cacheKey]*TokenInfo),
	}
}

// Grant performs one token exchange. No caching happens here: the
// authorization-code and refresh-token grants are per-user, so their
// lifetime bookkeeping belongs to the session that owns them.
func (m *TokenManager) Grant(ctx context.Context, req GrantRequest) (*TokenInfo, error) {
	form, err := m.grantForm(req)
	if err != nil {
		return nil, err
	}

	started := m.now()
	resp, err := m.exec.Do(ctx, &httpx.Request{
		Method: http.MethodPost,
		Path:   m.cfg.TokenURL,
		Form:   form,
	})
	if err != nil {
		return nil, classifyGrantErr(err)
	}

	var tr tokenResponse
	if err := resp.DecodeJSON(&tr); err != nil {
		return nil, err
	}
	if tr.AccessToken == "" {
		return nil, fmt.Errorf("shelf: token endpoint returned no access token")
	}

	now := m.now()
	info := &TokenInfo{
		AccessToken:  tr.AccessToken,
		RefreshToken: tr.RefreshToken,
		AcquiredAt:   now,
		ExpiresAt:    now.Add(time.Duration(tr.ExpiresIn) * time.Second),
	}

	m.bus.Publish(eventx.TopicTokenRefresh, eventx.TokenEvent{
		GrantType:  string(req.Type),
		EntityType: string(req.SubjectType),
		EntityID:   req.SubjectID,
		Elapsed:    now.Sub(started),
	})
	m.log.Debug("token grant succeeded",
		"grant_type", string(req.Type),
		"expires_at", info.ExpiresAt,
	)
	return info, nil
}

// Revoke invalidates a token with a direct, never-cached network call.
// On success any app-auth cache entry holding that token is evicted; the
// token is never recreated automatically.
func (m *TokenManager) Revoke(ctx context.Context, token string) error {
	form := url.Values{
		"token":     {token},
		"client_id": {m.cfg.ClientID},
	}
	if m.cfg.ClientSecret != "" {
		form.Set("client_secret", m.cfg.ClientSecret)
	}

	started := m.now()
	_, err := m.exec.Do(ctx, &httpx.Request{
		Method: http.MethodPost,
		Path:   m.cfg.RevokeURL,
		Form:   form,
	})
	if err != nil {
		return classifyGrantErr(err)
	}

	m.evictToken(token)
	m.bus.Publish(eventx.TopicTokenRevoke, eventx.TokenEvent{
		Elapsed: m.now().Sub(started),
	})
	return nil
}

// AppAuthToken returns a valid token for (entityType, entityID), serving
// from cache when fresh and otherwise joining or starting a single
// exchange for that key. A non-nil store is consulted before granting and
// updated after, for cross-process sharing.
//
// Cancelling ctx stops waiting but does not abort an in-flight exchange:
// other joined callers still depend on it.
func (m *TokenManager) AppAuthToken(ctx context.Context, entityType EntityType, entityID string, store TokenStore) (*TokenInfo, error) {
	key := cacheKey{Type: entityType, ID: entityID}

	if info := m.cached(key); !info.Stale(m.now(), m.cfg.ExpiryMargin) {
		return info, nil
	}

	ch := m.flight.DoChan(key.String(), func() (any, error) {
		return m.refreshAppAuth(context.WithoutCancel(ctx), key, store)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*TokenInfo), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// refreshAppAuth runs inside the singleflight for one cache key.
func (m *TokenManager) refreshAppAuth(ctx context.Context, key cacheKey, store TokenStore) (*TokenInfo, error) {
	// A joiner that queued behind a completed refresh lands here with a
	// fresh cache entry already in place.
	if info := m.cached(key); !info.Stale(m.now(), m.cfg.ExpiryMargin) {
		return info, nil
	}

	if store != nil {
		stored, err := store.Read(ctx)
		switch {
		case err != nil:
			m.log.Warn("token store read failed", "error", err)
		case !stored.Stale(m.now(), m.cfg.ExpiryMargin):
			// Another process refreshed this identity already.
			m.setCached(key, stored)
			return stored, nil
		}
	}

	info, err := m.Grant(ctx, m.appAuthGrant(key))
	if err != nil {
		return nil, err
	}
	m.setCached(key, info)

	if store != nil {
		if err := store.Write(ctx, info); err != nil {
			// The grant itself succeeded; the store is best effort.
			m.log.Warn("token store write failed", "error", err)
		}
	}
	return info, nil
}

// appAuthGrant picks the exchange variant for a cache key. With signing
// material configured, entity grants use JWT bearer assertions; without
// it they fall back to subject-scoped client credentials. The anonymous
// key always uses plain client credentials.
func (m *TokenManager) appAuthGrant(key cacheKey) GrantRequest {
	if key.Type == entityAnonymous {
		return GrantRequest{Type: GrantClientCredentials}
	}
	if m.signer != nil {
		return GrantRequest{Type: GrantJWTBearer, SubjectType: key.Type, SubjectID: key.ID}
	}
	return GrantRequest{Type: GrantClientCredentials, SubjectType: key.Type, SubjectID: key.ID}
}

func (m *TokenManager) grantForm(req GrantRequest) (url.Values, error) {
	form := url.Values{
		"grant_type": {string(req.Type)},
		"client_id":  {m.cfg.ClientID},
	}
	if m.cfg.ClientSecret != "" {
		form.Set("client_secret", m.cfg.ClientSecret)
	}

	switch req.Type {
	case GrantAuthorizationCode:
		form.Set("code", req.Code)

	case GrantRefreshToken:
		form.Set("refresh_token", req.RefreshToken)

	case GrantClientCredentials:
		if req.SubjectID != "" {
			form.Set("subject_type", string(req.SubjectType))
			form.Set("subject_id", req.SubjectID)
		}

	case GrantJWTBearer:
		if m.signer == nil {
			return nil, fmt.Errorf("%w: JWT bearer grant requires signing key material", ErrConfiguration)
		}
		// Every exchange mints a fresh assertion. The token service
		// remembers nonces, so reusing one is a protocol violation.
		assertion := jwtx.NewAssertion(
			m.cfg.ClientID,
			string(req.SubjectType),
			req.SubjectID,
			m.cfg.TokenURL,
			m.assertionTTL(),
			m.cfg.ClockSkewTolerance,
			m.now(),
		)
		signed, err := m.signer.Sign(assertion)
		if err != nil {
			return nil, fmt.Errorf("%w: sign assertion: %w", ErrConfiguration, err)
		}
		form.Set("assertion", signed)

	case GrantTokenExchange:
		form.Set("subject_token", req.SubjectToken)
		form.Set("subject_token_type", "urn:ietf:params:oauth:token-type:access_token")
		if len(req.Scopes) > 0 {
			form.Set("scope", strings.Join(req.Scopes, " "))
		}
		if req.Resource != "" {
			form.Set("resource", req.Resource)
		}

	default:
		return nil, fmt.Errorf("shelf: unsupported grant type %q", req.Type)
	}

	return form, nil
}

func (m *TokenManager) assertionTTL() time.Duration {
	if m.cfg.AppAuth != nil && m.cfg.AppAuth.AssertionTTL > 0 {
		return m.cfg.AppAuth.AssertionTTL
	}
	return jwtx.DefaultAssertionTTL
}

func (m *TokenManager) cached(key cacheKey) *TokenInfo {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cache[key]
}

func (m *TokenManager) setCached(key cacheKey, info *TokenInfo) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cache[key] = info
}

// evictToken drops every cache entry holding the given access token.
func (m *TokenManager) evictToken(token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, info := range m.cache {
		if info != nil && info.AccessToken == token {
			delete(m.cache, key)
		}
	}
}

// Close drops all cached tokens. Entries otherwise live until revoked;
// there is no implicit TTL eviction beyond token expiry itself.
func (m *TokenManager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cache = make(map[cacheKey]*TokenInfo)
}
