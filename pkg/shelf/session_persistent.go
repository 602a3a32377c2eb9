package shelf

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// PersistentSession holds a refreshable token pair, optionally backed by a
// Token Store so several processes can share one identity's tokens.
//
// Refresh tokens are typically single-use: two concurrent refreshes with
// the same token would invalidate the session. All callers on one
// PersistentSession therefore share a single in-flight refresh.
type PersistentSession struct {
	mgr    *TokenManager
	store  TokenStore // optional
	log    *slog.Logger
	margin time.Duration
	now    func() time.Time

	mu    sync.RWMutex
	info  *TokenInfo
	fatal error // set when the refresh credential was rejected

	flight singleflight.Group
}

const refreshKey = "refresh"

// AccessToken returns a valid token, refreshing first when the cached one
// is within the expiry margin. Cancelling ctx stops waiting but never
// aborts a refresh other callers have joined.
func (s *PersistentSession) AccessToken(ctx context.Context) (string, error) {
	s.mu.RLock()
	info, fatal := s.info, s.fatal
	s.mu.RUnlock()

	if fatal != nil {
		return "", fatal
	}
	if !info.Stale(s.now(), s.margin) {
		return info.AccessToken, nil
	}

	ch := s.flight.DoChan(refreshKey, func() (any, error) {
		return s.refresh(context.WithoutCancel(ctx))
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(*TokenInfo).AccessToken, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// refresh runs inside the session's singleflight.
func (s *PersistentSession) refresh(ctx context.Context) (*TokenInfo, error) {
	s.mu.RLock()
	info, fatal := s.info, s.fatal
	s.mu.RUnlock()

	if fatal != nil {
		return nil, fatal
	}
	// A caller that queued behind a completed refresh needs no exchange.
	if !info.Stale(s.now(), s.margin) {
		return info, nil
	}

	// Another process may have refreshed this identity already.
	if s.store != nil {
		stored, err := s.store.Read(ctx)
		switch {
		case err != nil:
			s.log.Warn("token store read failed", "error", err)
		case !stored.Stale(s.now(), s.margin):
			s.mu.Lock()
			s.info = stored
			s.mu.Unlock()
			return stored, nil
		}
	}

	if info == nil || info.RefreshToken == "" {
		return nil, fmt.Errorf("%w: access token stale and no refresh token held", ErrSessionExpired)
	}

	fresh, err := s.mgr.Grant(ctx, GrantRequest{
		Type:         GrantRefreshToken,
		RefreshToken: info.RefreshToken,
	})
	if err != nil {
		if errors.Is(err, ErrInvalidGrant) {
			// The credential is gone; retrying would just repeat the
			// rejection. The stale TokenInfo stays inspectable.
			fatal := fmt.Errorf("%w: %w", ErrUnrecoverable, err)
			s.mu.Lock()
			s.fatal = fatal
			s.mu.Unlock()
			return nil, fatal
		}
		return nil, err
	}

	s.mu.Lock()
	s.info = fresh
	s.mu.Unlock()

	if s.store != nil {
		if err := s.store.Write(ctx, fresh); err != nil {
			s.log.Warn("token store write failed", "error", err)
		}
	}
	return fresh, nil
}

// TokenInfo returns the session's current token, stale or not. A failed
// refresh does not clear it; callers may still want to inspect or log it.
func (s *PersistentSession) TokenInfo() *TokenInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.info
}

// Revoke invalidates the session's tokens remotely and clears local and
// stored state. The session is not usable afterwards.
func (s *PersistentSession) Revoke(ctx context.Context) error {
	s.mu.RLock()
	info := s.info
	s.mu.RUnlock()

	if info == nil {
		return fmt.Errorf("shelf: no token to revoke")
	}

	// Revoking the refresh token invalidates the whole pair server-side.
	token := info.RefreshToken
	if token == "" {
		token = info.AccessToken
	}
	if err := s.mgr.Revoke(ctx, token); err != nil {
		return err
	}

	s.mu.Lock()
	s.info = nil
	s.mu.Unlock()

	if s.store != nil {
		if err := s.store.Clear(ctx); err != nil {
			s.log.Warn("token store clear failed", "error", err)
		}
	}
	return nil
}
