package shelf

import (
	"context"
	"fmt"
)

// AppAuthSession authenticates as an enterprise or one of its managed
// users via server auth. Token caching and refresh dedup live in the
// token manager's app-auth cache, so every AppAuthSession for the same
// (entity type, entity ID) shares one token and one in-flight refresh.
type AppAuthSession struct {
	mgr        *TokenManager
	entityType EntityType
	entityID   string
	store      TokenStore // optional, for cross-process sharing
}

func (s *AppAuthSession) AccessToken(ctx context.Context) (string, error) {
	info, err := s.mgr.AppAuthToken(ctx, s.entityType, s.entityID, s.store)
	if err != nil {
		return "", err
	}
	return info.AccessToken, nil
}

// Revoke invalidates this entity's cached token, if one exists. The cache
// entry is evicted; the next AccessToken call performs a fresh exchange.
func (s *AppAuthSession) Revoke(ctx context.Context) error {
	info := s.mgr.cached(cacheKey{Type: s.entityType, ID: s.entityID})
	if info == nil {
		return fmt.Errorf("shelf: no token to revoke")
	}
	if err := s.mgr.Revoke(ctx, info.AccessToken); err != nil {
		return err
	}
	if s.store != nil {
		if err := s.store.Clear(ctx); err != nil {
			s.mgr.log.Warn("token store clear failed", "error", err)
		}
	}
	return nil
}

// AnonymousSession wraps the process-wide shared client-credentials
// token. The SDK entry point constructs exactly one and hands it out by
// reference; all anonymous callers share its TokenInfo and its refresh.
type AnonymousSession struct {
	mgr      *TokenManager
	clientID string
}

func (s *AnonymousSession) AccessToken(ctx context.Context) (string, error) {
	info, err := s.mgr.AppAuthToken(ctx, entityAnonymous, s.clientID, nil)
	if err != nil {
		return "", err
	}
	return info.AccessToken, nil
}
