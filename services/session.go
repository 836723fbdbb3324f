package services

import (
	"context"
	"errors"
	"time"

	"github.com/lborres/realty/core"
	"github.com/lborres/realty/pkg/crypto"
)

type SessionManager struct {
	config  core.SessionConfig
	storage core.SessionStorage
	cache   core.Cache // nil when caching is disabled
	nanoid  *crypto.NanoID
	now     func() time.Time
}

func NewSessionManager(config core.SessionConfig, storage core.SessionStorage, cache core.Cache) *SessionManager {
	if config.MaxAge <= 0 {
		config.MaxAge = core.DefaultSessionConfig().MaxAge
	}
	return &SessionManager{
		config:  config,
		storage: storage,
		cache:   cache,
		nanoid:  crypto.MustNanoID(),
		now:     time.Now,
	}
}

// Create issues a new opaque token for userID. Only the token hash is stored.
func (sm *SessionManager) Create(ctx context.Context, userID, ip, userAgent string) (*core.CreateSessionResult, error) {
	pair, err := crypto.NewTokenPair(crypto.DefaultTokenLength)
	if err != nil {
		return nil, err
	}

	sessionID, err := sm.nanoid.Generate()
	if err != nil {
		return nil, err
	}

	now := sm.now()
	session := &core.Session{
		ID:        sessionID,
		UserID:    userID,
		TokenHash: pair.Hash,
		IPAddress: ip,
		UserAgent: userAgent,
		CreatedAt: now,
		ExpiresAt: now.Add(sm.config.MaxAge),
	}

	if err := sm.storage.CreateSession(ctx, session); err != nil {
		return nil, err
	}

	// A cache failure never fails the request.
	if sm.cache != nil {
		_ = sm.cache.Set(pair.Hash, session)
	}

	return &core.CreateSessionResult{Session: session, Token: pair.Token}, nil
}

// Verify resolves token to a live session. It returns ErrInvalidToken for an
// empty token, ErrSessionNotFound for an unknown one and ErrSessionExpired
// once ExpiresAt has passed.
func (sm *SessionManager) Verify(ctx context.Context, token string) (*core.Session, error) {
	if token == "" {
		return nil, core.ErrInvalidToken
	}

	tokenHash := crypto.HashToken(token)

	if sm.cache != nil {
		if session, err := sm.cache.Get(tokenHash); err == nil {
			if !sm.now().Before(session.ExpiresAt) {
				_ = sm.cache.Delete(tokenHash)
				return nil, core.ErrSessionExpired
			}
			return session, nil
		}
	}

	session, err := sm.storage.GetSessionByHash(ctx, tokenHash)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, core.ErrSessionNotFound
	}

	if !sm.now().Before(session.ExpiresAt) {
		// Expired rows are swept later; drop this one eagerly.
		_ = sm.storage.DeleteSessionByHash(ctx, tokenHash)
		return nil, core.ErrSessionExpired
	}

	if sm.cache != nil {
		_ = sm.cache.Set(tokenHash, session)
	}

	return session, nil
}

// Destroy invalidates the session behind token. Unknown and empty tokens are
// not errors, so logging out twice succeeds.
func (sm *SessionManager) Destroy(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}

	tokenHash := crypto.HashToken(token)

	if sm.cache != nil {
		_ = sm.cache.Delete(tokenHash)
	}

	err := sm.storage.DeleteSessionByHash(ctx, tokenHash)
	if err != nil && !errors.Is(err, core.ErrSessionNotFound) {
		return err
	}
	return nil
}

// Sweep removes expired sessions from storage.
func (sm *SessionManager) Sweep(ctx context.Context) (int, error) {
	return sm.storage.DeleteExpiredSessions(ctx, sm.now())
}

func (sm *SessionManager) CacheStats() (core.CacheStats, bool) {
	if c, ok := sm.cache.(core.CacheWithStats); ok {
		return c.Stats(), true
	}
	return core.CacheStats{}, false
}
