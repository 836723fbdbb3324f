// Package redis stores sessions in Redis with native key expiry.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lborres/realty/core"
	"github.com/redis/go-redis/v9"
)

const minSessionTTL = time.Second

// SessionStore keeps one JSON blob per token hash, expiring with the session.
type SessionStore struct {
	rdb    redis.UniversalClient
	prefix string
	now    func() time.Time
}

var _ core.SessionStorage = (*SessionStore)(nil)

// record is the stored form. core.Session hides TokenHash from JSON.
type record struct {
	ID        string    `json:"id"`
	UserID    string    `json:"uid"`
	TokenHash string    `json:"th"`
	IPAddress string    `json:"ip,omitempty"`
	UserAgent string    `json:"ua,omitempty"`
	ExpiresAt time.Time `json:"exp"`
	CreatedAt time.Time `json:"iat"`
}

func NewSessionStore(rdb redis.UniversalClient, prefix string) *SessionStore {
	if prefix == "" {
		prefix = "realty:"
	}
	return &SessionStore{rdb: rdb, prefix: prefix, now: time.Now}
}

func (s *SessionStore) sessionKey(tokenHash string) string {
	return s.prefix + "session:" + tokenHash
}

func (s *SessionStore) CreateSession(ctx context.Context, sess *core.Session) error {
	raw, err := json.Marshal(record{
		ID:        sess.ID,
		UserID:    sess.UserID,
		TokenHash: sess.TokenHash,
		IPAddress: sess.IPAddress,
		UserAgent: sess.UserAgent,
		ExpiresAt: sess.ExpiresAt,
		CreatedAt: sess.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	ttl := sess.ExpiresAt.Sub(s.now())
	if ttl < minSessionTTL {
		ttl = minSessionTTL
	}

	ok, err := s.rdb.SetNX(ctx, s.sessionKey(sess.TokenHash), raw, ttl).Result()
	if err != nil {
		return err
	}
	if !ok {
		return core.ErrSessionExists
	}
	return nil
}

func (s *SessionStore) GetSessionByHash(ctx context.Context, tokenHash string) (*core.Session, error) {
	rec, err := s.get(ctx, tokenHash)
	if err != nil {
		return nil, err
	}
	return &core.Session{
		ID:        rec.ID,
		UserID:    rec.UserID,
		TokenHash: rec.TokenHash,
		IPAddress: rec.IPAddress,
		UserAgent: rec.UserAgent,
		ExpiresAt: rec.ExpiresAt,
		CreatedAt: rec.CreatedAt,
	}, nil
}

func (s *SessionStore) get(ctx context.Context, tokenHash string) (*record, error) {
	raw, err := s.rdb.Get(ctx, s.sessionKey(tokenHash)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, core.ErrSessionNotFound
		}
		return nil, err
	}

	var rec record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &rec, nil
}

// DeleteSessionByHash is idempotent; a missing key is not an error.
func (s *SessionStore) DeleteSessionByHash(ctx context.Context, tokenHash string) error {
	return s.rdb.Del(ctx, s.sessionKey(tokenHash)).Err()
}

// DeleteExpiredSessions is a no-op: Redis expires session keys on its own.
func (s *SessionStore) DeleteExpiredSessions(context.Context, time.Time) (int, error) {
	return 0, nil
}

// Ping checks connectivity at startup.
func (s *SessionStore) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}
