// Package memory provides map-backed storage for development and tests.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/lborres/realty/core"
)

// Adapter stores users and sessions in process memory.
type Adapter struct {
	mu       sync.RWMutex
	users    map[string]*core.User
	emails   map[string]string // email -> user id
	sessions map[string]*core.Session
}

var (
	_ core.UserStorage    = (*Adapter)(nil)
	_ core.SessionStorage = (*Adapter)(nil)
)

func New() *Adapter {
	return &Adapter{
		users:    make(map[string]*core.User),
		emails:   make(map[string]string),
		sessions: make(map[string]*core.Session),
	}
}

func (a *Adapter) CreateUser(_ context.Context, u *core.User) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, taken := a.emails[u.Email]; taken {
		return core.ErrUserExists
	}
	cp := *u
	a.users[u.ID] = &cp
	a.emails[u.Email] = u.ID
	return nil
}

func (a *Adapter) GetUserByID(_ context.Context, id string) (*core.User, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	u, ok := a.users[id]
	if !ok {
		return nil, core.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (a *Adapter) GetUserByEmail(_ context.Context, email string) (*core.User, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	id, ok := a.emails[email]
	if !ok {
		return nil, core.ErrUserNotFound
	}
	cp := *a.users[id]
	return &cp, nil
}

func (a *Adapter) CreateSession(_ context.Context, s *core.Session) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, exists := a.sessions[s.TokenHash]; exists {
		return core.ErrSessionExists
	}
	cp := *s
	a.sessions[s.TokenHash] = &cp
	return nil
}

func (a *Adapter) GetSessionByHash(_ context.Context, tokenHash string) (*core.Session, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	s, ok := a.sessions[tokenHash]
	if !ok {
		return nil, core.ErrSessionNotFound
	}
	cp := *s
	return &cp, nil
}

func (a *Adapter) DeleteSessionByHash(_ context.Context, tokenHash string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.sessions, tokenHash)
	return nil
}

func (a *Adapter) DeleteExpiredSessions(_ context.Context, now time.Time) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	n := 0
	for k, s := range a.sessions {
		if !now.Before(s.ExpiresAt) {
			delete(a.sessions, k)
			n++
		}
	}
	return n, nil
}
