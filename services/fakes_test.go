package services

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/lborres/realty/core"
	"github.com/lborres/realty/pkg/crypto"
)

// FakeUserStorage is a map-backed core.UserStorage with error injection.
type FakeUserStorage struct {
	mu        sync.Mutex
	byID      map[string]*core.User
	byEmail   map[string]string
	getErr    error
	createErr error
	creates   int
}

func NewFakeUserStorage() *FakeUserStorage {
	return &FakeUserStorage{byID: make(map[string]*core.User), byEmail: make(map[string]string)}
}

func (f *FakeUserStorage) CreateUser(_ context.Context, u *core.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	if _, ok := f.byEmail[u.Email]; ok {
		return core.ErrUserExists
	}
	cp := *u
	f.byID[u.ID] = &cp
	f.byEmail[u.Email] = u.ID
	f.creates++
	return nil
}

func (f *FakeUserStorage) GetUserByID(_ context.Context, id string) (*core.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.byID[id]
	if !ok {
		return nil, core.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *FakeUserStorage) GetUserByEmail(_ context.Context, email string) (*core.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	id, ok := f.byEmail[email]
	if !ok {
		return nil, core.ErrUserNotFound
	}
	cp := *f.byID[id]
	return &cp, nil
}

func (f *FakeUserStorage) remove(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.byID[id]; ok {
		delete(f.byEmail, u.Email)
		delete(f.byID, id)
	}
}

// FakeSessionStorage is a map-backed core.SessionStorage keyed by token hash.
type FakeSessionStorage struct {
	mu       sync.Mutex
	sessions map[string]*core.Session
	getErr   error
	gets     int
}

func NewFakeSessionStorage() *FakeSessionStorage {
	return &FakeSessionStorage{sessions: make(map[string]*core.Session)}
}

func (f *FakeSessionStorage) CreateSession(_ context.Context, s *core.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.sessions[s.TokenHash]; ok {
		return core.ErrSessionExists
	}
	cp := *s
	f.sessions[s.TokenHash] = &cp
	return nil
}

func (f *FakeSessionStorage) GetSessionByHash(_ context.Context, tokenHash string) (*core.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets++
	if f.getErr != nil {
		return nil, f.getErr
	}
	s, ok := f.sessions[tokenHash]
	if !ok {
		return nil, core.ErrSessionNotFound
	}
	cp := *s
	return &cp, nil
}

func (f *FakeSessionStorage) DeleteSessionByHash(_ context.Context, tokenHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.sessions, tokenHash)
	return nil
}

func (f *FakeSessionStorage) DeleteExpiredSessions(_ context.Context, now time.Time) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for k, s := range f.sessions {
		if !now.Before(s.ExpiresAt) {
			delete(f.sessions, k)
			n++
		}
	}
	return n, nil
}

func (f *FakeSessionStorage) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sessions)
}

// FakeDocumentStore round-trips documents through JSON like a real backend.
type FakeDocumentStore struct {
	mu   sync.Mutex
	docs map[string][]byte
	err  error
}

func NewFakeDocumentStore() *FakeDocumentStore {
	return &FakeDocumentStore{docs: make(map[string][]byte)}
}

func (f *FakeDocumentStore) GetDocument(_ context.Context, path string) (map[string]any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	raw, ok := f.docs[path]
	if !ok {
		return nil, core.ErrDocumentNotFound
	}
	var out map[string]any
	err := json.Unmarshal(raw, &out)
	return out, err
}

func (f *FakeDocumentStore) PutDocument(_ context.Context, path string, data map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	f.docs[path] = raw
	return nil
}

func (f *FakeDocumentStore) DeleteDocument(_ context.Context, path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.docs, path)
	return nil
}

func (f *FakeDocumentStore) ListDocuments(_ context.Context, prefix string) (map[string]map[string]any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	out := make(map[string]map[string]any)
	for path, raw := range f.docs {
		if !strings.HasPrefix(path, prefix) {
			continue
		}
		var doc map[string]any
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, err
		}
		out[path] = doc
	}
	return out, nil
}

// FakeChat records the last prompt and returns a canned reply.
type FakeChat struct {
	reply    string
	err      error
	messages []core.ChatMessage
}

func (f *FakeChat) Complete(_ context.Context, messages []core.ChatMessage) (string, error) {
	f.messages = messages
	return f.reply, f.err
}

// testHasher keeps argon2 cheap in tests.
func testHasher() *crypto.Argon2 {
	return &crypto.Argon2{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}
}
