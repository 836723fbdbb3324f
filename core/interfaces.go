package core

import (
	"context"
	"time"
)

// Ports define interfaces for external dependencies

// ============================================
// STORAGE PORTS
// ============================================

// UserStorage is the credential store. CreateUser must enforce email
// uniqueness and report a duplicate as ErrUserExists.
type UserStorage interface {
	CreateUser(ctx context.Context, u *User) error
	GetUserByID(ctx context.Context, id string) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
}

// SessionStorage persists sessions keyed by token hash. Deletes are idempotent.
type SessionStorage interface {
	CreateSession(ctx context.Context, s *Session) error
	GetSessionByHash(ctx context.Context, tokenHash string) (*Session, error)
	DeleteSessionByHash(ctx context.Context, tokenHash string) error
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int, error)
}

// DocumentStore is a path-addressed JSON document store. Get returns
// ErrDocumentNotFound for a missing path.
type DocumentStore interface {
	GetDocument(ctx context.Context, path string) (map[string]any, error)
	PutDocument(ctx context.Context, path string, data map[string]any) error
	DeleteDocument(ctx context.Context, path string) error
	ListDocuments(ctx context.Context, prefix string) (map[string]map[string]any, error)
}

// ============================================
// CACHE PORT
// ============================================

// Cache defines session caching operations
type Cache interface {
	Get(tokenHash string) (*Session, error)
	Set(tokenHash string, session *Session) error
	Delete(tokenHash string) error
	Clear() error
}

// CacheWithStats extends Cache with statistics tracking
type CacheWithStats interface {
	Cache
	Stats() CacheStats
}

// ============================================
// SERVICE PORTS (consumed by HTTP adapters)
// ============================================

// AuthHandler provides authentication operations for HTTP adapters.
// CurrentUser reports ok=false for a missing, unknown or expired session;
// its error is reserved for infrastructure failures.
type AuthHandler interface {
	Register(ctx context.Context, in RegisterInput, ipAddress, userAgent string) (*AuthResult, error)
	Login(ctx context.Context, in LoginInput, ipAddress, userAgent string) (*AuthResult, error)
	Logout(ctx context.Context, token string) error
	CurrentUser(ctx context.Context, token string) (Identity, bool, error)
}

type PreferencesProvider interface {
	GetPreferences(ctx context.Context, userID string) (Preferences, error)
	SavePreferences(ctx context.Context, userID string, prefs Preferences) (Preferences, error)
}

type ListingProvider interface {
	ListListings(ctx context.Context, userID string) ([]Listing, error)
	CreateListing(ctx context.Context, userID string, in ListingInput) (*Listing, error)
	DeleteListing(ctx context.Context, userID, listingID string) error
}

// InsightsProvider backs the vendor and developer dashboards.
type InsightsProvider interface {
	Reports(ctx context.Context, userID string) (map[string]any, error)
	Heatmap(ctx context.Context, userID string) (map[string]any, error)
}

// AdvisorProvider turns dashboard questions into chat-completion prompts.
type AdvisorProvider interface {
	SuggestSuburbs(ctx context.Context, userID, request string) (string, error)
	SuggestStrategy(ctx context.Context, goal string) (string, error)
}

// ChatCompleter sends a chat-completion request and returns the reply text.
type ChatCompleter interface {
	Complete(ctx context.Context, messages []ChatMessage) (string, error)
}

// AntiForgery issues and checks tokens bound to a session token hash.
type AntiForgery interface {
	Issue(sessionHash string) (string, error)
	Verify(token, sessionHash string) error
}

// SessionMaintainer is the background side of the session service.
type SessionMaintainer interface {
	Sweep(ctx context.Context) (int, error)
	CacheStats() (CacheStats, bool)
}

// ============================================
// HTTP PORT
// ============================================

type HTTPAdapter interface {
	RegisterRoutes(r *Realty) error
}
