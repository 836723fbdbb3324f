package core

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// User is the credential record. Only its Projection ever reaches a client.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Never expose in JSON
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Projection is the reduced, client-safe view of a User.
type Projection struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (u *User) Projection() Projection {
	return Projection{ID: u.ID, Name: u.Name, Email: u.Email}
}

// Session represents an active login session
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	TokenHash string    `json:"-"` // Never expose in JSON (security!)
	IPAddress string    `json:"ipAddress"`
	UserAgent string    `json:"userAgent"`
	ExpiresAt time.Time `json:"expiresAt"`
	CreatedAt time.Time `json:"createdAt"`
}

// Identity is the resolved caller handed to protected handlers.
type Identity struct {
	User      Projection
	SessionID string
	TokenHash string
	ExpiresAt time.Time
}

type RegisterInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResult is returned by register and login. Token is the raw session
// token for the cookie and must not be logged.
type AuthResult struct {
	User    Projection
	Session *Session
	Token   string
}

type CreateSessionResult struct {
	Session *Session
	Token   string
}

// Preferences is the buyer preference document. Keys are free-form.
type Preferences map[string]any

// Listing is an agent-owned property listing.
type Listing struct {
	ID          string    `json:"id"`
	AgentID     string    `json:"agentId"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Price       float64   `json:"price"`
	Location    string    `json:"location"`
	CreatedAt   time.Time `json:"createdAt"`
}

type ListingInput struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Price       *float64 `json:"price"`
	Location    string   `json:"location"`

	// PriceInvalid is set when price was present but not a finite number.
	PriceInvalid bool `json:"-"`
}

// UnmarshalJSON accepts price as a JSON number or as a numeric string, which
// is how form inputs post it. An empty string counts as missing.
func (in *ListingInput) UnmarshalJSON(b []byte) error {
	type plain ListingInput
	var raw struct {
		plain
		Price json.RawMessage `json:"price"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*in = ListingInput(raw.plain)
	in.Price, in.PriceInvalid = nil, false

	price := bytes.TrimSpace(raw.Price)
	if len(price) == 0 || bytes.Equal(price, []byte("null")) {
		return nil
	}

	var f float64
	if price[0] == '"' {
		var str string
		if err := json.Unmarshal(price, &str); err != nil {
			return err
		}
		str = strings.TrimSpace(str)
		if str == "" {
			return nil
		}
		v, err := strconv.ParseFloat(str, 64)
		if err != nil {
			in.PriceInvalid = true
			return nil
		}
		f = v
	} else if err := json.Unmarshal(price, &f); err != nil {
		in.PriceInvalid = true
		return nil
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		in.PriceInvalid = true
		return nil
	}
	in.Price = &f
	return nil
}

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type SessionConfig struct {
	MaxAge time.Duration
}

func DefaultSessionConfig() SessionConfig {
	return SessionConfig{MaxAge: 2 * time.Hour}
}

type CacheConfig struct {
	TTL     time.Duration
	MaxSize int
}

// CacheStats tracks cache performance metrics
type CacheStats struct {
	Hits      int64         `json:"hits"`
	Misses    int64         `json:"misses"`
	Sets      int64         `json:"sets"`
	Deletes   int64         `json:"deletes"`
	Evictions int64         `json:"evictions"`
	Size      int           `json:"size"`
	TTL       time.Duration `json:"ttl"`
}
