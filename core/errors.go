package core

import (
	"errors"
	"sort"
	"strings"
)

// User errors
var (
	ErrUserExists         = errors.New("user already exists")       // 422 (inside the validation map)
	ErrUserNotFound       = errors.New("user not found")            // 401 on identity checks
	ErrInvalidCredentials = errors.New("invalid login credentials") // 401
	ErrValidation         = errors.New("validation failed")         // 422
	ErrInvalidBody        = errors.New("invalid request body")      // 400
	ErrUnauthenticated    = errors.New("unauthenticated")           // 401
	ErrListingNotFound    = errors.New("listing not found")         // 404
	ErrDocumentNotFound   = errors.New("document not found")        // storage level, never surfaced
)

// Session errors
var (
	ErrInvalidToken    = errors.New("invalid session token") // 401
	ErrSessionNotFound = errors.New("session not found")     // 401
	ErrSessionExpired  = errors.New("session expired")       // 401
	ErrSessionExists   = errors.New("session already exists")
	ErrCacheNotFound   = errors.New("session not found in cache")
)

// Chat-completion proxy errors
var (
	ErrChatTimeout         = errors.New("chat completion timed out")           // 504
	ErrChatUnavailable     = errors.New("chat completion service unavailable") // 502
	ErrChatUnexpectedShape = errors.New("chat completion response malformed")  // 502
	ErrChatNotConfigured   = errors.New("chat completion is not configured")   // 501
)

// Config errors (server-side configuration)
var (
	ErrStorageRequired     = errors.New("storage adapter is required") // 500
	ErrHTTPAdapterRequired = errors.New("http adapter is required")    // 500
	ErrSecretRequired      = errors.New("secret is required")          // 500
	ErrSecretTooShort      = errors.New("secret too short")            // 500
)

var (
	ErrNotImplemented = errors.New("not implemented") // 501
)

// ValidationError carries per-field messages for a 422 response.
type ValidationError struct {
	Fields map[string][]string
}

func NewValidationError() *ValidationError {
	return &ValidationError{Fields: make(map[string][]string)}
}

func (e *ValidationError) Add(field, msg string) {
	e.Fields[field] = append(e.Fields[field], msg)
}

func (e *ValidationError) Has(field string) bool {
	return len(e.Fields[field]) > 0
}

// Empty reports whether no field failed.
func (e *ValidationError) Empty() bool {
	return len(e.Fields) == 0
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString("validation failed")
	for _, k := range keys {
		b.WriteString("; ")
		b.WriteString(k)
		b.WriteString(": ")
		b.WriteString(strings.Join(e.Fields[k], ", "))
	}
	return b.String()
}

// Unwrap lets errors.Is match ErrValidation, and ErrUserExists when the email
// was already taken.
func (e *ValidationError) Unwrap() []error {
	errs := []error{ErrValidation}
	for _, msg := range e.Fields["email"] {
		if msg == MsgEmailTaken {
			errs = append(errs, ErrUserExists)
			break
		}
	}
	return errs
}

// Field messages. They mirror the wording web clients already display.
const (
	MsgEmailTaken = "The email has already been taken."
)
