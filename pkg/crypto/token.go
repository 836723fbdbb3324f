package crypto

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
)

const (
	DefaultTokenLength = 32 // 256 bits
)

// TokenPair holds an opaque session token and its storage form.
type TokenPair struct {
	Token string // value handed to the client (cookie)
	Hash  string // value persisted in the session store
}

func generateToken(byteLength int) (string, error) {
	if byteLength <= 0 {
		byteLength = DefaultTokenLength
	}

	buf := make([]byte, byteLength)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}

	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// NewTokenPair generates a random URL-safe token of byteLength bytes
// (DefaultTokenLength when <= 0) together with its sha256 hash.
func NewTokenPair(byteLength int) (*TokenPair, error) {
	token, err := generateToken(byteLength)
	if err != nil {
		return nil, err
	}

	return &TokenPair{Token: token, Hash: HashToken(token)}, nil
}

// HashToken returns the hex sha256 of token. Only this form is stored.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
