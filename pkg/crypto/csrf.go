package crypto

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrCSRFMismatch = errors.New("csrf token mismatch")
)

const csrfIssuer = "realty"

// csrfClaims binds an anti-forgery token to one session. SessionHash is empty
// for anonymous callers.
type csrfClaims struct {
	SessionHash string `json:"sid"`
	jwt.RegisteredClaims
}

// CSRF issues and verifies HS256 anti-forgery tokens. The token travels in a
// client-readable cookie and must be echoed back in a request header.
type CSRF struct {
	secret []byte
	ttl    time.Duration
	nanoid *NanoID
	now    func() time.Time
}

func NewCSRF(secret string, ttl time.Duration) *CSRF {
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	return &CSRF{secret: []byte(secret), ttl: ttl, nanoid: MustNanoID(), now: time.Now}
}

// Issue mints a fresh token for sessionHash. Every call yields a distinct
// value, so issuing again rotates the token.
func (c *CSRF) Issue(sessionHash string) (string, error) {
	jti, err := c.nanoid.Generate()
	if err != nil {
		return "", err
	}

	now := c.now()
	claims := csrfClaims{
		SessionHash: sessionHash,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    csrfIssuer,
			ID:        jti,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign csrf token: %w", err)
	}
	return signed, nil
}

// Verify checks signature, expiry and that the token belongs to sessionHash.
func (c *CSRF) Verify(token, sessionHash string) error {
	if token == "" {
		return ErrCSRFMismatch
	}

	claims := &csrfClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(csrfIssuer),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCSRFMismatch, err)
	}

	if claims.SessionHash != sessionHash {
		return ErrCSRFMismatch
	}
	return nil
}
