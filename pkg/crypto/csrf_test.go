package crypto

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestCSRF_IssueVerify(t *testing.T) {
	c := NewCSRF(testSecret, time.Hour)

	token, err := c.Issue("session-hash")
	require.NoError(t, err)

	assert.NoError(t, c.Verify(token, "session-hash"))
	assert.ErrorIs(t, c.Verify(token, "other-hash"), ErrCSRFMismatch)
	assert.ErrorIs(t, c.Verify(token, ""), ErrCSRFMismatch)
	assert.ErrorIs(t, c.Verify("", "session-hash"), ErrCSRFMismatch)
}

func TestCSRF_Anonymous(t *testing.T) {
	c := NewCSRF(testSecret, time.Hour)

	token, err := c.Issue("")
	require.NoError(t, err)

	assert.NoError(t, c.Verify(token, ""))
}

func TestCSRF_IssueRotates(t *testing.T) {
	c := NewCSRF(testSecret, time.Hour)

	a, err := c.Issue("h")
	require.NoError(t, err)
	b, err := c.Issue("h")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestCSRF_Rejects(t *testing.T) {
	c := NewCSRF(testSecret, time.Minute)
	token, err := c.Issue("h")
	require.NoError(t, err)

	t.Run("other secret", func(t *testing.T) {
		other := NewCSRF("fedcba9876543210fedcba9876543210", time.Minute)
		assert.True(t, errors.Is(other.Verify(token, "h"), ErrCSRFMismatch))
	})

	t.Run("expired", func(t *testing.T) {
		late := NewCSRF(testSecret, time.Minute)
		late.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
		assert.ErrorIs(t, late.Verify(token, "h"), ErrCSRFMismatch)
	})

	t.Run("garbage", func(t *testing.T) {
		assert.ErrorIs(t, c.Verify("not-a-jwt", "h"), ErrCSRFMismatch)
	})
}
