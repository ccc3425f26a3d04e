package authenticator

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uptask/uptask-server/internal/config"
)

func newTestAuthenticator(t *testing.T) *Authenticator {
	t.Helper()

	a, err := New(&config.Config{JWT_SECRET: "test-secret"})
	require.NoError(t, err)
	return a
}

func TestNewRequiresSecret(t *testing.T) {
	_, err := New(&config.Config{})
	assert.ErrorIs(t, err, ErrMissingSecret)
}

func TestTokenRoundTrip(t *testing.T) {
	a := newTestAuthenticator(t)
	userID := uuid.New()

	token, err := a.GenerateToken(userID)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	got, err := a.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID, got)
}

func TestVerifyTokenGarbage(t *testing.T) {
	a := newTestAuthenticator(t)

	_, err := a.VerifyToken("not-a-jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyTokenWrongSecret(t *testing.T) {
	a := newTestAuthenticator(t)

	other, err := New(&config.Config{JWT_SECRET: "other-secret"})
	require.NoError(t, err)

	token, err := other.GenerateToken(uuid.New())
	require.NoError(t, err)

	_, err = a.VerifyToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
