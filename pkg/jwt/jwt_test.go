package jwt

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager() *Manager {
	return NewManager("test-secret", 15*time.Minute, 72*time.Hour)
}

func TestAccessToken_RoundTrip(t *testing.T) {
	m := newTestManager()
	userID := uuid.New().String()

	token, err := m.GenerateAccessToken(userID, "author@example.com", "author")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := m.ValidateAccessToken(token)
	require.NoError(t, err)

	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, "author@example.com", claims.Email)
	assert.Equal(t, "author", claims.Role)
	assert.Equal(t, "access", claims.Type)
}

func TestRefreshToken_NotValidAsAccess(t *testing.T) {
	m := newTestManager()

	refresh, err := m.GenerateRefreshToken(uuid.New().String())
	require.NoError(t, err)

	_, err = m.ValidateAccessToken(refresh)
	assert.Error(t, err)

	_, err = m.ValidateRefreshToken(refresh)
	assert.NoError(t, err)
}

func TestValidateToken_WrongSecret(t *testing.T) {
	m := newTestManager()
	other := NewManager("other-secret", 15*time.Minute, 72*time.Hour)

	token, err := m.GenerateAccessToken(uuid.New().String(), "a@b.c", "member")
	require.NoError(t, err)

	_, err = other.ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateToken_Garbage(t *testing.T) {
	m := newTestManager()

	_, err := m.ValidateToken("not-a-jwt")
	assert.Error(t, err)
}
