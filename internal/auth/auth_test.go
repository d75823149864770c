package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("hunter22")
	require.NoError(t, err)
	assert.NotEqual(t, "hunter22", hash)

	assert.True(t, CheckPassword(hash, "hunter22"))
	assert.False(t, CheckPassword(hash, "wrong"))
}

func TestTokenRoundTrip(t *testing.T) {
	token, err := GenerateAccessToken(42, "fan@example.com", RoleFan, testSecret)
	require.NoError(t, err)

	claims, err := ValidateToken(token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, 42, claims.UserID)
	assert.Equal(t, "fan@example.com", claims.Email)
	assert.Equal(t, RoleFan, claims.Role)
	assert.Equal(t, "access", claims.TokenType)
}

func TestValidateToken_WrongSecret(t *testing.T) {
	token, err := GenerateAccessToken(42, "fan@example.com", RoleFan, testSecret)
	require.NoError(t, err)

	_, err = ValidateToken(token, "other-secret")
	assert.Error(t, err)
}

func TestValidateToken_EmptySecret(t *testing.T) {
	_, err := GenerateAccessToken(42, "fan@example.com", RoleFan, "")
	assert.ErrorIs(t, err, ErrEmptyJWTSecret)

	_, err = ValidateToken("whatever", "")
	assert.ErrorIs(t, err, ErrEmptyJWTSecret)
}

func TestRefreshAccessToken(t *testing.T) {
	t.Run("refresh token mints a new access token", func(t *testing.T) {
		refreshToken, err := GenerateRefreshToken(42, "fan@example.com", RoleFan, testSecret)
		require.NoError(t, err)

		accessToken, claims, err := RefreshAccessToken(refreshToken, testSecret, testSecret)
		require.NoError(t, err)
		assert.Equal(t, 42, claims.UserID)

		newClaims, err := ValidateToken(accessToken, testSecret)
		require.NoError(t, err)
		assert.Equal(t, "access", newClaims.TokenType)
	})

	t.Run("access token is rejected as refresh", func(t *testing.T) {
		accessToken, err := GenerateAccessToken(42, "fan@example.com", RoleFan, testSecret)
		require.NoError(t, err)

		_, _, err = RefreshAccessToken(accessToken, testSecret, testSecret)
		assert.ErrorIs(t, err, ErrInvalidTokenType)
	})
}
