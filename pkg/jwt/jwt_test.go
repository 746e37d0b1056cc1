package jwt

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testAccessSecret  = "test-access-secret-key-for-testing-purposes"
	testRefreshSecret = "test-refresh-secret-key-for-testing-purposes"
)

func TestNewService(t *testing.T) {
	service := NewService(testAccessSecret, testRefreshSecret, time.Hour, 24*time.Hour)

	assert.NotNil(t, service)
	assert.Equal(t, time.Hour, service.AccessTokenExpiry())
	assert.Equal(t, 24*time.Hour, service.RefreshTokenExpiry())
}

func TestGenerateAccessToken(t *testing.T) {
	service := NewService(testAccessSecret, testRefreshSecret, time.Hour, 24*time.Hour)
	userID := uuid.New()
	roles := []string{"staff"}

	token, err := service.GenerateAccessToken(userID, "staff@lagoon.test", roles)
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	claims, err := service.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, "staff@lagoon.test", claims.Email)
	assert.Equal(t, roles, claims.Roles)
	assert.Equal(t, AccessToken, claims.TokenType)
	assert.True(t, claims.HasRole("staff"))
	assert.False(t, claims.HasRole("admin"))
}

func TestGenerateRefreshToken(t *testing.T) {
	service := NewService(testAccessSecret, testRefreshSecret, time.Hour, 24*time.Hour)
	userID := uuid.New()

	first, err := service.GenerateRefreshToken(userID, "guest@lagoon.test")
	require.NoError(t, err)
	second, err := service.GenerateRefreshToken(userID, "guest@lagoon.test")
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	claims, err := service.ValidateRefreshToken(first)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, RefreshToken, claims.TokenType)
}

func TestValidateToken(t *testing.T) {
	service := NewService(testAccessSecret, testRefreshSecret, time.Hour, 24*time.Hour)
	userID := uuid.New()

	t.Run("Refresh Token Rejected As Access Token", func(t *testing.T) {
		token, err := service.GenerateRefreshToken(userID, "guest@lagoon.test")
		require.NoError(t, err)

		_, err = service.ValidateAccessToken(token)
		assert.Error(t, err)
	})

	t.Run("Wrong Secret", func(t *testing.T) {
		other := NewService("another-secret", testRefreshSecret, time.Hour, time.Hour)
		token, err := other.GenerateAccessToken(userID, "guest@lagoon.test", nil)
		require.NoError(t, err)

		_, err = service.ValidateAccessToken(token)
		assert.Error(t, err)
	})

	t.Run("Expired", func(t *testing.T) {
		expired := NewService(testAccessSecret, testRefreshSecret, -time.Minute, time.Hour)
		token, err := expired.GenerateAccessToken(userID, "guest@lagoon.test", nil)
		require.NoError(t, err)

		_, err = service.ValidateAccessToken(token)
		assert.ErrorIs(t, err, ErrTokenExpired)
	})

	t.Run("Unexpected Signing Method", func(t *testing.T) {
		claims := Claims{UserID: userID, TokenType: AccessToken, RegisteredClaims: jwt.RegisteredClaims{Issuer: issuer}}
		token := jwt.NewWithClaims(jwt.SigningMethodNone, claims)
		tokenString, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = service.ValidateAccessToken(tokenString)
		assert.Error(t, err)
	})

	t.Run("Malformed", func(t *testing.T) {
		_, err := service.ValidateAccessToken("not-a-token")
		assert.Error(t, err)
	})
}
