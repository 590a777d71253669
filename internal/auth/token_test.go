package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signed(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("k"))
	require.NoError(t, err)
	return token
}

func TestTokenExpired(t *testing.T) {
	now := time.Now()
	assert.True(t, tokenExpired(signed(t, jwt.MapClaims{"exp": now.Add(-time.Second).Unix()}), now))
	assert.False(t, tokenExpired(signed(t, jwt.MapClaims{"exp": now.Add(time.Hour).Unix()}), now))
	assert.False(t, tokenExpired(signed(t, jwt.MapClaims{"sub": "x"}), now))
	assert.False(t, tokenExpired("opaque-session-token", now))
}

func TestSafeNext(t *testing.T) {
	assert.Equal(t, "/users?page=2", safeNext("/users?page=2"))
	assert.Empty(t, safeNext("//evil.example"))
	assert.Empty(t, safeNext("https://evil.example"))
	assert.Empty(t, safeNext("/\\evil.example"))
}
