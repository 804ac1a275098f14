package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relaydesk/relaydesk/internal/config"
)

func TestGenerateTokenRoundTrip(t *testing.T) {
	cfg := config.AuthConfig{JWTSecret: "test-secret", JWTExpiresIn: "1h"}

	signed, err := GenerateToken(cfg, "acct-1", "admin")
	require.NoError(t, err)

	parsed, err := jwt.ParseWithClaims(signed, new(Claims), func(*jwt.Token) (any, error) {
		return []byte(cfg.JWTSecret), nil
	})
	require.NoError(t, err)
	require.True(t, parsed.Valid)

	claims := parsed.Claims.(*Claims)
	assert.Equal(t, "acct-1", claims.Subject)
	assert.Equal(t, "admin", claims.Username)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, time.Minute)
}

func TestGenerateTokenRequiresSecret(t *testing.T) {
	_, err := GenerateToken(config.AuthConfig{}, "acct-1", "admin")
	assert.Error(t, err)
}

func TestTokenTTL(t *testing.T) {
	assert.Equal(t, defaultTokenTTL, TokenTTL(config.AuthConfig{}))
	assert.Equal(t, defaultTokenTTL, TokenTTL(config.AuthConfig{JWTExpiresIn: "bogus"}))
	assert.Equal(t, 30*time.Minute, TokenTTL(config.AuthConfig{JWTExpiresIn: "30m"}))
}
