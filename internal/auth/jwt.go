// Package auth issues and validates staff JWTs.
package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	"github.com/relaydesk/relaydesk/internal/config"
)

const defaultTokenTTL = 72 * time.Hour

// Claims carried by a staff token.
type Claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// TokenTTL returns the configured token lifetime.
func TokenTTL(cfg config.AuthConfig) time.Duration {
	if cfg.JWTExpiresIn == "" {
		return defaultTokenTTL
	}
	d, err := time.ParseDuration(cfg.JWTExpiresIn)
	if err != nil || d <= 0 {
		return defaultTokenTTL
	}
	return d
}

// GenerateToken signs a token for the staff account.
func GenerateToken(cfg config.AuthConfig, accountID, username string) (string, error) {
	if cfg.JWTSecret == "" {
		return "", fmt.Errorf("jwt secret is not configured")
	}
	now := time.Now()
	claims := Claims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   accountID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenTTL(cfg))),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(cfg.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Middleware returns the echo JWT middleware for protected routes. The
// token is accepted from the Authorization header or, for websocket
// upgrades where browsers cannot set headers, a token query parameter.
func Middleware(cfg config.AuthConfig, skipper func(echo.Context) bool) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		Skipper:     skipper,
		SigningKey:  []byte(cfg.JWTSecret),
		TokenLookup: "header:Authorization:Bearer ,query:token",
		NewClaimsFunc: func(echo.Context) jwt.Claims {
			return new(Claims)
		},
	})
}

// AccountID extracts the authenticated account id from the request
// context; empty when the route was skipped.
func AccountID(c echo.Context) string {
	token, ok := c.Get("user").(*jwt.Token)
	if !ok {
		return ""
	}
	claims, ok := token.Claims.(*Claims)
	if !ok {
		return ""
	}
	return claims.Subject
}

// Username extracts the authenticated username from the request context.
func Username(c echo.Context) string {
	token, ok := c.Get("user").(*jwt.Token)
	if !ok {
		return ""
	}
	claims, ok := token.Claims.(*Claims)
	if !ok {
		return ""
	}
	return claims.Username
}
