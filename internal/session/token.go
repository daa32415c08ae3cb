package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the subset of the backend's access token the client reads.
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// ParseClaims decodes token without verifying its signature. The client
// never holds the signing key; it only inspects the claims.
func ParseClaims(token string) (*Claims, error) {
	var c Claims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// ExpiresAt returns the exp claim of token. ok is false when the token is
// not a JWT or has no exp.
func ExpiresAt(token string) (time.Time, bool) {
	c, err := ParseClaims(token)
	if err != nil || c.ExpiresAt == nil {
		return time.Time{}, false
	}
	return c.ExpiresAt.Time, true
}
