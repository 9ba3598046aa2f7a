package listing

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SessionCookie names the listing-session cookie.
const SessionCookie = "listing_session"

// NewSessionToken signs an HS256 session token for username. The claims
// carry what the original cookie format did by hand: who it was issued
// to and when, with the TTL enforced on validation.
func NewSessionToken(username string, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:  username,
		IssuedAt: jwt.NewNumericDate(now),
	}
	if ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// UsernameFromToken validates a session token and returns the username
// it was issued to.
func UsernameFromToken(tokenString string, secret []byte) (string, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", err
	}
	if !token.Valid {
		return "", jwt.ErrTokenUnverifiable
	}
	return claims.Subject, nil
}
