// Package auth issues and verifies JWT session tokens and guards the HTTP surface.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultExpiresIn is the session token lifetime when config does not override it.
const DefaultExpiresIn = 24 * time.Hour

var (
	// ErrTokenMissing means the caller supplied no token at all.
	ErrTokenMissing = errors.New("missing token")
	// ErrTokenInvalid means the token failed signature or expiry checks.
	ErrTokenInvalid = errors.New("invalid token")
)

// GenerateToken issues a signed HS256 session token for the given user ID.
func GenerateToken(userID, secret string, expiresIn time.Duration) (string, time.Time, error) {
	if strings.TrimSpace(userID) == "" {
		return "", time.Time{}, fmt.Errorf("user id is required")
	}
	if secret == "" {
		return "", time.Time{}, fmt.Errorf("jwt secret is required")
	}
	if expiresIn <= 0 {
		expiresIn = DefaultExpiresIn
	}

	now := time.Now()
	expiresAt := now.Add(expiresIn)
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// ParseToken verifies a session token and returns the embedded user ID.
// A blank token yields ErrTokenMissing; everything else that fails
// verification (bad signature, expired, foreign algorithm) yields
// ErrTokenInvalid. The user behind the subject is not looked up here.
func ParseToken(raw, secret string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrTokenMissing
	}

	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return "", ErrTokenInvalid
	}
	if claims.Subject == "" {
		return "", ErrTokenInvalid
	}
	return claims.Subject, nil
}

// TokenFromHeader extracts the bearer token from an Authorization header
// value. A bare token without the "Bearer" scheme is accepted too.
func TokenFromHeader(header string) string {
	header = strings.TrimSpace(header)
	if after, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(after)
	}
	return header
}
