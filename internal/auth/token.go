// Package auth provides JWT issuing/verification and password hashing for
// the account endpoints. Tokens are HMAC-signed (HS256) and carry the user's
// email as the subject claim; the service layer resolves the subject back to
// a user row on every authenticated request.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrTokenMalformed is returned when a token cannot be parsed or its
	// signature/signing method is wrong.
	ErrTokenMalformed = errors.New("token malformed")

	// ErrTokenExpired is returned when a token parsed fine but is past its
	// expiry.
	ErrTokenExpired = errors.New("token expired")

	// ErrUnknownSubject is returned when a valid token carries no subject.
	ErrUnknownSubject = errors.New("token subject missing")
)

// TokenIssuer mints and verifies access tokens for a fixed secret and TTL.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenIssuer constructs a TokenIssuer. A ttl <= 0 falls back to 7 days,
// matching the default access-token lifetime.
func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &TokenIssuer{secret: []byte(secret), ttl: ttl}
}

// Issue signs a token whose subject is the given email. The token expires
// after the issuer's TTL.
func (ti *TokenIssuer) Issue(email string) (string, error) {
	now := time.Now().UTC()
	claims := jwt.RegisteredClaims{
		Subject:   email,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ti.ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(ti.secret)
}

// Verify parses and validates a token string and returns the subject email.
//
// Errors:
//   - ErrTokenExpired when the token is past its expiry.
//   - ErrTokenMalformed for any other parse/signature problem, including a
//     non-HMAC signing method.
//   - ErrUnknownSubject when the token is valid but has an empty subject.
func (ti *TokenIssuer) Verify(tokenString string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenMalformed
		}
		return ti.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrTokenExpired
		}
		return "", ErrTokenMalformed
	}
	if !token.Valid {
		return "", ErrTokenMalformed
	}
	if claims.Subject == "" {
		return "", ErrUnknownSubject
	}
	return claims.Subject, nil
}
