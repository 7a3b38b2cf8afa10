package security

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// SessionTTL bounds a login made without "remember me". The cookie
	// itself only lives until the browser is closed
	SessionTTL = time.Hour * 24
	// RememberTTL bounds a login made with "remember me"
	RememberTTL = time.Hour * 24 * 30
)

var ErrInvalidSession = errors.New("invalid or expired session")

// Sessions issues and parses the signed tokens kept in the auth cookie
type Sessions struct {
	signer
}

func NewSessions(secret string) *Sessions {
	return &Sessions{signer: newSigner(secret)}
}

// Issue creates a session token for userID. The returned duration is how
// long the token stays valid
func (s *Sessions) Issue(userID uint, remember bool) (string, time.Duration, error) {
	ttl := SessionTTL
	if remember {
		ttl = RememberTTL
	}

	now := s.now()
	token, err := s.sign(&Claims{
		Type: tokenTypeAuth,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   formatUserID(userID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	})
	if err != nil {
		return "", 0, err
	}

	return token, ttl, nil
}

// Parse returns the user a session token was issued for
func (s *Sessions) Parse(token string) (uint, error) {
	c, err := s.parse(token, tokenTypeAuth)
	if err != nil {
		return 0, ErrInvalidSession
	}

	id, err := parseUserID(c.Subject)
	if err != nil {
		return 0, ErrInvalidSession
	}

	return id, nil
}
