package security

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

// ResetTokenTTL is how long a password reset link stays usable
const ResetTokenTTL = time.Second * 1800

// ErrInvalidToken is returned for every token that can't be used, whatever
// the reason
var ErrInvalidToken = errors.New("invalid or expired token")

// ResetToken is what a verified password reset token carries
type ResetToken struct {
	ID        string
	UserID    uint
	ExpiresAt time.Time
}

// ResetTokens signs and verifies password reset tokens
type ResetTokens struct {
	signer
}

func NewResetTokens(secret string) *ResetTokens {
	return &ResetTokens{signer: newSigner(secret)}
}

// Issue returns a token for userID that is valid for ttl. A ttl of zero
// means ResetTokenTTL
func (r *ResetTokens) Issue(userID uint, ttl time.Duration) (string, error) {
	if userID == 0 {
		return "", errors.New("no user ID provided")
	}

	if ttl <= 0 {
		ttl = ResetTokenTTL
	}

	id, err := gonanoid.New()
	if err != nil {
		return "", err
	}

	now := r.now()
	return r.sign(&Claims{
		Type: tokenTypeReset,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        id,
			Subject:   formatUserID(userID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	})
}

// Verify checks the signature and expiry of a token and returns its contents
func (r *ResetTokens) Verify(token string) (*ResetToken, error) {
	c, err := r.parse(token, tokenTypeReset)
	if err != nil {
		return nil, ErrInvalidToken
	}

	userID, err := parseUserID(c.Subject)
	if err != nil || c.ID == "" || c.ExpiresAt == nil {
		return nil, ErrInvalidToken
	}

	return &ResetToken{
		ID:        c.ID,
		UserID:    userID,
		ExpiresAt: c.ExpiresAt.Time,
	}, nil
}
