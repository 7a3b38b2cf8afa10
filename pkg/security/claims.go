package security

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	tokenTypeAuth  = "auth"
	tokenTypeReset = "password_reset"
)

// Claims are shared by every token this package signs. Type keeps a token
// issued for one purpose from being accepted for another
type Claims struct {
	Type string `json:"type"`
	jwt.RegisteredClaims
}

type signer struct {
	secret []byte
	now    func() time.Time
}

func newSigner(secret string) signer {
	return signer{
		secret: []byte(secret),
		now:    time.Now,
	}
}

func (s signer) sign(c *Claims) (string, error) {
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	return t.SignedString(s.secret)
}

// parse validates signature, expiry and type and returns the claims
func (s signer) parse(token, wantType string) (*Claims, error) {
	c := &Claims{}

	_, err := jwt.ParseWithClaims(token, c, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing method: %s", t.Method.Alg())
		}

		return s.secret, nil
	},
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		return nil, err
	}

	if c.Type != wantType {
		return nil, fmt.Errorf("unexpected token type: %q", c.Type)
	}

	return c, nil
}

func formatUserID(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

func parseUserID(sub string) (uint, error) {
	id, err := strconv.ParseUint(sub, 10, 0)
	if err != nil || id == 0 {
		return 0, errors.New("invalid subject")
	}

	return uint(id), nil
}
