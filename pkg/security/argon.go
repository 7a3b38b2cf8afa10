// Package security contains everything related to the security of user data
package security

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidHash = errors.New("invalid hash format")

// ArgonHash hashes passwords with argon2id and stores the parameters next to
// the hash so they can change without invalidating existing passwords
type ArgonHash struct {
	Memory      uint32
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

func New() *ArgonHash {
	return &ArgonHash{
		Memory:      64 * 1024,
		Iterations:  3,
		Parallelism: 2,
		SaltLength:  16,
		KeyLength:   32,
	}
}

func (a *ArgonHash) GenerateFromPassword(p string) (encoded string, err error) {
	salt, err := genRandByt(a.SaltLength)
	if err != nil {
		return "", err
	}

	hash := argon2.IDKey([]byte(p), salt, a.Iterations, a.Memory, a.Parallelism, a.KeyLength)

	b64Salt := base64.RawStdEncoding.EncodeToString(salt)
	b64Hash := base64.RawStdEncoding.EncodeToString(hash)

	encoded = fmt.Sprintf("$argon2id$v=19$m=%d,t=%d,p=%d$%s$%s",
		a.Memory, a.Iterations, a.Parallelism, b64Salt, b64Hash)

	return encoded, nil
}

// VerifyPasswd compares a password p with the stored PHC-style encoded hash e.
// bcrypt hashes imported from older deployments are accepted as well
func (a *ArgonHash) VerifyPasswd(p, e string) (ok bool, err error) {
	if isBcrypt(e) {
		err := bcrypt.CompareHashAndPassword([]byte(e), []byte(p))
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return false, nil
		}

		return err == nil, err
	}

	parts := strings.Split(e, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return false, ErrInvalidHash
	}

	var memory, iterations uint32
	var parallelism uint8

	_, err = fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &iterations, &parallelism)
	if err != nil {
		return false, err
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false, err
	}

	hash, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return false, err
	}

	calcHash := argon2.IDKey([]byte(p), salt, iterations, memory, parallelism, uint32(len(hash)))

	return subtle.ConstantTimeCompare(hash, calcHash) == 1, nil
}

// VerifyAbsent runs the same work as VerifyPasswd against a placeholder
// hash built from a's parameters. Call it when no user matched so the
// response time doesn't reveal whether the account exists. It never
// reports a match
func (a *ArgonHash) VerifyAbsent(p string) bool {
	salt := base64.RawStdEncoding.EncodeToString(make([]byte, a.SaltLength))
	hash := base64.RawStdEncoding.EncodeToString(make([]byte, a.KeyLength))

	e := fmt.Sprintf("$argon2id$v=19$m=%d,t=%d,p=%d$%s$%s",
		a.Memory, a.Iterations, a.Parallelism, salt, hash)

	a.VerifyPasswd(p, e)
	return false
}

// NeedsRehash reports whether e was produced by another algorithm or with
// other parameters than the ones a is configured with
func (a *ArgonHash) NeedsRehash(e string) bool {
	if isBcrypt(e) {
		return true
	}

	want := fmt.Sprintf("$argon2id$v=19$m=%d,t=%d,p=%d$", a.Memory, a.Iterations, a.Parallelism)
	return !strings.HasPrefix(e, want)
}

func isBcrypt(e string) bool {
	return strings.HasPrefix(e, "$2a$") || strings.HasPrefix(e, "$2b$") || strings.HasPrefix(e, "$2y$")
}

func genRandByt(n uint32) ([]byte, error) {
	b := make([]byte, n)
	_, err := rand.Read(b)
	if err != nil {
		return nil, err
	}

	return b, nil
}
