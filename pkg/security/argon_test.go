package security

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func fastArgon() *ArgonHash {
	return &ArgonHash{
		Memory:      1024,
		Iterations:  1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	}
}

func TestArgonHash_RoundTrip(t *testing.T) {
	a := fastArgon()

	hash, err := a.GenerateFromPassword("correct horse")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$argon2id$v=19$m=1024,t=1,p=1$"))
	assert.NotContains(t, hash, "correct horse")

	ok, err := a.VerifyPasswd("correct horse", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = a.VerifyPasswd("wrong horse", hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestArgonHash_SaltsDiffer(t *testing.T) {
	a := fastArgon()

	h1, err := a.GenerateFromPassword("password123")
	require.NoError(t, err)
	h2, err := a.GenerateFromPassword("password123")
	require.NoError(t, err)

	assert.NotEqual(t, h1, h2)
}

func TestArgonHash_VerifyAbsent(t *testing.T) {
	a := &ArgonHash{Memory: 16 * 1024, Iterations: 2, Parallelism: 1, SaltLength: 16, KeyLength: 32}

	hash, err := a.GenerateFromPassword("password123")
	require.NoError(t, err)

	for _, p := range []string{"", "password123", "anything else"} {
		assert.False(t, a.VerifyAbsent(p), p)
	}

	start := time.Now()
	_, err = a.VerifyPasswd("password124", hash)
	require.NoError(t, err)
	known := time.Since(start)

	start = time.Now()
	a.VerifyAbsent("password124")
	absent := time.Since(start)

	// Both paths derive a key, skipping it would be orders of magnitude faster
	assert.Greater(t, absent, known/4, "known %s absent %s", known, absent)
}

func TestArgonHash_InvalidHash(t *testing.T) {
	_, err := fastArgon().VerifyPasswd("x", "plaintext")
	assert.ErrorIs(t, err, ErrInvalidHash)
}

func TestArgonHash_LegacyBcrypt(t *testing.T) {
	a := fastArgon()

	legacy, err := bcrypt.GenerateFromPassword([]byte("old password"), bcrypt.MinCost)
	require.NoError(t, err)

	ok, err := a.VerifyPasswd("old password", string(legacy))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = a.VerifyPasswd("other", string(legacy))
	require.NoError(t, err)
	assert.False(t, ok)

	assert.True(t, a.NeedsRehash(string(legacy)))
}

func TestArgonHash_NeedsRehash(t *testing.T) {
	a := fastArgon()

	hash, err := a.GenerateFromPassword("password123")
	require.NoError(t, err)
	assert.False(t, a.NeedsRehash(hash))

	stronger := fastArgon()
	stronger.Iterations = 2
	assert.True(t, stronger.NeedsRehash(hash))
}
