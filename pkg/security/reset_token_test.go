package security

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResetTokens_VerifyFresh(t *testing.T) {
	r := NewResetTokens("test-secret")

	token, err := r.Issue(42, ResetTokenTTL)
	require.NoError(t, err)

	got, err := r.Verify(token)
	require.NoError(t, err)
	assert.EqualValues(t, 42, got.UserID)
	assert.NotEmpty(t, got.ID)
	assert.WithinDuration(t, time.Now().Add(ResetTokenTTL), got.ExpiresAt, 2*time.Second)
}

func TestResetTokens_Expired(t *testing.T) {
	r := NewResetTokens("test-secret")
	issued := time.Now()
	r.now = func() time.Time { return issued }

	token, err := r.Issue(42, ResetTokenTTL)
	require.NoError(t, err)

	r.now = func() time.Time { return issued.Add(ResetTokenTTL - time.Second) }
	_, err = r.Verify(token)
	assert.NoError(t, err)

	r.now = func() time.Time { return issued.Add(ResetTokenTTL + time.Second) }
	_, err = r.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestResetTokens_NeverAnotherUser(t *testing.T) {
	r := NewResetTokens("test-secret")

	a, err := r.Issue(1, 0)
	require.NoError(t, err)
	b, err := r.Issue(2, 0)
	require.NoError(t, err)

	ga, err := r.Verify(a)
	require.NoError(t, err)
	gb, err := r.Verify(b)
	require.NoError(t, err)

	assert.EqualValues(t, 1, ga.UserID)
	assert.EqualValues(t, 2, gb.UserID)
	assert.NotEqual(t, ga.ID, gb.ID)
}

func TestResetTokens_Rejects(t *testing.T) {
	r := NewResetTokens("test-secret")

	token, err := r.Issue(7, 0)
	require.NoError(t, err)

	other := NewResetTokens("other-secret")
	session, _, err := NewSessions("test-secret").Issue(7, false)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
		r     *ResetTokens
	}{
		{"garbage", "not-a-token", r},
		{"empty", "", r},
		{"tampered", token[:len(token)-2] + "xx", r},
		{"wrong secret", token, other},
		{"session token", session, r},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.r.Verify(tt.token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}

	_, err = r.Issue(0, 0)
	assert.Error(t, err)
}
