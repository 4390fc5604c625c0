package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testOpts = DefaultOptions([]byte("test-secret"))

func TestVerifyRoundTrip(t *testing.T) {
	token, err := Generate(testOpts, Identity{
		UserID:   "u-1",
		Username: "alice",
		CanCall:  true,
	}, time.Hour)
	require.NoError(t, err)

	id, err := NewJWTVerifier(testOpts).Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "u-1", id.UserID)
	assert.Equal(t, "alice", id.Username)
	assert.False(t, id.IsGuest)
	assert.True(t, id.CanCall)
	assert.True(t, id.ExpiresAt.IsZero())
}

func TestVerifyExpiredToken(t *testing.T) {
	token, err := Generate(testOpts, Identity{UserID: "u-1"}, -time.Minute)
	require.NoError(t, err)

	_, err = NewJWTVerifier(testOpts).Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyWrongSecret(t *testing.T) {
	token, err := Generate(testOpts, Identity{UserID: "u-1"}, time.Hour)
	require.NoError(t, err)

	_, err = NewJWTVerifier(DefaultOptions([]byte("other-secret"))).Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyGarbage(t *testing.T) {
	_, err := NewJWTVerifier(testOpts).Verify("not.a.jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRequiresSubject(t *testing.T) {
	token, err := Generate(testOpts, Identity{Username: "no-id"}, time.Hour)
	require.NoError(t, err)

	_, err = NewJWTVerifier(testOpts).Verify(token)
	assert.ErrorIs(t, err, ErrNoIdentity)
}

func TestGuestDeadlineCappedByTTL(t *testing.T) {
	opts := testOpts
	opts.GuestTTL = 30 * time.Minute

	// Token itself lives longer than the guest TTL.
	token, err := Generate(opts, Identity{UserID: "g-1", IsGuest: true}, 24*time.Hour)
	require.NoError(t, err)

	id, err := NewJWTVerifier(opts).Verify(token)
	require.NoError(t, err)
	require.True(t, id.IsGuest)
	assert.WithinDuration(t, time.Now().Add(30*time.Minute), id.ExpiresAt, time.Minute)
}

func TestGuestDeadlineUsesEarlierTokenExpiry(t *testing.T) {
	token, err := Generate(testOpts, Identity{UserID: "g-1", IsGuest: true}, 10*time.Minute)
	require.NoError(t, err)

	id, err := NewJWTVerifier(testOpts).Verify(token)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(10*time.Minute), id.ExpiresAt, time.Minute)
}
