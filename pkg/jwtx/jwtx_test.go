package jwtx_test

import (
	"testing"
	"time"

	"github.com/aussiebroadwan/postboard/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

func TestSignVerifyRoundTrip(t *testing.T) {
	h := jwtx.HS256{Secret: []byte("secret"), Issuer: "feed"}
	now := time.Now()

	tok, err := h.Sign(jwtx.NewAccessClaims("42", "ada@example.com", "feed", time.Minute, now))
	require.NoError(t, err)

	c, err := h.Verify(tok)
	require.NoError(t, err)
	require.Equal(t, "42", c.Subject)
	require.Equal(t, "ada@example.com", c.Email)
	require.NotEmpty(t, c.ID)
}

func TestVerifyFailures(t *testing.T) {
	h := jwtx.HS256{Secret: []byte("secret"), Issuer: "feed"}
	now := time.Now()

	t.Run("expired", func(t *testing.T) {
		tok, err := h.Sign(jwtx.NewAccessClaims("1", "", "feed", -time.Minute, now.Add(-time.Hour)))
		require.NoError(t, err)
		_, err = h.Verify(tok)
		require.ErrorIs(t, err, jwtx.ErrExpired)
	})

	t.Run("wrong secret", func(t *testing.T) {
		tok, err := jwtx.HS256{Secret: []byte("other"), Issuer: "feed"}.Sign(
			jwtx.NewAccessClaims("1", "", "feed", time.Minute, now))
		require.NoError(t, err)
		_, err = h.Verify(tok)
		require.ErrorIs(t, err, jwtx.ErrInvalidSig)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := h.Verify("not.a.jwt")
		require.ErrorIs(t, err, jwtx.ErrMalformed)
	})
}

func TestExpiresWithin(t *testing.T) {
	h := jwtx.HS256{Secret: []byte("secret")}
	now := time.Now()

	fresh, err := h.Sign(jwtx.NewAccessClaims("1", "", "", 10*time.Minute, now))
	require.NoError(t, err)
	nearlyDone, err := h.Sign(jwtx.NewAccessClaims("1", "", "", 10*time.Second, now))
	require.NoError(t, err)

	require.False(t, jwtx.ExpiresWithin(fresh, 30*time.Second, now))
	require.True(t, jwtx.ExpiresWithin(nearlyDone, 30*time.Second, now))
	require.False(t, jwtx.ExpiresWithin(nearlyDone, 0, now))

	// Opaque tokens are the server's business.
	require.False(t, jwtx.ExpiresWithin("opaque-token", time.Hour, now))
}

func TestPeekDoesNotVerify(t *testing.T) {
	tok, err := jwtx.HS256{Secret: []byte("unknown-to-client")}.Sign(
		jwtx.NewAccessClaims("7", "", "", time.Minute, time.Now()))
	require.NoError(t, err)

	c, err := jwtx.Peek(tok)
	require.NoError(t, err)
	require.Equal(t, "7", c.Subject)

	_, err = jwtx.Peek("opaque")
	require.ErrorIs(t, err, jwtx.ErrMalformed)
}
