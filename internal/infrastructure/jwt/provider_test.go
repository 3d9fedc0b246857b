package jwtinfra

import (
	"crypto/rand"
	"crypto/rsa"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProvider(t *testing.T, expiry time.Duration) *Provider {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return NewProviderFromKeys(key, &key.PublicKey, expiry)
}

func TestProvider_SignVerify(t *testing.T) {
	p := newTestProvider(t, time.Hour)

	tok, err := p.Sign("u1", "alice", "user", "s1")
	require.NoError(t, err)

	claims, err := p.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, "user", claims.Role)
	assert.Equal(t, "s1", claims.SessionID)
}

func TestProvider_ExpiredToken(t *testing.T) {
	p := newTestProvider(t, -time.Minute)

	tok, err := p.Sign("u1", "alice", "user", "s1")
	require.NoError(t, err)

	_, err = p.Verify(tok)
	assert.Error(t, err)
}

func TestProvider_WrongKey(t *testing.T) {
	signer := newTestProvider(t, time.Hour)
	verifier := newTestProvider(t, time.Hour)

	tok, err := signer.Sign("u1", "alice", "user", "s1")
	require.NoError(t, err)

	_, err = verifier.Verify(tok)
	assert.Error(t, err)
}

func TestProvider_StampsIssuerAndSubject(t *testing.T) {
	p := newTestProvider(t, time.Hour)

	tok, err := p.Sign("u1", "alice", "user", "s1")
	require.NoError(t, err)

	claims, err := p.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, Issuer, claims.Issuer)
	assert.Equal(t, "u1", claims.Subject)
}

func TestProvider_RejectsForeignIssuer(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	p := NewProviderFromKeys(key, &key.PublicKey, time.Hour)

	claims := Claims{
		UserID:    "u1",
		SessionID: "s1",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "someone-else",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(key)
	require.NoError(t, err)

	_, err = p.Verify(tok)
	assert.Error(t, err)
}

func TestProvider_RejectsHMAC(t *testing.T) {
	p := newTestProvider(t, time.Hour)

	claims := Claims{
		UserID:    "u1",
		SessionID: "s1",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    Issuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = p.Verify(tok)
	assert.Error(t, err)
}
