package middleware

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/socialx-api/internal/config"
	"github.com/socialx-api/internal/domain"
	jwtinfra "github.com/socialx-api/internal/infrastructure/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// keyPair writes a PKCS1 private key and a PKIX public key the way the
// deployment mounts them, so the provider is built through config.
func keyPair(t *testing.T) (*rsa.PrivateKey, *jwtinfra.Provider) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	dir := t.TempDir()
	priv := filepath.Join(dir, "jwt.key")
	pub := filepath.Join(dir, "jwt.pub")
	require.NoError(t, os.WriteFile(priv, pem.EncodeToMemory(&pem.Block{
		Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key),
	}), 0o600))
	der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(pub, pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}), 0o600))

	p, err := jwtinfra.NewProvider(&config.Config{
		JWTPrivateKeyPath: priv,
		JWTPublicKeyPath:  pub,
		JWTExpiry:         15 * time.Minute,
	})
	require.NoError(t, err)
	return key, p
}

func okHandler(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) }

func TestAuth_RejectsWithoutUsableToken(t *testing.T) {
	key, p := keyPair(t)

	stale, err := jwt.NewWithClaims(jwt.SigningMethodRS256, &jwtinfra.Claims{
		UserID:    "u1",
		SessionID: "s1",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    jwtinfra.Issuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	}).SignedString(key)
	require.NoError(t, err)

	cases := map[string]string{
		"no header":     "",
		"basic scheme":  "Basic YWxpY2U6cHc=",
		"garbage token": "Bearer not.a.jwt",
		"expired token": "Bearer " + stale,
	}
	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/v1/me", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			rr := httptest.NewRecorder()
			Auth(p)(http.HandlerFunc(okHandler)).ServeHTTP(rr, req)

			assert.Equal(t, http.StatusUnauthorized, rr.Code)
			assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
			assert.Contains(t, rr.Body.String(), `"code":"unauthorized"`)
		})
	}
}

func TestAuth_MissingHeaderBody(t *testing.T) {
	_, p := keyPair(t)
	rr := httptest.NewRecorder()
	Auth(p)(http.HandlerFunc(okHandler)).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/me", nil))
	assert.JSONEq(t, `{"error":"missing or invalid authorization header","code":"unauthorized"}`, rr.Body.String())
}

func TestAuth_PassesClaimsDownstream(t *testing.T) {
	_, p := keyPair(t)
	signed, err := p.Sign("u1", "alice", domain.RoleUser, "s1")
	require.NoError(t, err)

	var got *jwtinfra.Claims
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = ClaimsFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})
	req := httptest.NewRequest(http.MethodGet, "/v1/me", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	rr := httptest.NewRecorder()
	Auth(p)(next).ServeHTTP(rr, req)

	require.Equal(t, http.StatusNoContent, rr.Code)
	require.NotNil(t, got)
	assert.Equal(t, "u1", got.UserID)
	assert.Equal(t, "alice", got.Username)
	assert.Equal(t, domain.RoleUser, got.Role)
	assert.Equal(t, "s1", got.SessionID)
}

func TestAuth_RejectsTokenFromAnotherKey(t *testing.T) {
	_, signer := keyPair(t)
	_, verifier := keyPair(t)
	signed, err := signer.Sign("u1", "alice", domain.RoleUser, "s1")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/v1/me", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	rr := httptest.NewRecorder()
	Auth(verifier)(http.HandlerFunc(okHandler)).ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}
