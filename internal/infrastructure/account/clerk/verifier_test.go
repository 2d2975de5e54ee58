package clerk

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/riskibarqy/career-coach/internal/usecase"
	"github.com/stretchr/testify/require"
)

func newKeyPair(t *testing.T) (*rsa.PrivateKey, string) {
	t.Helper()

	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	der, err := x509.MarshalPKIXPublicKey(&priv.PublicKey)
	require.NoError(t, err)
	return priv, string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}))
}

func signToken(t *testing.T, priv *rsa.PrivateKey, claims sessionClaims) string {
	t.Helper()

	signed, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(priv)
	require.NoError(t, err)
	return signed
}

func TestVerifier_AcceptsValidSession(t *testing.T) {
	t.Parallel()

	priv, pub := newKeyPair(t)
	verifier, err := NewVerifier(VerifierConfig{
		PublicKeyPEM:      pub,
		AuthorizedParties: []string{"https://app.example.com"},
		CacheTTL:          time.Minute,
	})
	require.NoError(t, err)

	now := time.Now()
	token := signToken(t, priv, sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user_2abc",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Minute)),
		},
		AuthorizedParty: "https://app.example.com",
		SessionID:       "sess_1",
	})

	principal, err := verifier.Verify(context.Background(), token)
	require.NoError(t, err)
	require.Equal(t, "user_2abc", principal.ExternalID)
	require.Equal(t, "sess_1", principal.SessionID)

	// Cached until the token or the cache ttl expires.
	_, cached := verifier.cache.Get(hashToken(token))
	require.True(t, cached)
}

func TestVerifier_Rejects(t *testing.T) {
	t.Parallel()

	priv, pub := newKeyPair(t)
	otherPriv, _ := newKeyPair(t)
	verifier, err := NewVerifier(VerifierConfig{
		PublicKeyPEM:      pub,
		AuthorizedParties: []string{"https://app.example.com"},
	})
	require.NoError(t, err)

	now := time.Now()
	valid := jwt.RegisteredClaims{
		Subject:   "user_2abc",
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Minute)),
	}

	cases := map[string]string{
		"empty":       "",
		"garbage":     "not-a-jwt",
		"wrong key":   signToken(t, otherPriv, sessionClaims{RegisteredClaims: valid}),
		"expired":     signToken(t, priv, sessionClaims{RegisteredClaims: jwt.RegisteredClaims{Subject: "user_2abc", ExpiresAt: jwt.NewNumericDate(now.Add(-time.Minute))}}),
		"no expiry":   signToken(t, priv, sessionClaims{RegisteredClaims: jwt.RegisteredClaims{Subject: "user_2abc"}}),
		"no subject":  signToken(t, priv, sessionClaims{RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: valid.ExpiresAt}}),
		"wrong party": signToken(t, priv, sessionClaims{RegisteredClaims: valid, AuthorizedParty: "https://evil.example.com"}),
	}

	for name, token := range cases {
		token := token
		t.Run(name, func(t *testing.T) {
			_, err := verifier.Verify(context.Background(), token)
			require.ErrorIs(t, err, usecase.ErrUnauthorized)
		})
	}
}

func TestNewVerifier_RequiresKey(t *testing.T) {
	t.Parallel()

	_, err := NewVerifier(VerifierConfig{})
	require.Error(t, err)
}
