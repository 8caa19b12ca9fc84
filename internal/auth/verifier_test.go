package auth

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

const (
	testAudience = "http://localhost:8080"
	testIssuer   = "https://issuer.test"
)

func generateTestKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return key
}

func jwksFor(pub *rsa.PublicKey, alg string) map[string]any {
	return map[string]any{
		"keys": []map[string]string{{
			"kty": "RSA",
			"alg": alg,
			"kid": "k1",
			"n":   base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
			"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes()),
		}},
	}
}

func newJWKSServer(t *testing.T, payload any) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(payload)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func signToken(t *testing.T, key *rsa.PrivateKey, claims jwt.RegisteredClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(key)
	require.NoError(t, err)
	return token
}

func validClaims(sub string) jwt.RegisteredClaims {
	return jwt.RegisteredClaims{
		Subject:   sub,
		Audience:  jwt.ClaimStrings{testAudience},
		Issuer:    testIssuer,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}
}

func TestVerifyValidToken(t *testing.T) {
	key := generateTestKey(t)
	srv := newJWKSServer(t, jwksFor(&key.PublicKey, "RS256"))
	v := NewVerifier(srv.URL, testAudience, testIssuer)

	sub, err := v.Verify(context.Background(), signToken(t, key, validClaims("user-42")))
	require.NoError(t, err)
	require.Equal(t, "user-42", sub)
}

func TestVerifyExpiredToken(t *testing.T) {
	key := generateTestKey(t)
	srv := newJWKSServer(t, jwksFor(&key.PublicKey, "RS256"))
	v := NewVerifier(srv.URL, testAudience, testIssuer)

	claims := validClaims("user-42")
	claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Hour))
	_, err := v.Verify(context.Background(), signToken(t, key, claims))
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyWrongAudienceOrIssuer(t *testing.T) {
	key := generateTestKey(t)
	srv := newJWKSServer(t, jwksFor(&key.PublicKey, "RS256"))
	v := NewVerifier(srv.URL, testAudience, testIssuer)

	claims := validClaims("user-42")
	claims.Audience = jwt.ClaimStrings{"http://somewhere-else"}
	_, err := v.Verify(context.Background(), signToken(t, key, claims))
	require.ErrorIs(t, err, ErrInvalidToken)

	claims = validClaims("user-42")
	claims.Issuer = "https://evil.test"
	_, err = v.Verify(context.Background(), signToken(t, key, claims))
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyBadSignature(t *testing.T) {
	key := generateTestKey(t)
	otherKey := generateTestKey(t)
	srv := newJWKSServer(t, jwksFor(&key.PublicKey, "RS256"))
	v := NewVerifier(srv.URL, testAudience, testIssuer)

	_, err := v.Verify(context.Background(), signToken(t, otherKey, validClaims("user-42")))
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyMissingSubject(t *testing.T) {
	key := generateTestKey(t)
	srv := newJWKSServer(t, jwksFor(&key.PublicKey, "RS256"))
	v := NewVerifier(srv.URL, testAudience, testIssuer)

	_, err := v.Verify(context.Background(), signToken(t, key, validClaims("")))
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyNoRS256Key(t *testing.T) {
	key := generateTestKey(t)
	srv := newJWKSServer(t, jwksFor(&key.PublicKey, "ES256"))
	v := NewVerifier(srv.URL, testAudience, testIssuer)

	_, err := v.Verify(context.Background(), signToken(t, key, validClaims("user-42")))
	require.ErrorIs(t, err, ErrInvalidKeySet)
}

func TestVerifyUpstreamUnavailable(t *testing.T) {
	key := generateTestKey(t)
	token := signToken(t, key, validClaims("user-42"))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	v := NewVerifier(srv.URL, testAudience, testIssuer)
	_, err := v.Verify(context.Background(), token)
	require.ErrorIs(t, err, ErrUpstreamUnavailable)

	// Unreachable endpoint behaves the same.
	srv.Close()
	_, err = v.Verify(context.Background(), token)
	require.ErrorIs(t, err, ErrUpstreamUnavailable)
}
