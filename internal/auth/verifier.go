package auth

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Failure kinds. All of them map to HTTP 401 at the middleware; they are
// kept distinct so logs can tell an unreachable identity provider from a
// bad token.
var (
	ErrUpstreamUnavailable = errors.New("jwks endpoint unavailable")
	ErrInvalidKeySet       = errors.New("no usable RS256 key in jwks")
	ErrInvalidToken        = errors.New("invalid token")
)

// TokenVerifier validates a bearer token and returns the stable subject
// identifier. The server accepts this interface so tests can stub it.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (string, error)
}

// Verifier checks RS256 tokens against the identity provider's published
// key set. The set is fetched on every call; there is no local caching.
type Verifier struct {
	JWKSURL  string
	Audience string
	Issuer   string
	Client   *http.Client
}

func NewVerifier(jwksURL, audience, issuer string) *Verifier {
	return &Verifier{
		JWKSURL:  jwksURL,
		Audience: audience,
		Issuer:   issuer,
		Client:   &http.Client{Timeout: 10 * time.Second},
	}
}

type jwk struct {
	Kty string `json:"kty"`
	Alg string `json:"alg"`
	Kid string `json:"kid"`
	N   string `json:"n"`
	E   string `json:"e"`
}

type jwkSet struct {
	Keys []jwk `json:"keys"`
}

func (v *Verifier) fetchKeySet(ctx context.Context) (*jwkSet, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.JWKSURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	resp, err := v.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: status %d", ErrUpstreamUnavailable, resp.StatusCode)
	}
	var set jwkSet
	if err := json.NewDecoder(resp.Body).Decode(&set); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	return &set, nil
}

// rsaPublicKey builds an *rsa.PublicKey from the JWK modulus and exponent.
func rsaPublicKey(k jwk) (*rsa.PublicKey, error) {
	nb, err := base64.RawURLEncoding.DecodeString(k.N)
	if err != nil {
		return nil, fmt.Errorf("%w: bad modulus: %v", ErrInvalidKeySet, err)
	}
	eb, err := base64.RawURLEncoding.DecodeString(k.E)
	if err != nil {
		return nil, fmt.Errorf("%w: bad exponent: %v", ErrInvalidKeySet, err)
	}
	e := 0
	for _, b := range eb {
		e = e<<8 | int(b)
	}
	if e <= 0 {
		return nil, fmt.Errorf("%w: non-positive exponent", ErrInvalidKeySet)
	}
	return &rsa.PublicKey{N: new(big.Int).SetBytes(nb), E: e}, nil
}

// Verify fetches the current key set, selects the first RS256 key and
// validates signature, audience, issuer and expiry. Returns the sub claim.
func (v *Verifier) Verify(ctx context.Context, tokenString string) (string, error) {
	set, err := v.fetchKeySet(ctx)
	if err != nil {
		return "", err
	}

	var pub *rsa.PublicKey
	for _, k := range set.Keys {
		if k.Alg == "RS256" {
			pub, err = rsaPublicKey(k)
			if err != nil {
				return "", err
			}
			break
		}
	}
	if pub == nil {
		return "", ErrInvalidKeySet
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
	}
	if v.Audience != "" {
		opts = append(opts, jwt.WithAudience(v.Audience))
	}
	if v.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.Issuer))
	}
	token, err := jwt.Parse(tokenString,
		func(t *jwt.Token) (interface{}, error) { return pub, nil },
		opts...,
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	sub, err := token.Claims.GetSubject()
	if err != nil || sub == "" {
		return "", fmt.Errorf("%w: missing sub claim", ErrInvalidToken)
	}
	return sub, nil
}
