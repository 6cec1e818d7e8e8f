package chain

import (
	"encoding/hex"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// JWTSecretSize is the required length of an engine-API JWT secret: 32
// raw bytes, conventionally stored hex-encoded (spec.md §9 "Secret
// material": "Engine JWT secrets accepted as 64-hex-character strings or
// as a path to a file containing such a string").
const JWTSecretSize = 32

// JWTAuth mints short-lived HS256 bearer tokens for the execution-layer
// engine API, the same authentication scheme go-ethereum's own engine API
// server expects from its clients.
type JWTAuth struct {
	secret []byte
}

// LoadJWTSecret resolves an engine JWT secret from either a raw 64-hex-
// character string or a path to a file containing one (spec.md §9).
func LoadJWTSecret(value string) (*JWTAuth, error) {
	trimmed := strings.TrimSpace(value)
	if looksLikeHexSecret(trimmed) {
		return newJWTAuthFromHex(trimmed)
	}

	b, err := os.ReadFile(value)
	if err != nil {
		return nil, fmt.Errorf("chain: read jwt secret file %s: %w", value, err)
	}
	return newJWTAuthFromHex(strings.TrimSpace(string(b)))
}

func looksLikeHexSecret(s string) bool {
	s = strings.TrimPrefix(s, "0x")
	if len(s) != JWTSecretSize*2 {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}

func newJWTAuthFromHex(s string) (*JWTAuth, error) {
	s = strings.TrimPrefix(s, "0x")
	secret, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("chain: invalid jwt secret hex: %w", err)
	}
	if len(secret) != JWTSecretSize {
		return nil, fmt.Errorf("chain: jwt secret must be %d bytes, got %d", JWTSecretSize, len(secret))
	}
	return &JWTAuth{secret: secret}, nil
}

// token mints a fresh HS256 token carrying only the "iat" claim, per the
// engine API authentication spec: the token is meant to be regenerated
// for every request (or at most once per a few seconds), not cached long
// term.
func (a *JWTAuth) token(now time.Time) (string, error) {
	claims := jwt.RegisteredClaims{IssuedAt: jwt.NewNumericDate(now)}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

// SetAuthHeader stamps req with a freshly minted bearer token.
func (a *JWTAuth) SetAuthHeader(req *http.Request) error {
	tok, err := a.token(time.Now())
	if err != nil {
		return fmt.Errorf("chain: mint jwt: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+tok)
	return nil
}

// jwtRoundTripper wraps an http.RoundTripper, stamping every request with a
// fresh engine-API bearer token.
type jwtRoundTripper struct {
	auth *JWTAuth
	next http.RoundTripper
}

// Transport returns an http.RoundTripper that authenticates every
// outgoing request to the execution-layer engine API.
func (a *JWTAuth) Transport(next http.RoundTripper) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}
	return &jwtRoundTripper{auth: a, next: next}
}

func (t *jwtRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	cloned := req.Clone(req.Context())
	if err := t.auth.SetAuthHeader(cloned); err != nil {
		return nil, err
	}
	return t.next.RoundTrip(cloned)
}
