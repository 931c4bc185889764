package auth

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testIssuer = "https://auth.example.com/realms/planmeet"

func newRSAKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return key
}

func signToken(t *testing.T, key *rsa.PrivateKey, kid string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	if kid != "" {
		token.Header["kid"] = kid
	}
	signed, err := token.SignedString(key)
	require.NoError(t, err)
	return signed
}

func baseClaims() jwt.MapClaims {
	now := time.Now()
	return jwt.MapClaims{
		"iss":                testIssuer,
		"sub":                "user-1",
		"iat":                now.Unix(),
		"exp":                now.Add(5 * time.Minute).Unix(),
		"preferred_username": "alice",
		"realm_access":       map[string]any{"roles": []string{"PO", "Dev"}},
		"groups":             []string{"/CIO", "/dev_team_2"},
	}
}

func staticKeyfunc(key *rsa.PrivateKey) jwt.Keyfunc {
	return func(*jwt.Token) (any, error) { return &key.PublicKey, nil }
}

func TestTokenVerifierAcceptsValidToken(t *testing.T) {
	key := newRSAKey(t)
	verifier := NewTokenVerifier(staticKeyfunc(key), testIssuer)

	claims, err := verifier.Verify(signToken(t, key, "k1", baseClaims()))
	require.NoError(t, err)

	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, "alice", claims.PreferredUsername)
	assert.Equal(t, []string{"PO", "Dev"}, claims.Roles())
	assert.Equal(t, "dev_team_2", claims.Team())
	assert.Equal(t, "alice", claims.Raw["preferred_username"])
}

func TestTokenVerifierRejects(t *testing.T) {
	key := newRSAKey(t)
	other := newRSAKey(t)
	verifier := NewTokenVerifier(staticKeyfunc(key), testIssuer)

	expired := baseClaims()
	expired["exp"] = time.Now().Add(-time.Hour).Unix()
	wrongIssuer := baseClaims()
	wrongIssuer["iss"] = "https://evil.example.com/realms/planmeet"
	noExpiry := baseClaims()
	delete(noExpiry, "exp")

	hmacToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, baseClaims()).SignedString([]byte("secret"))
	require.NoError(t, err)

	cases := map[string]string{
		"expired":      signToken(t, key, "k1", expired),
		"wrong issuer": signToken(t, key, "k1", wrongIssuer),
		"no expiry":    signToken(t, key, "k1", noExpiry),
		"wrong key":    signToken(t, other, "k1", baseClaims()),
		"hmac":         hmacToken,
		"garbage":      "not-a-token",
		"empty":        "  ",
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := verifier.Verify(raw)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func jwksServer(t *testing.T, hits *atomic.Int32, keys map[string]*rsa.PrivateKey) *httptest.Server {
	t.Helper()
	set := jwk.NewSet()
	for kid, priv := range keys {
		pub, err := jwk.FromRaw(&priv.PublicKey)
		require.NoError(t, err)
		require.NoError(t, pub.Set(jwk.KeyIDKey, kid))
		require.NoError(t, set.AddKey(pub))
	}
	body, err := json.Marshal(set)
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestJWKSKeySourceResolvesByKid(t *testing.T) {
	key := newRSAKey(t)
	var hits atomic.Int32
	srv := jwksServer(t, &hits, map[string]*rsa.PrivateKey{"k1": key})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	source, err := NewJWKSKeySource(ctx, srv.URL, srv.Client())
	require.NoError(t, err)
	verifier := NewTokenVerifier(source.Keyfunc, testIssuer)

	claims, err := verifier.Verify(signToken(t, key, "k1", baseClaims()))
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)

	_, err = verifier.Verify(signToken(t, key, "", baseClaims()))
	assert.ErrorIs(t, err, ErrInvalidToken)

	before := hits.Load()
	_, err = verifier.Verify(signToken(t, key, "rotated", baseClaims()))
	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.Greater(t, hits.Load(), before, "unknown kid should force a refresh")
}

func TestJWKSKeySourceFailsWhenUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	srv.Close()

	_, err := NewJWKSKeySource(context.Background(), srv.URL, nil)
	require.Error(t, err)
}
