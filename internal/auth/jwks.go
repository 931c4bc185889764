package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/lestrrat-go/jwx/v2/jwk"
)

// JWKSKeySource resolves token signing keys from the realm JWKS endpoint. Keys
// are cached and refreshed in the background; an unknown kid forces one refresh
// to pick up rotated keys.
type JWKSKeySource struct {
	ctx   context.Context
	url   string
	cache *jwk.Cache
}

// NewJWKSKeySource registers the certs URL and performs the first fetch. The
// context bounds the lifetime of the background refresher.
func NewJWKSKeySource(ctx context.Context, certsURL string, client *http.Client) (*JWKSKeySource, error) {
	if client == nil {
		client = http.DefaultClient
	}
	cache := jwk.NewCache(ctx)
	if err := cache.Register(certsURL,
		jwk.WithHTTPClient(client),
		jwk.WithMinRefreshInterval(5*time.Minute),
	); err != nil {
		return nil, fmt.Errorf("register jwks: %w", err)
	}
	if _, err := cache.Refresh(ctx, certsURL); err != nil {
		return nil, fmt.Errorf("fetch jwks: %w", err)
	}
	return &JWKSKeySource{ctx: ctx, url: certsURL, cache: cache}, nil
}

// Keyfunc satisfies jwt.Keyfunc.
func (s *JWKSKeySource) Keyfunc(token *jwt.Token) (any, error) {
	kid, _ := token.Header["kid"].(string)
	if kid == "" {
		return nil, errors.New("token header has no kid")
	}

	set, err := s.cache.Get(s.ctx, s.url)
	if err != nil {
		return nil, fmt.Errorf("load jwks: %w", err)
	}
	key, found := set.LookupKeyID(kid)
	if !found {
		set, err = s.cache.Refresh(s.ctx, s.url)
		if err != nil {
			return nil, fmt.Errorf("refresh jwks: %w", err)
		}
		if key, found = set.LookupKeyID(kid); !found {
			return nil, fmt.Errorf("unknown signing key %q", kid)
		}
	}

	var raw any
	if err := key.Raw(&raw); err != nil {
		return nil, fmt.Errorf("decode signing key %q: %w", kid, err)
	}
	return raw, nil
}
