package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken indicates the token failed validation.
var ErrInvalidToken = errors.New("invalid token")

// Verifier validates a raw bearer token and returns its claims.
type Verifier interface {
	Verify(raw string) (*Claims, error)
}

// TokenVerifier checks signature, expiry and issuer of identity-provider tokens.
type TokenVerifier struct {
	keyfunc jwt.Keyfunc
	parser  *jwt.Parser
}

var signingMethods = []string{"RS256", "RS384", "RS512", "PS256", "ES256"}

// NewTokenVerifier builds a verifier. An empty issuer disables the iss check.
func NewTokenVerifier(keyfunc jwt.Keyfunc, issuer string) *TokenVerifier {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods(signingMethods),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithLeeway(30 * time.Second),
	}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}
	return &TokenVerifier{keyfunc: keyfunc, parser: jwt.NewParser(opts...)}
}

// Verify validates the token and returns claims with the raw payload attached.
func (v *TokenVerifier) Verify(raw string) (*Claims, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ErrInvalidToken
	}

	claims := &Claims{}
	parsed, err := v.parser.ParseWithClaims(raw, claims, v.keyfunc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !parsed.Valid {
		return nil, ErrInvalidToken
	}

	payload := jwt.MapClaims{}
	if _, _, err := v.parser.ParseUnverified(raw, payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	claims.Raw = payload
	return claims, nil
}
