package domain

import "time"

// TokenSet is what the identity provider returns from a token grant.
type TokenSet struct {
	AccessToken      string
	TokenType        string
	RefreshToken     string
	Scope            string
	ExpiresIn        int64
	RefreshExpiresIn int64
	Expiry           time.Time
}
