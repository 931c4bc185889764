package dto

import "github.com/spec-kit/planmeet/internal/domain"

// LoginRequest payload for login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse mirrors the identity provider's token response.
type LoginResponse struct {
	AccessToken      string `json:"access_token"`
	TokenType        string `json:"token_type"`
	ExpiresIn        int64  `json:"expires_in"`
	RefreshToken     string `json:"refresh_token,omitempty"`
	RefreshExpiresIn int64  `json:"refresh_expires_in,omitempty"`
	Scope            string `json:"scope,omitempty"`
}

// NewLoginResponse converts a token set.
func NewLoginResponse(tokens *domain.TokenSet) LoginResponse {
	return LoginResponse{
		AccessToken:      tokens.AccessToken,
		TokenType:        tokens.TokenType,
		ExpiresIn:        tokens.ExpiresIn,
		RefreshToken:     tokens.RefreshToken,
		RefreshExpiresIn: tokens.RefreshExpiresIn,
		Scope:            tokens.Scope,
	}
}

// SessionResponse is returned by GET /user.
type SessionResponse struct {
	Message string         `json:"message"`
	User    map[string]any `json:"user"`
}
