package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/planmeet/internal/domain"
	"github.com/spec-kit/planmeet/internal/keycloak"
	apperrors "github.com/spec-kit/planmeet/pkg/util/errorutil"
)

// CredentialGateway exchanges user credentials for tokens at the identity provider.
type CredentialGateway interface {
	Login(ctx context.Context, username, password string) (*domain.TokenSet, error)
}

// AuthService handles interactive login.
type AuthService struct {
	gateway CredentialGateway
	logger  *zap.Logger
}

// NewAuthService constructs the service.
func NewAuthService(gateway CredentialGateway, logger *zap.Logger) *AuthService {
	return &AuthService{gateway: gateway, logger: logger}
}

// Login forwards a password grant. Missing credentials fail before any network call.
func (s *AuthService) Login(ctx context.Context, username, password string) (*domain.TokenSet, error) {
	username = strings.TrimSpace(username)
	missing := map[string]any{}
	if username == "" {
		missing["username"] = "required"
	}
	if password == "" {
		missing["password"] = "required"
	}
	if len(missing) > 0 {
		return nil, apperrors.NewValidationError("username and password are required", missing)
	}

	tokens, err := s.gateway.Login(ctx, username, password)
	if err != nil {
		if errors.Is(err, keycloak.ErrInvalidCredentials) {
			s.logger.Info("login rejected", zap.String("username", username))
			return nil, apperrors.NewUnauthorized("invalid credentials")
		}
		s.logger.Error("login failed", zap.String("username", username), zap.Error(err))
		return nil, upstream("login failed", err)
	}
	return tokens, nil
}

// upstream wraps an identity-provider failure, surfacing the provider's body.
func upstream(message string, err error) error {
	var apiErr *keycloak.APIError
	if errors.As(err, &apiErr) {
		return apperrors.NewUpstreamError(message, err, apiErr.Detail())
	}
	return apperrors.NewUpstreamError(message, err, nil)
}
