package service

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/planmeet/internal/domain"
	"github.com/spec-kit/planmeet/internal/keycloak"
	"github.com/spec-kit/planmeet/internal/keycloak/keycloaktest"
	apperrors "github.com/spec-kit/planmeet/pkg/util/errorutil"
)

func newAuthService(t *testing.T) (*AuthService, *keycloaktest.Server) {
	t.Helper()
	srv := keycloaktest.NewServer(t)
	srv.AddUser(domain.User{ID: "u1", Username: "alice", Enabled: true}, "wonderland")
	gateway := keycloak.NewGateway(srv.Config(), srv.Client(), nil)
	return NewAuthService(gateway, zap.NewNop()), srv
}

func TestLogin(t *testing.T) {
	svc, _ := newAuthService(t)

	tokens, err := svc.Login(context.Background(), " alice ", "wonderland")
	require.NoError(t, err)
	assert.Equal(t, "user-token-alice", tokens.AccessToken)
	assert.EqualValues(t, 1800, tokens.RefreshExpiresIn)
}

func TestLoginValidatesBeforeCallingProvider(t *testing.T) {
	svc, srv := newAuthService(t)

	_, err := svc.Login(context.Background(), "", "")
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, "VALIDATION_FAILED"))
	assert.Zero(t, srv.Grants("password"))

	_, err = svc.Login(context.Background(), "alice", "")
	assert.True(t, apperrors.IsKind(err, "VALIDATION_FAILED"))
	assert.Zero(t, srv.Grants("password"))
}

func TestLoginRejectedCredentials(t *testing.T) {
	svc, _ := newAuthService(t)

	_, err := svc.Login(context.Background(), "alice", "wrong")
	require.Error(t, err)
	domainErr := apperrors.ToDomainError(err)
	assert.Equal(t, "UNAUTHORIZED", domainErr.Code)
	assert.Equal(t, http.StatusUnauthorized, domainErr.HTTPStatus)
}

func TestLoginUpstreamFailure(t *testing.T) {
	svc, srv := newAuthService(t)
	srv.Fail("POST /token", http.StatusBadGateway)

	_, err := svc.Login(context.Background(), "alice", "wonderland")
	require.Error(t, err)
	domainErr := apperrors.ToDomainError(err)
	assert.Equal(t, "UPSTREAM_ERROR", domainErr.Code)
	assert.Equal(t, http.StatusInternalServerError, domainErr.HTTPStatus)
	assert.Contains(t, domainErr.Details, "server_error")
}
