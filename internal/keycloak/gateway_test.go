package keycloak_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/spec-kit/planmeet/internal/domain"
	"github.com/spec-kit/planmeet/internal/keycloak"
	"github.com/spec-kit/planmeet/internal/keycloak/keycloaktest"
)

func TestGatewayLogin(t *testing.T) {
	srv := keycloaktest.NewServer(t)
	srv.AddUser(domain.User{ID: "u1", Username: "alice"}, "wonderland")
	gateway := keycloak.NewGateway(srv.Config(), srv.Client(), nil)

	tokens, err := gateway.Login(context.Background(), "alice", "wonderland")
	require.NoError(t, err)
	assert.Equal(t, "user-token-alice", tokens.AccessToken)
	assert.Equal(t, "Bearer", tokens.TokenType)
	assert.Equal(t, int64(300), tokens.ExpiresIn)
	assert.Equal(t, int64(1800), tokens.RefreshExpiresIn)
	assert.Equal(t, "openid profile email", tokens.Scope)
	assert.Equal(t, 1, srv.Grants("password"))
}

func TestGatewayLoginRejected(t *testing.T) {
	srv := keycloaktest.NewServer(t)
	srv.AddUser(domain.User{ID: "u1", Username: "alice"}, "wonderland")
	gateway := keycloak.NewGateway(srv.Config(), srv.Client(), nil)

	_, err := gateway.Login(context.Background(), "alice", "nope")
	assert.ErrorIs(t, err, keycloak.ErrInvalidCredentials)
}

func TestGatewayLoginWithMisconfiguredClient(t *testing.T) {
	srv := keycloaktest.NewServer(t)
	srv.AddUser(domain.User{ID: "u1", Username: "alice"}, "wonderland")
	cfg := srv.Config()
	cfg.ClientSecret = "wrong"
	gateway := keycloak.NewGateway(cfg, srv.Client(), nil)

	_, err := gateway.Login(context.Background(), "alice", "wonderland")
	assert.NotErrorIs(t, err, keycloak.ErrInvalidCredentials)
	var apiErr *keycloak.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Contains(t, apiErr.Detail(), "invalid_client")
}

func TestGatewayLoginUpstreamFailure(t *testing.T) {
	srv := keycloaktest.NewServer(t)
	srv.Fail("POST /token", http.StatusBadGateway)
	gateway := keycloak.NewGateway(srv.Config(), srv.Client(), nil)

	_, err := gateway.Login(context.Background(), "alice", "wonderland")
	var apiErr *keycloak.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.Contains(t, apiErr.Detail(), "server_error")
}

func TestGatewayServiceTokenIsFreshPerCall(t *testing.T) {
	srv := keycloaktest.NewServer(t)
	gateway := keycloak.NewGateway(srv.Config(), srv.Client(), nil)

	for i := 0; i < 3; i++ {
		token, err := gateway.ServiceToken(context.Background())
		require.NoError(t, err)
		assert.Equal(t, keycloaktest.AdminToken, token.AccessToken)
	}
	assert.Equal(t, 3, srv.Grants("client_credentials"))
}

type memoryCache struct {
	token *oauth2.Token
}

func (m *memoryCache) Get(context.Context) (*oauth2.Token, bool) {
	return m.token, m.token != nil
}

func (m *memoryCache) Put(_ context.Context, token *oauth2.Token) {
	m.token = token
}

func TestGatewayServiceTokenUsesCache(t *testing.T) {
	srv := keycloaktest.NewServer(t)
	cache := &memoryCache{}
	gateway := keycloak.NewGateway(srv.Config(), srv.Client(), cache)

	for i := 0; i < 3; i++ {
		_, err := gateway.ServiceToken(context.Background())
		require.NoError(t, err)
	}
	assert.Equal(t, 1, srv.Grants("client_credentials"))
	assert.WithinDuration(t, time.Now().Add(time.Minute), cache.token.Expiry, 5*time.Second)
}

func TestGatewayServiceTokenBadSecret(t *testing.T) {
	srv := keycloaktest.NewServer(t)
	cfg := srv.Config()
	cfg.ClientSecret = "wrong"
	gateway := keycloak.NewGateway(cfg, srv.Client(), nil)

	_, err := gateway.ServiceToken(context.Background())
	var apiErr *keycloak.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
}
