package keycloak_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/planmeet/internal/domain"
	"github.com/spec-kit/planmeet/internal/keycloak"
	"github.com/spec-kit/planmeet/internal/keycloak/keycloaktest"
)

func seededRealm(t *testing.T) *keycloaktest.Server {
	t.Helper()
	srv := keycloaktest.NewServer(t)
	srv.AddUser(domain.User{ID: "u1", Username: "alice", FirstName: "Alice", LastName: "Liddell", Enabled: true}, "pw")
	srv.AddUser(domain.User{ID: "u2", Username: "bob", FirstName: "Bob", Enabled: true}, "pw")
	srv.AddGroup(domain.Group{ID: "g-cio", Name: "CIO", Path: "/CIO"})
	srv.AddGroup(domain.Group{ID: "g-1", Name: "dev_team_1", Path: "/dev_team_1"})
	srv.AddRole(domain.Role{ID: "r-cio", Name: "CIO"})
	srv.AddRole(domain.Role{ID: "r-po", Name: "PO"})
	return srv
}

func adminSession(t *testing.T, srv *keycloaktest.Server) *keycloak.AdminSession {
	t.Helper()
	cfg := srv.Config()
	gateway := keycloak.NewGateway(cfg, srv.Client(), nil)
	client := keycloak.NewAdminClient(cfg, gateway, srv.Client())
	session, err := client.Session(context.Background())
	require.NoError(t, err)
	return session
}

func TestAdminSessionReads(t *testing.T) {
	srv := seededRealm(t)
	session := adminSession(t, srv)
	ctx := context.Background()

	users, err := session.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "Alice", users[0].FirstName)

	groups, err := session.ListGroups(ctx)
	require.NoError(t, err)
	assert.Len(t, groups, 2)

	roles, err := session.ListRoles(ctx)
	require.NoError(t, err)
	assert.Len(t, roles, 2)

	user, err := session.GetUser(ctx, "u2")
	require.NoError(t, err)
	assert.Equal(t, "bob", user.Username)
}

func TestAdminSessionMembershipWrites(t *testing.T) {
	srv := seededRealm(t)
	session := adminSession(t, srv)
	ctx := context.Background()

	require.NoError(t, session.AddUserToGroup(ctx, "u1", "g-1"))
	groups, err := session.UserGroups(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, "dev_team_1", groups[0].Name)

	require.NoError(t, session.RemoveUserFromGroup(ctx, "u1", "g-1"))
	assert.Empty(t, srv.MemberGroups("u1"))

	po := domain.Role{ID: "r-po", Name: "PO"}
	require.NoError(t, session.AddRealmRoles(ctx, "u1", []domain.Role{po}))
	roles, err := session.UserRealmRoles(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, roles, 1)
	assert.Equal(t, "PO", roles[0].Name)

	require.NoError(t, session.RemoveRealmRoles(ctx, "u1", []domain.Role{po}))
	assert.Empty(t, srv.MemberRoles("u1"))

	assert.Equal(t, []string{
		"PUT /admin/realms/planmeet/users/u1/groups/g-1",
		"DELETE /admin/realms/planmeet/users/u1/groups/g-1",
		"POST /admin/realms/planmeet/users/u1/role-mappings/realm",
		"DELETE /admin/realms/planmeet/users/u1/role-mappings/realm",
	}, srv.Writes())
}

func TestAdminSessionCarriesUpstreamBody(t *testing.T) {
	srv := seededRealm(t)
	session := adminSession(t, srv)

	_, err := session.GetUser(context.Background(), "missing")
	var apiErr *keycloak.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Contains(t, apiErr.Detail(), "User not found")
}

func TestAdminSessionRejectsMalformedGroups(t *testing.T) {
	srv := seededRealm(t)
	srv.AddGroup(domain.Group{ID: "", Name: "ghost"})
	session := adminSession(t, srv)

	_, err := session.ListGroups(context.Background())
	var apiErr *keycloak.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Contains(t, apiErr.Detail(), "malformed response")
}
