package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClaimsTeam(t *testing.T) {
	cases := []struct {
		name   string
		claims Claims
		want   string
	}{
		{name: "admin group first", claims: Claims{Groups: []string{"/CIO", "/dev_team_2"}}, want: "dev_team_2"},
		{name: "single team", claims: Claims{Groups: []string{"/dev_team_1"}}, want: "dev_team_1"},
		{name: "only admin group", claims: Claims{Groups: []string{"/CIO"}}, want: ""},
		{name: "no groups", claims: Claims{}, want: ""},
		{name: "first team wins", claims: Claims{Groups: []string{"/dev_team_3", "/dev_team_1"}}, want: "dev_team_3"},
		{name: "unprefixed admin group", claims: Claims{Groups: []string{"CIO", "dev_team_4"}}, want: "dev_team_4"},
		{name: "group claim name", claims: Claims{Group: []string{"/dev_team_5"}}, want: "dev_team_5"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.claims.Team())
		})
	}
}

func TestClaimsRoles(t *testing.T) {
	claims := &Claims{RealmAccess: RealmAccess{Roles: []string{"PO", "Dev", "PO"}}}

	assert.Equal(t, []string{"PO", "Dev"}, claims.Roles())
	assert.True(t, claims.HasRole("PO"))
	assert.False(t, claims.HasRole("CIO"))
	assert.False(t, claims.IsAdministrator())
}

func TestIsAdministratorUsesRoleOnly(t *testing.T) {
	groupOnly := &Claims{Groups: []string{"/CIO"}}
	roleOnly := &Claims{RealmAccess: RealmAccess{Roles: []string{"CIO"}}}

	assert.Equal(t, []string{"/CIO"}, groupOnly.GroupPaths())
	assert.Empty(t, groupOnly.Team())
	assert.False(t, groupOnly.IsAdministrator())
	assert.True(t, roleOnly.IsAdministrator())

	var nilClaims *Claims
	assert.False(t, nilClaims.IsAdministrator())
	assert.Empty(t, nilClaims.Team())
}
