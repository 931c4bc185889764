package auth

import (
	"strings"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/spec-kit/planmeet/internal/domain"
)

// RealmAccess is the realm_access claim issued by Keycloak.
type RealmAccess struct {
	Roles []string `json:"roles"`
}

// Claims describes the access-token payload this system reads.
type Claims struct {
	RealmAccess       RealmAccess `json:"realm_access"`
	Groups            []string    `json:"groups,omitempty"`
	Group             []string    `json:"group,omitempty"`
	PreferredUsername string      `json:"preferred_username,omitempty"`
	Email             string      `json:"email,omitempty"`
	Name              string      `json:"name,omitempty"`
	GivenName         string      `json:"given_name,omitempty"`
	FamilyName        string      `json:"family_name,omitempty"`
	jwt.RegisteredClaims

	// Raw is the full decoded payload, returned verbatim by GET /user.
	Raw map[string]any `json:"-"`
}

// Roles returns the realm roles without duplicates, in token order.
func (c *Claims) Roles() []string {
	if c == nil {
		return nil
	}
	seen := make(map[string]struct{}, len(c.RealmAccess.Roles))
	roles := make([]string, 0, len(c.RealmAccess.Roles))
	for _, role := range c.RealmAccess.Roles {
		if _, ok := seen[role]; ok {
			continue
		}
		seen[role] = struct{}{}
		roles = append(roles, role)
	}
	return roles
}

// HasRole reports whether the realm role is present.
func (c *Claims) HasRole(role string) bool {
	if c == nil {
		return false
	}
	for _, r := range c.RealmAccess.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// GroupPaths returns group memberships from both the groups and group claims.
func (c *Claims) GroupPaths() []string {
	if c == nil {
		return nil
	}
	paths := make([]string, 0, len(c.Groups)+len(c.Group))
	paths = append(paths, c.Groups...)
	return append(paths, c.Group...)
}

// Team returns the caller's team: the first group that is not the administrative
// cohort, leading slash stripped. Empty when there is none.
func (c *Claims) Team() string {
	for _, path := range c.GroupPaths() {
		name := strings.TrimPrefix(path, "/")
		if name == "" || name == domain.AdminGroup {
			continue
		}
		return name
	}
	return ""
}

// IsAdministrator is the single administrative-identity predicate: realm role CIO.
func (c *Claims) IsAdministrator() bool {
	return c.HasRole(domain.RoleCIO)
}
