package keycloak

import (
	"context"
	"errors"
	"net/http"

	"github.com/Nerzal/gocloak/v13"
	"golang.org/x/oauth2"

	"github.com/spec-kit/planmeet/internal/config"
	"github.com/spec-kit/planmeet/internal/domain"
)

// ServiceTokenSource issues administrative tokens.
type ServiceTokenSource interface {
	ServiceToken(ctx context.Context) (*oauth2.Token, error)
}

// AdminClient talks to the realm admin REST API through gocloak.
type AdminClient struct {
	realm  string
	tokens ServiceTokenSource
	api    *gocloak.GoCloak
}

// NewAdminClient constructs the client for cfg's realm. httpClient supplies the
// timeout and transport used for admin calls.
func NewAdminClient(cfg config.KeycloakConfig, tokens ServiceTokenSource, httpClient *http.Client) *AdminClient {
	api := gocloak.NewClient(cfg.URL)
	if httpClient != nil {
		if httpClient.Transport != nil {
			api.RestyClient().SetTransport(httpClient.Transport)
		}
		if httpClient.Timeout > 0 {
			api.RestyClient().SetTimeout(httpClient.Timeout)
		}
	}
	return &AdminClient{realm: cfg.Realm, tokens: tokens, api: api}
}

// Session acquires a fresh administrative token scoped to one logical operation.
func (a *AdminClient) Session(ctx context.Context) (*AdminSession, error) {
	token, err := a.tokens.ServiceToken(ctx)
	if err != nil {
		return nil, err
	}
	return &AdminSession{api: a.api, realm: a.realm, token: token.AccessToken}, nil
}

// AdminSession issues admin calls with one bearer token.
type AdminSession struct {
	api   *gocloak.GoCloak
	realm string
	token string
}

func (s *AdminSession) ListUsers(ctx context.Context) ([]domain.User, error) {
	users, err := s.api.GetUsers(ctx, s.token, s.realm, gocloak.GetUsersParams{})
	if err != nil {
		return nil, apiError("list users", err)
	}
	out := make([]domain.User, 0, len(users))
	for _, u := range users {
		user := toUser(u)
		if user.ID == "" {
			return nil, malformed("list users", "user without id")
		}
		out = append(out, user)
	}
	return out, nil
}

func (s *AdminSession) ListGroups(ctx context.Context) ([]domain.Group, error) {
	groups, err := s.api.GetGroups(ctx, s.token, s.realm, gocloak.GetGroupsParams{})
	if err != nil {
		return nil, apiError("list groups", err)
	}
	return toGroups("list groups", groups)
}

func (s *AdminSession) ListRoles(ctx context.Context) ([]domain.Role, error) {
	roles, err := s.api.GetRealmRoles(ctx, s.token, s.realm, gocloak.GetRoleParams{})
	if err != nil {
		return nil, apiError("list roles", err)
	}
	return toRoles("list roles", roles)
}

func (s *AdminSession) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	u, err := s.api.GetUserByID(ctx, s.token, s.realm, userID)
	if err != nil {
		return nil, apiError("get user", err)
	}
	user := toUser(u)
	if user.ID == "" {
		return nil, malformed("get user", "user without id")
	}
	return &user, nil
}

// UserRealmRoles returns the user's realm-level role mappings.
func (s *AdminSession) UserRealmRoles(ctx context.Context, userID string) ([]domain.Role, error) {
	roles, err := s.api.GetRealmRolesByUserID(ctx, s.token, s.realm, userID)
	if err != nil {
		return nil, apiError("user realm roles", err)
	}
	return toRoles("user realm roles", roles)
}

func (s *AdminSession) UserGroups(ctx context.Context, userID string) ([]domain.Group, error) {
	groups, err := s.api.GetUserGroups(ctx, s.token, s.realm, userID, gocloak.GetGroupsParams{})
	if err != nil {
		return nil, apiError("user groups", err)
	}
	return toGroups("user groups", groups)
}

func (s *AdminSession) AddUserToGroup(ctx context.Context, userID, groupID string) error {
	return apiError("add user to group", s.api.AddUserToGroup(ctx, s.token, s.realm, userID, groupID))
}

func (s *AdminSession) RemoveUserFromGroup(ctx context.Context, userID, groupID string) error {
	return apiError("remove user from group", s.api.DeleteUserFromGroup(ctx, s.token, s.realm, userID, groupID))
}

// AddRealmRoles maps realm roles to the user.
func (s *AdminSession) AddRealmRoles(ctx context.Context, userID string, roles []domain.Role) error {
	return apiError("add realm roles", s.api.AddRealmRoleToUser(ctx, s.token, s.realm, userID, fromRoles(roles)))
}

// RemoveRealmRoles removes realm role mappings from the user.
func (s *AdminSession) RemoveRealmRoles(ctx context.Context, userID string, roles []domain.Role) error {
	return apiError("remove realm roles", s.api.DeleteRealmRoleFromUser(ctx, s.token, s.realm, userID, fromRoles(roles)))
}

// apiError keeps the provider's status and message; nil stays nil.
func apiError(op string, err error) error {
	if err == nil {
		return nil
	}
	var gErr *gocloak.APIError
	if errors.As(err, &gErr) && gErr.Code != 0 {
		return &APIError{Op: op, StatusCode: gErr.Code, Body: gErr.Message}
	}
	return &APIError{Op: op, Err: err}
}

func toUser(u *gocloak.User) domain.User {
	if u == nil {
		return domain.User{}
	}
	user := domain.User{
		ID:               deref(u.ID),
		Username:         deref(u.Username),
		FirstName:        deref(u.FirstName),
		LastName:         deref(u.LastName),
		Email:            deref(u.Email),
		Enabled:          deref(u.Enabled),
		CreatedTimestamp: deref(u.CreatedTimestamp),
	}
	if u.Attributes != nil {
		user.Attributes = *u.Attributes
	}
	return user
}

func toGroups(op string, groups []*gocloak.Group) ([]domain.Group, error) {
	out := make([]domain.Group, 0, len(groups))
	for _, g := range groups {
		if g == nil {
			return nil, malformed(op, "null group")
		}
		group, err := toGroup(op, *g)
		if err != nil {
			return nil, err
		}
		out = append(out, group)
	}
	return out, nil
}

func toGroup(op string, g gocloak.Group) (domain.Group, error) {
	group := domain.Group{ID: deref(g.ID), Name: deref(g.Name), Path: deref(g.Path)}
	if group.ID == "" || group.Name == "" {
		return domain.Group{}, malformed(op, "group without id or name")
	}
	if g.SubGroups != nil {
		for _, sub := range *g.SubGroups {
			child, err := toGroup(op, sub)
			if err != nil {
				return domain.Group{}, err
			}
			group.SubGroups = append(group.SubGroups, child)
		}
	}
	return group, nil
}

func toRoles(op string, roles []*gocloak.Role) ([]domain.Role, error) {
	out := make([]domain.Role, 0, len(roles))
	for _, r := range roles {
		if r == nil {
			return nil, malformed(op, "null role")
		}
		role := domain.Role{
			ID:          deref(r.ID),
			Name:        deref(r.Name),
			Description: deref(r.Description),
			Composite:   deref(r.Composite),
			ClientRole:  deref(r.ClientRole),
			ContainerID: deref(r.ContainerID),
		}
		if role.ID == "" || role.Name == "" {
			return nil, malformed(op, "role without id or name")
		}
		out = append(out, role)
	}
	return out, nil
}

func fromRoles(roles []domain.Role) []gocloak.Role {
	out := make([]gocloak.Role, 0, len(roles))
	for _, r := range roles {
		out = append(out, gocloak.Role{
			ID:          gocloak.StringP(r.ID),
			Name:        gocloak.StringP(r.Name),
			Composite:   gocloak.BoolP(r.Composite),
			ClientRole:  gocloak.BoolP(r.ClientRole),
			ContainerID: gocloak.StringP(r.ContainerID),
		})
	}
	return out
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}

func malformed(op, reason string) error {
	return &APIError{Op: op, Err: errors.New("malformed response: " + reason)}
}
