package service

import (
	"context"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spec-kit/planmeet/internal/domain"
	"github.com/spec-kit/planmeet/internal/keycloak"
	apperrors "github.com/spec-kit/planmeet/pkg/util/errorutil"
)

// AdminSessions opens an administrative session with a freshly issued token.
type AdminSessions interface {
	Session(ctx context.Context) (*keycloak.AdminSession, error)
}

// DirectoryService fronts the realm admin API. Every operation acquires its own
// session and fails fast; nothing is retried.
type DirectoryService struct {
	admin  AdminSessions
	logger *zap.Logger
}

// NewDirectoryService constructs the service.
func NewDirectoryService(admin AdminSessions, logger *zap.Logger) *DirectoryService {
	return &DirectoryService{admin: admin, logger: logger}
}

func (s *DirectoryService) ListUsers(ctx context.Context) ([]domain.User, error) {
	session, err := s.session(ctx)
	if err != nil {
		return nil, err
	}
	users, err := session.ListUsers(ctx)
	if err != nil {
		return nil, s.fail("failed to list users", err)
	}
	return users, nil
}

func (s *DirectoryService) ListGroups(ctx context.Context) ([]domain.Group, error) {
	session, err := s.session(ctx)
	if err != nil {
		return nil, err
	}
	groups, err := session.ListGroups(ctx)
	if err != nil {
		return nil, s.fail("failed to list groups", err)
	}
	return groups, nil
}

func (s *DirectoryService) ListRoles(ctx context.Context) ([]domain.Role, error) {
	session, err := s.session(ctx)
	if err != nil {
		return nil, err
	}
	roles, err := session.ListRoles(ctx)
	if err != nil {
		return nil, s.fail("failed to list roles", err)
	}
	return roles, nil
}

// GetUserDetail fetches profile, realm roles and groups concurrently. Any
// failing leg fails the whole call.
func (s *DirectoryService) GetUserDetail(ctx context.Context, userID string) (*domain.UserDetail, error) {
	if err := requireUserID(userID); err != nil {
		return nil, err
	}
	session, err := s.session(ctx)
	if err != nil {
		return nil, err
	}

	var (
		user   *domain.User
		roles  []domain.Role
		groups []domain.Group
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		user, err = session.GetUser(gctx, userID)
		return err
	})
	g.Go(func() (err error) {
		roles, err = session.UserRealmRoles(gctx, userID)
		return err
	})
	g.Go(func() (err error) {
		groups, err = session.UserGroups(gctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, s.fail("failed to fetch user data", err, zap.String("user_id", userID))
	}

	return &domain.UserDetail{User: *user, Roles: roles, Groups: groups}, nil
}

func (s *DirectoryService) GetUserRoles(ctx context.Context, userID string) ([]domain.Role, error) {
	if err := requireUserID(userID); err != nil {
		return nil, err
	}
	session, err := s.session(ctx)
	if err != nil {
		return nil, err
	}
	roles, err := session.UserRealmRoles(ctx, userID)
	if err != nil {
		return nil, s.fail("failed to fetch user roles", err, zap.String("user_id", userID))
	}
	return roles, nil
}

func (s *DirectoryService) GetUserGroups(ctx context.Context, userID string) ([]domain.Group, error) {
	if err := requireUserID(userID); err != nil {
		return nil, err
	}
	session, err := s.session(ctx)
	if err != nil {
		return nil, err
	}
	groups, err := session.UserGroups(ctx, userID)
	if err != nil {
		return nil, s.fail("failed to fetch user groups", err, zap.String("user_id", userID))
	}
	return groups, nil
}

// AddUserToGroup resolves groupName by exact name and adds the membership.
func (s *DirectoryService) AddUserToGroup(ctx context.Context, userID, groupName string) error {
	session, group, err := s.resolveGroup(ctx, userID, groupName)
	if err != nil {
		return err
	}
	if err := session.AddUserToGroup(ctx, userID, group.ID); err != nil {
		return s.fail("failed to assign group", err, zap.String("user_id", userID), zap.String("group", groupName))
	}
	s.logger.Info("group assigned", zap.String("user_id", userID), zap.String("group", groupName))
	return nil
}

// RemoveUserFromGroup resolves groupName by exact name and removes the membership.
func (s *DirectoryService) RemoveUserFromGroup(ctx context.Context, userID, groupName string) error {
	session, group, err := s.resolveGroup(ctx, userID, groupName)
	if err != nil {
		return err
	}
	if err := session.RemoveUserFromGroup(ctx, userID, group.ID); err != nil {
		return s.fail("failed to remove group", err, zap.String("user_id", userID), zap.String("group", groupName))
	}
	s.logger.Info("group removed", zap.String("user_id", userID), zap.String("group", groupName))
	return nil
}

// AddRealmRoleToUser resolves roleName by exact name and adds the realm mapping.
func (s *DirectoryService) AddRealmRoleToUser(ctx context.Context, userID, roleName string) error {
	session, role, err := s.resolveRole(ctx, userID, roleName)
	if err != nil {
		return err
	}
	if err := session.AddRealmRoles(ctx, userID, []domain.Role{*role}); err != nil {
		return s.fail("failed to assign role", err, zap.String("user_id", userID), zap.String("role", roleName))
	}
	s.logger.Info("role assigned", zap.String("user_id", userID), zap.String("role", roleName))
	return nil
}

// RemoveRealmRoleFromUser resolves roleName by exact name and removes the realm mapping.
func (s *DirectoryService) RemoveRealmRoleFromUser(ctx context.Context, userID, roleName string) error {
	session, role, err := s.resolveRole(ctx, userID, roleName)
	if err != nil {
		return err
	}
	if err := session.RemoveRealmRoles(ctx, userID, []domain.Role{*role}); err != nil {
		return s.fail("failed to remove role", err, zap.String("user_id", userID), zap.String("role", roleName))
	}
	s.logger.Info("role removed", zap.String("user_id", userID), zap.String("role", roleName))
	return nil
}

func (s *DirectoryService) resolveGroup(ctx context.Context, userID, groupName string) (*keycloak.AdminSession, *domain.Group, error) {
	if err := requireFields(map[string]string{"userId": userID, "group": groupName}); err != nil {
		return nil, nil, err
	}
	session, err := s.session(ctx)
	if err != nil {
		return nil, nil, err
	}
	groups, err := session.ListGroups(ctx)
	if err != nil {
		return nil, nil, s.fail("failed to list groups", err)
	}
	group := findGroup(groups, groupName)
	if group == nil {
		return nil, nil, apperrors.NewNotFound("group", map[string]any{"name": groupName})
	}
	return session, group, nil
}

func (s *DirectoryService) resolveRole(ctx context.Context, userID, roleName string) (*keycloak.AdminSession, *domain.Role, error) {
	if err := requireFields(map[string]string{"userId": userID, "role": roleName}); err != nil {
		return nil, nil, err
	}
	session, err := s.session(ctx)
	if err != nil {
		return nil, nil, err
	}
	roles, err := session.ListRoles(ctx)
	if err != nil {
		return nil, nil, s.fail("failed to list roles", err)
	}
	for i := range roles {
		if roles[i].Name == roleName {
			return session, &roles[i], nil
		}
	}
	return nil, nil, apperrors.NewNotFound("role", map[string]any{"name": roleName})
}

func (s *DirectoryService) session(ctx context.Context) (*keycloak.AdminSession, error) {
	session, err := s.admin.Session(ctx)
	if err != nil {
		return nil, s.fail("failed to obtain admin token", err)
	}
	return session, nil
}

func (s *DirectoryService) fail(message string, err error, fields ...zap.Field) error {
	s.logger.Error(message, append(fields, zap.Error(err))...)
	return upstream(message, err)
}

// findGroup walks the group tree depth-first for an exact name match.
func findGroup(groups []domain.Group, name string) *domain.Group {
	for i := range groups {
		if groups[i].Name == name {
			return &groups[i]
		}
		if found := findGroup(groups[i].SubGroups, name); found != nil {
			return found
		}
	}
	return nil
}

func requireUserID(userID string) error {
	return requireFields(map[string]string{"userId": userID})
}

func requireFields(fields map[string]string) error {
	missing := map[string]any{}
	for name, value := range fields {
		if strings.TrimSpace(value) == "" {
			missing[name] = "required"
		}
	}
	if len(missing) > 0 {
		return apperrors.NewValidationError("missing required fields", missing)
	}
	return nil
}
