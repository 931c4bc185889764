package handlers

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/planmeet/internal/api/dto"
	"github.com/spec-kit/planmeet/internal/service"
)

// DirectoryHandler proxies realm administration.
type DirectoryHandler struct {
	directory *service.DirectoryService
}

// NewDirectoryHandler constructs handler.
func NewDirectoryHandler(directory *service.DirectoryService) *DirectoryHandler {
	return &DirectoryHandler{directory: directory}
}

// UserData handles GET /getUserData?userId=.
func (h *DirectoryHandler) UserData(c *fiber.Ctx) error {
	detail, err := h.directory.GetUserDetail(c.UserContext(), c.Query("userId"))
	if err != nil {
		return err
	}
	return c.JSON(detail)
}

// UserRoles handles GET /getUserRoles?userId=.
func (h *DirectoryHandler) UserRoles(c *fiber.Ctx) error {
	roles, err := h.directory.GetUserRoles(c.UserContext(), c.Query("userId"))
	if err != nil {
		return err
	}
	return c.JSON(dto.RolesResponse{Roles: roles})
}

// UserGroups handles GET /getUserGroups?userId=.
func (h *DirectoryHandler) UserGroups(c *fiber.Ctx) error {
	groups, err := h.directory.GetUserGroups(c.UserContext(), c.Query("userId"))
	if err != nil {
		return err
	}
	return c.JSON(dto.GroupsResponse{Groups: groups})
}

// Members handles GET /project/members.
func (h *DirectoryHandler) Members(c *fiber.Ctx) error {
	users, err := h.directory.ListUsers(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(dto.UsersResponse{Users: users})
}

// Groups handles GET /groups.
func (h *DirectoryHandler) Groups(c *fiber.Ctx) error {
	groups, err := h.directory.ListGroups(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(dto.GroupsResponse{Groups: groups})
}

// Roles handles GET /roles.
func (h *DirectoryHandler) Roles(c *fiber.Ctx) error {
	roles, err := h.directory.ListRoles(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(dto.RolesResponse{Roles: roles})
}

// AssignTeam handles POST /assign-team.
func (h *DirectoryHandler) AssignTeam(c *fiber.Ctx) error {
	var req dto.AssignTeamRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if err := h.directory.AddUserToGroup(c.UserContext(), req.UserID, req.TeamName); err != nil {
		return err
	}
	return c.JSON(dto.MessageResponse{Message: fmt.Sprintf("User %s assigned to team %s", req.UserID, req.TeamName)})
}

// RemoveGroup handles POST /delete-group.
func (h *DirectoryHandler) RemoveGroup(c *fiber.Ctx) error {
	var req dto.RemoveGroupRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if err := h.directory.RemoveUserFromGroup(c.UserContext(), req.UserID, string(req.Group)); err != nil {
		return err
	}
	return c.JSON(dto.MessageResponse{Message: fmt.Sprintf("User %s removed from group %s", req.UserID, req.Group)})
}

// AssignRole handles POST /assign-role.
func (h *DirectoryHandler) AssignRole(c *fiber.Ctx) error {
	var req dto.AssignRoleRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if err := h.directory.AddRealmRoleToUser(c.UserContext(), req.UserID, req.RoleName); err != nil {
		return err
	}
	return c.JSON(dto.MessageResponse{Message: fmt.Sprintf("User %s assigned to role %s", req.UserID, req.RoleName)})
}

// RemoveRole handles POST /delete-role.
func (h *DirectoryHandler) RemoveRole(c *fiber.Ctx) error {
	var req dto.RemoveRoleRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if err := h.directory.RemoveRealmRoleFromUser(c.UserContext(), req.UserID, string(req.Role)); err != nil {
		return err
	}
	return c.JSON(dto.MessageResponse{Message: fmt.Sprintf("User %s removed from role %s", req.UserID, req.Role)})
}
