package dto

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/spec-kit/planmeet/internal/domain"
)

// NameRef accepts either a bare name or an object carrying a name field, as
// the dashboard sends whole group and role records on removal.
type NameRef string

// UnmarshalJSON implements json.Unmarshaler.
func (n *NameRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*n = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var name string
		if err := json.Unmarshal(data, &name); err != nil {
			return err
		}
		*n = NameRef(name)
		return nil
	}
	var obj struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("expected a name or an object with a name: %w", err)
	}
	*n = NameRef(obj.Name)
	return nil
}

// AssignTeamRequest payload for POST /assign-team.
type AssignTeamRequest struct {
	UserID   string `json:"userId"`
	TeamName string `json:"teamName"`
}

// RemoveGroupRequest payload for POST /delete-group.
type RemoveGroupRequest struct {
	UserID string  `json:"userId"`
	Group  NameRef `json:"group1"`
}

// AssignRoleRequest payload for POST /assign-role.
type AssignRoleRequest struct {
	UserID   string `json:"userId"`
	RoleName string `json:"roleName"`
}

// RemoveRoleRequest payload for POST /delete-role.
type RemoveRoleRequest struct {
	UserID string  `json:"userId"`
	Role   NameRef `json:"role"`
}

// MessageResponse carries a human readable outcome.
type MessageResponse struct {
	Message string `json:"message"`
}

// UsersResponse wraps a user listing.
type UsersResponse struct {
	Users []domain.User `json:"users"`
}

// GroupsResponse wraps a group listing.
type GroupsResponse struct {
	Groups []domain.Group `json:"groups"`
}

// RolesResponse wraps a role listing.
type RolesResponse struct {
	Roles []domain.Role `json:"roles"`
}
