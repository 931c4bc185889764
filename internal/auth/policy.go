package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/planmeet/internal/domain"
	apperrors "github.com/spec-kit/planmeet/pkg/util/errorutil"
)

// Action names a gated operation.
type Action string

const (
	ActionCreateChecklist       Action = "checklist:create"
	ActionDeleteChecklist       Action = "checklist:delete"
	ActionEditChecklist         Action = "checklist:edit"
	ActionViewAllTeams          Action = "checklist:view_all"
	ActionManageDirectory       Action = "directory:manage"
	ActionViewAllSubmissions    Action = "submission:view_all"
	ActionUpdateChecklistStatus Action = "checklist:update_status"
	ActionSubmitTeam            Action = "submission:submit"
	ActionViewTeamSubmissions   Action = "submission:view_team"
	ActionEditSubmission        Action = "submission:edit"
	ActionViewOwnChecklists     Action = "checklist:view_own"
	ActionViewTeamBoard         Action = "checklist:view_team"
	ActionViewDirectory         Action = "directory:view"
	ActionViewSession           Action = "session:view"
)

// Requirement is what a caller must hold to perform an action. An empty Role
// means any authenticated identity. TeamScoped actions additionally require the
// target team to equal the caller's own team.
type Requirement struct {
	Role       string
	TeamScoped bool
}

// DefaultRules is the fixed rule table.
var DefaultRules = map[Action]Requirement{
	ActionCreateChecklist:       {Role: domain.RoleCIO},
	ActionDeleteChecklist:       {Role: domain.RoleCIO},
	ActionEditChecklist:         {Role: domain.RoleCIO},
	ActionViewAllTeams:          {Role: domain.RoleCIO},
	ActionManageDirectory:       {Role: domain.RoleCIO},
	ActionViewAllSubmissions:    {Role: domain.RoleCIO},
	ActionUpdateChecklistStatus: {Role: domain.RolePO, TeamScoped: true},
	ActionSubmitTeam:            {Role: domain.RolePO, TeamScoped: true},
	ActionViewTeamSubmissions:   {Role: domain.RolePO, TeamScoped: true},
	ActionEditSubmission:        {Role: domain.RolePO, TeamScoped: true},
	ActionViewOwnChecklists:     {},
	ActionViewTeamBoard:         {},
	ActionViewDirectory:         {},
	ActionViewSession:           {},
}

// Policy evaluates the rule table.
type Policy struct {
	rules map[Action]Requirement
}

// NewPolicy builds a policy over the given rules.
func NewPolicy(rules map[Action]Requirement) *Policy {
	return &Policy{rules: rules}
}

// DefaultPolicy returns the policy over DefaultRules.
func DefaultPolicy() *Policy {
	return NewPolicy(DefaultRules)
}

// Authorize returns nil when claims permit the action on team. team is only
// consulted for team-scoped actions. Unknown actions are denied.
func (p *Policy) Authorize(claims *Claims, action Action, team string) error {
	if claims == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	req, ok := p.rules[action]
	if !ok {
		return apperrors.NewForbidden("action not permitted")
	}
	if req.Role != "" && !claims.HasRole(req.Role) {
		return apperrors.NewForbidden("role " + req.Role + " required")
	}
	if req.TeamScoped {
		own := claims.Team()
		if own == "" {
			return apperrors.NewForbidden("user has no assigned team")
		}
		if team != "" && team != own {
			return apperrors.NewForbidden("not a member of team " + team)
		}
	}
	return nil
}

// Require gates a route on action. Team-scoped rules read the :assignedTeam param.
func (p *Policy) Require(action Action) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if err := p.Authorize(principal.Claims, action, c.Params("assignedTeam")); err != nil {
			return err
		}
		return c.Next()
	}
}
