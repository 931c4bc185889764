package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/planmeet/internal/api/dto"
	"github.com/spec-kit/planmeet/internal/auth"
	"github.com/spec-kit/planmeet/internal/domain"
	"github.com/spec-kit/planmeet/internal/service"
	apperrors "github.com/spec-kit/planmeet/pkg/util/errorutil"
)

// ChecklistHandler exposes the board endpoints.
type ChecklistHandler struct {
	checklists *service.ChecklistService
}

// NewChecklistHandler constructs handler.
func NewChecklistHandler(checklists *service.ChecklistService) *ChecklistHandler {
	return &ChecklistHandler{checklists: checklists}
}

// Create handles POST /checklists.
func (h *ChecklistHandler) Create(c *fiber.Ctx) error {
	var req dto.ChecklistCreateRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	item, err := h.checklists.Create(requestContext(c), service.ChecklistCreateInput{
		Title:        req.Title,
		Description:  req.Description,
		AssignedTeam: req.AssignedTeam,
		Status:       domain.ChecklistStatus(req.Status),
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(dto.ChecklistEnvelope{
		Message:   "Checklist created successfully",
		Checklist: dto.NewChecklistResponse(*item),
	})
}

// List handles GET /checklists.
func (h *ChecklistHandler) List(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	items, err := h.checklists.ListVisibleFor(c.UserContext(), principal.Claims)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewChecklistResponses(items))
}

// ListTeam handles GET /checklists/team/:team. Submitted items are hidden
// unless includeSubmitted=true.
func (h *ChecklistHandler) ListTeam(c *fiber.Ctx) error {
	team := c.Params("team")
	var (
		items []domain.ChecklistItem
		err   error
	)
	if c.QueryBool("includeSubmitted", false) {
		items, err = h.checklists.ListByTeam(c.UserContext(), team)
	} else {
		items, err = h.checklists.ListTeamBoard(c.UserContext(), team)
	}
	if err != nil {
		return err
	}
	return c.JSON(dto.NewChecklistResponses(items))
}

// UpdateStatus handles PUT /checklists/:id/:assignedTeam.
func (h *ChecklistHandler) UpdateStatus(c *fiber.Ctx) error {
	var req dto.ChecklistStatusRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	item, err := h.checklists.UpdateStatus(requestContext(c), c.Params("id"), c.Params("assignedTeam"), domain.ChecklistStatus(req.Status))
	if err != nil {
		return err
	}
	return c.JSON(dto.ChecklistEnvelope{Message: "Checklist updated successfully", Checklist: dto.NewChecklistResponse(*item)})
}

// UpdateContent handles PUT /checklists/:id/:assignedTeam/edit.
func (h *ChecklistHandler) UpdateContent(c *fiber.Ctx) error {
	var req dto.ChecklistContentRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	item, err := h.checklists.UpdateContent(requestContext(c), c.Params("id"), c.Params("assignedTeam"), req.Title, req.Description)
	if err != nil {
		return err
	}
	return c.JSON(dto.ChecklistEnvelope{Message: "Checklist updated successfully", Checklist: dto.NewChecklistResponse(*item)})
}

// Delete handles DELETE /checklists/:id/:assignedTeam.
func (h *ChecklistHandler) Delete(c *fiber.Ctx) error {
	if err := h.checklists.Delete(requestContext(c), c.Params("id"), c.Params("assignedTeam")); err != nil {
		return err
	}
	return c.JSON(dto.MessageResponse{Message: "Checklist deleted successfully"})
}
