package handlers

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/planmeet/internal/api/dto"
	"github.com/spec-kit/planmeet/internal/domain"
	"github.com/spec-kit/planmeet/internal/service"
)

// SubmissionHandler exposes the submission workflow.
type SubmissionHandler struct {
	checklists *service.ChecklistService
}

// NewSubmissionHandler constructs handler.
func NewSubmissionHandler(checklists *service.ChecklistService) *SubmissionHandler {
	return &SubmissionHandler{checklists: checklists}
}

// Submit handles POST /submission/:assignedTeam.
func (h *SubmissionHandler) Submit(c *fiber.Ctx) error {
	report, err := h.checklists.SubmitTeam(requestContext(c), c.Params("assignedTeam"))
	if err != nil {
		return err
	}

	message := "All 'Done' checklists submitted successfully!"
	if n := len(report.Results) - report.Count(domain.OutcomeSubmitted); n > 0 {
		message = fmt.Sprintf("%d of %d 'Done' checklists submitted", report.Count(domain.OutcomeSubmitted), len(report.Results))
	}
	return c.JSON(dto.NewSubmissionResponse(message, report))
}

// ListAll handles GET /submissions.
func (h *SubmissionHandler) ListAll(c *fiber.Ctx) error {
	items, err := h.checklists.ListSubmitted(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(dto.NewChecklistResponses(items))
}

// ListTeam handles GET /submissions/:assignedTeam.
func (h *SubmissionHandler) ListTeam(c *fiber.Ctx) error {
	items, err := h.checklists.ListSubmittedByTeam(c.UserContext(), c.Params("assignedTeam"))
	if err != nil {
		return err
	}
	return c.JSON(dto.NewChecklistResponses(items))
}

// UpdateContent handles PUT /submissions/:id/:assignedTeam/edit.
func (h *SubmissionHandler) UpdateContent(c *fiber.Ctx) error {
	var req dto.ChecklistContentRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	item, err := h.checklists.UpdateSubmittedContent(requestContext(c), c.Params("id"), c.Params("assignedTeam"), req.Title, req.Description)
	if err != nil {
		return err
	}
	return c.JSON(dto.ChecklistEnvelope{Message: "Checklist updated successfully", Checklist: dto.NewChecklistResponse(*item)})
}
