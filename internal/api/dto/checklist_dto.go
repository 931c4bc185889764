package dto

import (
	"time"

	"github.com/spec-kit/planmeet/internal/domain"
)

// ChecklistCreateRequest payload for POST /checklists.
type ChecklistCreateRequest struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	AssignedTeam string `json:"assignedTeam"`
	Status       string `json:"status"`
}

// ChecklistStatusRequest payload for PUT /checklists/:id/:assignedTeam.
type ChecklistStatusRequest struct {
	Status string `json:"status"`
}

// ChecklistContentRequest payload for the edit endpoints.
type ChecklistContentRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// ChecklistResponse is the public checklist representation.
type ChecklistResponse struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	AssignedTeam string     `json:"assignedTeam"`
	Status       string     `json:"status"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
	Submitted    bool       `json:"submitted"`
	SubmittedAt  *time.Time `json:"submittedAt,omitempty"`
}

// NewChecklistResponse converts a domain item.
func NewChecklistResponse(item domain.ChecklistItem) ChecklistResponse {
	return ChecklistResponse{
		ID:           item.ID,
		Title:        item.Title,
		Description:  item.Description,
		AssignedTeam: item.AssignedTeam,
		Status:       string(item.Status),
		CreatedAt:    item.CreatedAt,
		UpdatedAt:    item.UpdatedAt,
		Submitted:    item.Submitted,
		SubmittedAt:  item.SubmittedAt,
	}
}

// NewChecklistResponses converts a listing; the result is never nil.
func NewChecklistResponses(items []domain.ChecklistItem) []ChecklistResponse {
	out := make([]ChecklistResponse, 0, len(items))
	for _, item := range items {
		out = append(out, NewChecklistResponse(item))
	}
	return out
}

// ChecklistEnvelope wraps a single checklist with a message.
type ChecklistEnvelope struct {
	Message   string            `json:"message"`
	Checklist ChecklistResponse `json:"checklist"`
}

// SubmissionResultResponse describes one selected item's outcome.
type SubmissionResultResponse struct {
	ID           string `json:"id"`
	AssignedTeam string `json:"assignedTeam"`
	Outcome      string `json:"outcome"`
	Error        string `json:"error,omitempty"`
}

// SubmissionResponse is returned by POST /submission/:assignedTeam.
type SubmissionResponse struct {
	Message             string                     `json:"message"`
	SubmittedChecklists []ChecklistResponse        `json:"submittedChecklists"`
	Results             []SubmissionResultResponse `json:"results"`
}

// NewSubmissionResponse converts a report.
func NewSubmissionResponse(message string, report *domain.SubmissionReport) SubmissionResponse {
	results := make([]SubmissionResultResponse, 0, len(report.Results))
	for _, res := range report.Results {
		entry := SubmissionResultResponse{ID: res.ID, AssignedTeam: res.AssignedTeam, Outcome: string(res.Outcome)}
		if res.Err != nil {
			entry.Error = res.Err.Error()
		}
		results = append(results, entry)
	}
	return SubmissionResponse{
		Message:             message,
		SubmittedChecklists: NewChecklistResponses(report.Items),
		Results:             results,
	}
}
