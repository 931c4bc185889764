package domain

import "time"

// ChecklistStatus is the kanban column of a checklist item.
type ChecklistStatus string

const (
	StatusBacklog    ChecklistStatus = "Backlog"
	StatusTodo       ChecklistStatus = "Todo"
	StatusInProgress ChecklistStatus = "In progress"
	StatusInReview   ChecklistStatus = "In review"
	StatusDone       ChecklistStatus = "Done"
)

// ChecklistStatuses lists the board columns in display order.
var ChecklistStatuses = []ChecklistStatus{
	StatusBacklog,
	StatusTodo,
	StatusInProgress,
	StatusInReview,
	StatusDone,
}

// Valid reports whether s is one of the five board columns.
func (s ChecklistStatus) Valid() bool {
	for _, known := range ChecklistStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// ChecklistItem is a card on a team's board. Identity is (ID, AssignedTeam).
type ChecklistItem struct {
	ID           string
	Title        string
	Description  string
	AssignedTeam string
	Status       ChecklistStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Submitted    bool
	SubmittedAt  *time.Time
}

// SubmissionOutcome is the per-item result of a team submission.
type SubmissionOutcome string

const (
	OutcomeSubmitted        SubmissionOutcome = "submitted"
	OutcomeAlreadySubmitted SubmissionOutcome = "already_submitted"
	OutcomeFailed           SubmissionOutcome = "failed"
)

// SubmissionResult records what happened to one selected item.
type SubmissionResult struct {
	ID           string
	AssignedTeam string
	Outcome      SubmissionOutcome
	Err          error
}

// SubmissionReport summarizes a submitTeam call. Items holds the records that
// were marked submitted by this call, with their new submission fields.
type SubmissionReport struct {
	Team    string
	Items   []ChecklistItem
	Results []SubmissionResult
}

// Count returns how many results ended with the given outcome.
func (r *SubmissionReport) Count(outcome SubmissionOutcome) int {
	n := 0
	for _, res := range r.Results {
		if res.Outcome == outcome {
			n++
		}
	}
	return n
}
