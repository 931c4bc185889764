package repository

import (
	"context"
	"errors"
	"time"

	"github.com/spec-kit/planmeet/internal/domain"
)

var (
	// ErrNotFound is returned when (id, team) does not exist.
	ErrNotFound = errors.New("checklist not found")
	// ErrAlreadySubmitted is returned when a submission write finds the item already submitted.
	ErrAlreadySubmitted = errors.New("checklist already submitted")
)

// ChecklistFilter narrows a scan. Nil fields match everything. Submitted=false
// matches items whose submitted flag is absent or false.
type ChecklistFilter struct {
	Team      *string
	Status    *domain.ChecklistStatus
	Submitted *bool
}

// Matches applies the filter to one item.
func (f ChecklistFilter) Matches(item *domain.ChecklistItem) bool {
	if f.Team != nil && item.AssignedTeam != *f.Team {
		return false
	}
	if f.Status != nil && item.Status != *f.Status {
		return false
	}
	if f.Submitted != nil && item.Submitted != *f.Submitted {
		return false
	}
	return true
}

// ChecklistRepository persists checklist items keyed by (id, assignedTeam).
// Every single-item write is atomic; there are no multi-item transactions.
type ChecklistRepository interface {
	Create(ctx context.Context, item *domain.ChecklistItem) error
	Get(ctx context.Context, id, team string) (*domain.ChecklistItem, error)
	List(ctx context.Context, filter ChecklistFilter) ([]domain.ChecklistItem, error)
	UpdateStatus(ctx context.Context, id, team string, status domain.ChecklistStatus, at time.Time) (*domain.ChecklistItem, error)
	UpdateContent(ctx context.Context, id, team, title, description string, at time.Time) (*domain.ChecklistItem, error)
	Delete(ctx context.Context, id, team string) error
	MarkSubmitted(ctx context.Context, id, team string, at time.Time) (*domain.ChecklistItem, error)
	Ping(ctx context.Context) error
}
