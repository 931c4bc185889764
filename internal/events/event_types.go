package events

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/planmeet/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventChecklistCreated       EventType = "checklist_created"
	EventChecklistStatusChanged EventType = "checklist_status_changed"
	EventChecklistUpdated       EventType = "checklist_updated"
	EventChecklistDeleted       EventType = "checklist_deleted"
	EventChecklistsSubmitted    EventType = "checklists_submitted"
)

// Actor identifies who triggered an event.
type Actor struct {
	Subject  string `json:"subject,omitempty"`
	Username string `json:"username,omitempty"`
	Team     string `json:"team,omitempty"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID           string    `json:"id"`
	Type         EventType `json:"type"`
	ChecklistID  string    `json:"checklist_id,omitempty"`
	AssignedTeam string    `json:"assigned_team"`
	Actor        Actor     `json:"actor"`
	Timestamp    time.Time `json:"timestamp"`
	Payload      any       `json:"payload,omitempty"`
}

// NewEvent stamps an event with a fresh id and the actor carried by ctx.
func NewEvent(ctx context.Context, eventType EventType, checklistID, team string, at time.Time, payload any) Event {
	return Event{
		ID:           uuid.NewString(),
		Type:         eventType,
		ChecklistID:  checklistID,
		AssignedTeam: team,
		Actor:        ActorFromContext(ctx),
		Timestamp:    at,
		Payload:      payload,
	}
}

// ChecklistCreatedPayload payload.
type ChecklistCreatedPayload struct {
	Title  string                 `json:"title"`
	Status domain.ChecklistStatus `json:"status"`
}

// ChecklistStatusChangedPayload payload.
type ChecklistStatusChangedPayload struct {
	NewStatus domain.ChecklistStatus `json:"new_status"`
}

// ChecklistUpdatedPayload payload.
type ChecklistUpdatedPayload struct {
	Title     string `json:"title"`
	Submitted bool   `json:"submitted"`
}

// ChecklistsSubmittedPayload payload.
type ChecklistsSubmittedPayload struct {
	SubmittedIDs     []string `json:"submitted_ids"`
	AlreadySubmitted int      `json:"already_submitted"`
	Failed           int      `json:"failed"`
}

type actorKey struct{}

// ContextWithActor attaches the acting identity to ctx.
func ContextWithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFromContext returns the actor attached by ContextWithActor, or the zero Actor.
func ActorFromContext(ctx context.Context) Actor {
	actor, _ := ctx.Value(actorKey{}).(Actor)
	return actor
}
