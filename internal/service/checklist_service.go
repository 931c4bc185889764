package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/planmeet/internal/auth"
	"github.com/spec-kit/planmeet/internal/domain"
	"github.com/spec-kit/planmeet/internal/events"
	"github.com/spec-kit/planmeet/internal/repository"
	apperrors "github.com/spec-kit/planmeet/pkg/util/errorutil"
)

// SubmissionRecorder receives per-outcome submission counts.
type SubmissionRecorder interface {
	RecordSubmission(outcome string, n int)
}

// ChecklistService coordinates checklist and submission workflows.
type ChecklistService struct {
	checklists repository.ChecklistRepository
	dispatcher events.Dispatcher
	recorder   SubmissionRecorder
	logger     *zap.Logger
	now        func() time.Time
	newID      func() string
}

// ChecklistDependencies bundles collaborators for the checklist service.
type ChecklistDependencies struct {
	ChecklistRepo repository.ChecklistRepository
	Dispatcher    events.Dispatcher
	Recorder      SubmissionRecorder
	Logger        *zap.Logger
	Clock         func() time.Time
	IDGenerator   func() string
}

// ChecklistCreateInput describes checklist creation payload.
type ChecklistCreateInput struct {
	Title        string
	Description  string
	AssignedTeam string
	Status       domain.ChecklistStatus
}

// NewChecklistService constructs the service.
func NewChecklistService(deps ChecklistDependencies) *ChecklistService {
	s := &ChecklistService{
		checklists: deps.ChecklistRepo,
		dispatcher: deps.Dispatcher,
		recorder:   deps.Recorder,
		logger:     deps.Logger,
		now:        deps.Clock,
		newID:      deps.IDGenerator,
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.newID == nil {
		s.newID = uuid.NewString
	}
	return s
}

// Create stores a new unsubmitted item with a generated id.
func (s *ChecklistService) Create(ctx context.Context, input ChecklistCreateInput) (*domain.ChecklistItem, error) {
	input.Title = strings.TrimSpace(input.Title)
	input.AssignedTeam = strings.TrimSpace(input.AssignedTeam)

	missing := map[string]any{}
	if input.Title == "" {
		missing["title"] = "required"
	}
	if input.AssignedTeam == "" {
		missing["assignedTeam"] = "required"
	}
	if input.Status == "" {
		missing["status"] = "required"
	}
	if len(missing) > 0 {
		return nil, apperrors.NewValidationError("title, assignedTeam and status are required", missing)
	}
	if err := validateStatus(input.Status); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	item := &domain.ChecklistItem{
		ID:           s.newID(),
		Title:        input.Title,
		Description:  input.Description,
		AssignedTeam: input.AssignedTeam,
		Status:       input.Status,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.checklists.Create(ctx, item); err != nil {
		return nil, s.storeFailure("failed to create checklist", err)
	}

	s.publish(ctx, events.NewEvent(ctx, events.EventChecklistCreated, item.ID, item.AssignedTeam, now,
		events.ChecklistCreatedPayload{Title: item.Title, Status: item.Status}))
	return item, nil
}

// ListAll returns every item.
func (s *ChecklistService) ListAll(ctx context.Context) ([]domain.ChecklistItem, error) {
	return s.list(ctx, repository.ChecklistFilter{})
}

// ListByTeam returns every item of team, submitted or not.
func (s *ChecklistService) ListByTeam(ctx context.Context, team string) ([]domain.ChecklistItem, error) {
	if err := requireFields(map[string]string{"team": team}); err != nil {
		return nil, err
	}
	return s.list(ctx, repository.ChecklistFilter{Team: &team})
}

// ListTeamBoard returns the team's active board: items not yet submitted.
func (s *ChecklistService) ListTeamBoard(ctx context.Context, team string) ([]domain.ChecklistItem, error) {
	if err := requireFields(map[string]string{"team": team}); err != nil {
		return nil, err
	}
	submitted := false
	return s.list(ctx, repository.ChecklistFilter{Team: &team, Submitted: &submitted})
}

// ListVisibleFor returns everything for administrators and the caller's own
// team otherwise.
func (s *ChecklistService) ListVisibleFor(ctx context.Context, claims *auth.Claims) ([]domain.ChecklistItem, error) {
	if claims == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	if claims.IsAdministrator() {
		return s.ListAll(ctx)
	}
	team := claims.Team()
	if team == "" {
		return nil, apperrors.NewForbidden("user has no assigned team")
	}
	return s.ListByTeam(ctx, team)
}

// UpdateStatus moves an existing item to status.
func (s *ChecklistService) UpdateStatus(ctx context.Context, id, team string, status domain.ChecklistStatus) (*domain.ChecklistItem, error) {
	if err := requireFields(map[string]string{"id": id, "assignedTeam": team, "status": string(status)}); err != nil {
		return nil, err
	}
	if err := validateStatus(status); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	item, err := s.checklists.UpdateStatus(ctx, id, team, status, now)
	if err != nil {
		return nil, s.itemFailure("failed to update checklist status", id, team, err)
	}

	s.publish(ctx, events.NewEvent(ctx, events.EventChecklistStatusChanged, id, team, now,
		events.ChecklistStatusChangedPayload{NewStatus: status}))
	return item, nil
}

// UpdateContent replaces title and description of an existing item.
func (s *ChecklistService) UpdateContent(ctx context.Context, id, team, title, description string) (*domain.ChecklistItem, error) {
	if err := validateContent(id, team, title, description); err != nil {
		return nil, err
	}
	return s.updateContent(ctx, id, team, title, description)
}

// UpdateSubmittedContent edits a submitted item. Unsubmitted items are rejected.
func (s *ChecklistService) UpdateSubmittedContent(ctx context.Context, id, team, title, description string) (*domain.ChecklistItem, error) {
	if err := validateContent(id, team, title, description); err != nil {
		return nil, err
	}
	current, err := s.checklists.Get(ctx, id, team)
	if err != nil {
		return nil, s.itemFailure("failed to load checklist", id, team, err)
	}
	if !current.Submitted {
		return nil, apperrors.NewValidationError(
			"checklist has not been submitted; edit it through /checklists/:id/:assignedTeam/edit",
			map[string]any{"id": id, "assignedTeam": team},
		)
	}
	return s.updateContent(ctx, id, team, title, description)
}

// Delete removes (id, team). Deleting an absent item succeeds.
func (s *ChecklistService) Delete(ctx context.Context, id, team string) error {
	if err := requireFields(map[string]string{"id": id, "assignedTeam": team}); err != nil {
		return err
	}
	if err := s.checklists.Delete(ctx, id, team); err != nil {
		return s.storeFailure("failed to delete checklist", err)
	}
	s.publish(ctx, events.NewEvent(ctx, events.EventChecklistDeleted, id, team, s.now().UTC(), nil))
	return nil
}

// SubmitTeam marks every Done and unsubmitted item of team as submitted. Each
// item is an independent conditional write, so a retry only touches what is
// still unsubmitted. The report lists the outcome of every selected item.
func (s *ChecklistService) SubmitTeam(ctx context.Context, team string) (*domain.SubmissionReport, error) {
	if err := requireFields(map[string]string{"assignedTeam": team}); err != nil {
		return nil, err
	}

	done := domain.StatusDone
	submitted := false
	selected, err := s.list(ctx, repository.ChecklistFilter{Team: &team, Status: &done, Submitted: &submitted})
	if err != nil {
		return nil, err
	}
	if len(selected) == 0 {
		return nil, apperrors.NewNoContent(fmt.Sprintf("no Done checklists to submit for team %s", team))
	}

	now := s.now().UTC()
	report := &domain.SubmissionReport{
		Team:    team,
		Items:   []domain.ChecklistItem{},
		Results: make([]domain.SubmissionResult, 0, len(selected)),
	}
	for _, candidate := range selected {
		result := domain.SubmissionResult{ID: candidate.ID, AssignedTeam: candidate.AssignedTeam}
		item, err := s.checklists.MarkSubmitted(ctx, candidate.ID, candidate.AssignedTeam, now)
		switch {
		case err == nil:
			result.Outcome = domain.OutcomeSubmitted
			report.Items = append(report.Items, *item)
		case errors.Is(err, repository.ErrAlreadySubmitted):
			result.Outcome = domain.OutcomeAlreadySubmitted
		default:
			result.Outcome = domain.OutcomeFailed
			result.Err = err
			s.logger.Warn("checklist submission failed",
				zap.String("id", candidate.ID),
				zap.String("team", team),
				zap.Error(err))
		}
		report.Results = append(report.Results, result)
	}

	counts := map[domain.SubmissionOutcome]int{}
	for _, outcome := range []domain.SubmissionOutcome{domain.OutcomeSubmitted, domain.OutcomeAlreadySubmitted, domain.OutcomeFailed} {
		counts[outcome] = report.Count(outcome)
		if s.recorder != nil {
			s.recorder.RecordSubmission(string(outcome), counts[outcome])
		}
	}
	s.logger.Info("team submission",
		zap.String("team", team),
		zap.Int("selected", len(selected)),
		zap.Int("submitted", counts[domain.OutcomeSubmitted]),
		zap.Int("already_submitted", counts[domain.OutcomeAlreadySubmitted]),
		zap.Int("failed", counts[domain.OutcomeFailed]))

	if counts[domain.OutcomeFailed] == len(selected) {
		return nil, apperrors.NewUpstreamError("failed to submit checklists", report.Results[0].Err, failureDetails(report))
	}

	ids := make([]string, 0, len(report.Items))
	for _, item := range report.Items {
		ids = append(ids, item.ID)
	}
	s.publish(ctx, events.NewEvent(ctx, events.EventChecklistsSubmitted, "", team, now,
		events.ChecklistsSubmittedPayload{
			SubmittedIDs:     ids,
			AlreadySubmitted: counts[domain.OutcomeAlreadySubmitted],
			Failed:           counts[domain.OutcomeFailed],
		}))
	return report, nil
}

// ListSubmitted returns every submitted item.
func (s *ChecklistService) ListSubmitted(ctx context.Context) ([]domain.ChecklistItem, error) {
	submitted := true
	return s.list(ctx, repository.ChecklistFilter{Submitted: &submitted})
}

// ListSubmittedByTeam returns the submitted items of team.
func (s *ChecklistService) ListSubmittedByTeam(ctx context.Context, team string) ([]domain.ChecklistItem, error) {
	if err := requireFields(map[string]string{"team": team}); err != nil {
		return nil, err
	}
	submitted := true
	return s.list(ctx, repository.ChecklistFilter{Team: &team, Submitted: &submitted})
}

// Ready reports whether the backing store answers.
func (s *ChecklistService) Ready(ctx context.Context) error {
	return s.checklists.Ping(ctx)
}

func (s *ChecklistService) updateContent(ctx context.Context, id, team, title, description string) (*domain.ChecklistItem, error) {
	now := s.now().UTC()
	item, err := s.checklists.UpdateContent(ctx, id, team, strings.TrimSpace(title), description, now)
	if err != nil {
		return nil, s.itemFailure("failed to update checklist", id, team, err)
	}
	s.publish(ctx, events.NewEvent(ctx, events.EventChecklistUpdated, id, team, now,
		events.ChecklistUpdatedPayload{Title: item.Title, Submitted: item.Submitted}))
	return item, nil
}

func (s *ChecklistService) list(ctx context.Context, filter repository.ChecklistFilter) ([]domain.ChecklistItem, error) {
	items, err := s.checklists.List(ctx, filter)
	if err != nil {
		return nil, s.storeFailure("failed to fetch checklists", err)
	}
	return items, nil
}

func (s *ChecklistService) itemFailure(message, id, team string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NewNotFound("checklist", map[string]any{"id": id, "assignedTeam": team})
	}
	return s.storeFailure(message, err)
}

func (s *ChecklistService) storeFailure(message string, err error) error {
	s.logger.Error(message, zap.Error(err))
	return apperrors.NewUpstreamError(message, err, nil)
}

func (s *ChecklistService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event handler failed", zap.String("event_type", string(event.Type)), zap.Error(err))
	}
}

func validateStatus(status domain.ChecklistStatus) error {
	if status.Valid() {
		return nil
	}
	allowed := make([]string, len(domain.ChecklistStatuses))
	for i, known := range domain.ChecklistStatuses {
		allowed[i] = string(known)
	}
	return apperrors.NewValidationError("invalid status", map[string]any{"status": string(status), "allowed": allowed})
}

func validateContent(id, team, title, description string) error {
	return requireFields(map[string]string{"id": id, "assignedTeam": team, "title": title, "description": description})
}

func failureDetails(report *domain.SubmissionReport) []map[string]string {
	details := make([]map[string]string, 0, len(report.Results))
	for _, res := range report.Results {
		entry := map[string]string{"id": res.ID, "outcome": string(res.Outcome)}
		if res.Err != nil {
			entry["error"] = res.Err.Error()
		}
		details = append(details, entry)
	}
	return details
}
