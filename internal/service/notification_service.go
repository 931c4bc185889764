package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/planmeet/internal/config"
	"github.com/spec-kit/planmeet/internal/events"
)

const webhookTimeout = 5 * time.Second

// NotificationService logs checklist events and forwards them to the
// configured webhook.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	webhookURL string
	httpClient *http.Client
}

// NewNotificationService creates the service. A nil httpClient uses
// http.DefaultClient.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.NotificationConfig, httpClient *http.Client) *NotificationService {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		webhookURL: strings.TrimSpace(cfg.WebhookURL),
		httpClient: httpClient,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventChecklistCreated, n.handleChecklistCreated)
	n.dispatcher.Subscribe(events.EventChecklistStatusChanged, n.handleChecklistChanged)
	n.dispatcher.Subscribe(events.EventChecklistUpdated, n.handleChecklistChanged)
	n.dispatcher.Subscribe(events.EventChecklistDeleted, n.handleChecklistChanged)
	n.dispatcher.Subscribe(events.EventChecklistsSubmitted, n.handleChecklistsSubmitted)
}

func (n *NotificationService) handleChecklistCreated(ctx context.Context, event events.Event) error {
	n.logger.Info("ChecklistCreated",
		zap.String("checklist_id", event.ChecklistID),
		zap.String("team", event.AssignedTeam),
		zap.Any("payload", event.Payload))
	return n.postWebhook(ctx, event)
}

func (n *NotificationService) handleChecklistChanged(ctx context.Context, event events.Event) error {
	n.logger.Info("ChecklistChanged",
		zap.String("event_type", string(event.Type)),
		zap.String("checklist_id", event.ChecklistID),
		zap.String("team", event.AssignedTeam),
		zap.String("actor", event.Actor.Username))
	return n.postWebhook(ctx, event)
}

func (n *NotificationService) handleChecklistsSubmitted(ctx context.Context, event events.Event) error {
	n.logger.Info("ChecklistsSubmitted",
		zap.String("team", event.AssignedTeam),
		zap.String("actor", event.Actor.Username),
		zap.Any("payload", event.Payload))
	return n.postWebhook(ctx, event)
}

// postWebhook POSTs the event as JSON. It is a no-op without a webhook URL;
// a non-2xx answer is an error for the dispatcher to report.
func (n *NotificationService) postWebhook(ctx context.Context, event events.Event) error {
	if n.webhookURL == "" {
		return nil
	}
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event %s: %w", event.ID, err)
	}

	ctx, cancel := context.WithTimeout(ctx, webhookTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Planmeet-Event", string(event.Type))

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("post webhook: status %d", resp.StatusCode)
	}
	n.logger.Debug("webhook delivered",
		zap.String("event_id", event.ID),
		zap.String("event_type", string(event.Type)))
	return nil
}
