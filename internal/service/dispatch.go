package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"legalbridge.app/bridge/common/id"
	"legalbridge.app/bridge/common/logger"
	"legalbridge.app/bridge/internal/dedupe"
	"legalbridge.app/bridge/internal/jira"
	"legalbridge.app/bridge/internal/mapper"
	"legalbridge.app/bridge/internal/model"
	"legalbridge.app/bridge/internal/notion"
	"legalbridge.app/bridge/internal/payload"
	"legalbridge.app/bridge/internal/store"
	"legalbridge.app/bridge/internal/trigger"
)

// Status is the terminal state of a dispatched webhook delivery. The pipeline
// is strictly linear with early-exit branches; no state is revisited.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusNoTrigger Status = "skipped_no_trigger"
	StatusDuplicate Status = "skipped_duplicate"
)

// DispatchResult is returned for every non-error outcome.
type DispatchResult struct {
	Ticket   *model.TicketResult // set when Status == StatusCompleted
	RecordID string
	Status   Status
}

// DispatchService runs the full pipeline for one inbound webhook body:
// validate, evaluate, reserve, map, create, confirm.
type DispatchService interface {
	Dispatch(ctx context.Context, body []byte) (*DispatchResult, error)
}

type dispatchService struct {
	evaluator  *trigger.Evaluator
	mapper     *mapper.TicketMapper
	guard      dedupe.Guard
	tickets    jira.Creator
	source     notion.Source // nil when no source credential is configured
	deliveries store.DeliveryStore
	logger     *slog.Logger
}

func NewDispatchService(
	evaluator *trigger.Evaluator,
	ticketMapper *mapper.TicketMapper,
	guard dedupe.Guard,
	tickets jira.Creator,
	source notion.Source,
	deliveries store.DeliveryStore,
	logger *slog.Logger,
) DispatchService {
	if logger == nil {
		logger = slog.Default()
	}
	return &dispatchService{
		evaluator:  evaluator,
		mapper:     ticketMapper,
		guard:      guard,
		tickets:    tickets,
		source:     source,
		deliveries: deliveries,
		logger:     logger,
	}
}

func (s *dispatchService) Dispatch(ctx context.Context, body []byte) (*DispatchResult, error) {
	notification, err := payload.Validate(body)
	if err != nil {
		s.logger.InfoContext(ctx, "rejected malformed webhook payload", "error", err)
		return nil, err
	}

	deliveryID := id.New()
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		RecordID:   logger.Ptr(notification.RecordID),
		DeliveryID: logger.Ptr(deliveryID),
		Component:  "bridge.service.dispatch",
	})

	decision := s.evaluator.Evaluate(notification)
	if !decision.Matched {
		s.logger.InfoContext(ctx, "status does not match trigger, skipping",
			"status_label", decision.StatusLabel, "trigger_label", s.evaluator.Label())
		s.audit(ctx, &model.Delivery{
			ID:       deliveryID,
			RecordID: notification.RecordID,
			Outcome:  model.OutcomeSkippedNoTrigger,
		})
		return &DispatchResult{Status: StatusNoTrigger, RecordID: notification.RecordID}, nil
	}

	reservation, err := s.guard.CheckAndReserve(ctx, notification.RecordID, s.evaluator.Label())
	if err != nil {
		if errors.Is(err, dedupe.ErrAlreadyProcessed) {
			s.logger.InfoContext(ctx, "duplicate delivery suppressed")
			s.audit(ctx, &model.Delivery{
				ID:       deliveryID,
				RecordID: notification.RecordID,
				Outcome:  model.OutcomeSkippedDuplicate,
			})
			return &DispatchResult{Status: StatusDuplicate, RecordID: notification.RecordID}, nil
		}
		return nil, fmt.Errorf("checking idempotency: %w", err)
	}

	s.enrich(ctx, notification)
	content := s.mapper.Map(notification)

	ticket, err := s.tickets.CreateTicket(ctx, content)
	if err != nil {
		// A failed attempt must stay retryable by a later duplicate delivery,
		// so the reservation is released rather than confirmed. Use a
		// non-cancelable context: the caller may already have given up.
		cleanupCtx := context.WithoutCancel(ctx)
		if releaseErr := reservation.Release(cleanupCtx); releaseErr != nil {
			s.logger.WarnContext(cleanupCtx, "failed to release reservation, will expire on its own",
				"error", releaseErr)
		}
		s.audit(ctx, &model.Delivery{
			ID:       deliveryID,
			RecordID: notification.RecordID,
			Outcome:  model.OutcomeFailed,
			Error:    logger.Ptr(err.Error()),
		})
		return nil, err
	}

	// The ticket definitively exists; confirm even if the request was
	// canceled so the duplicate-suppression window starts.
	confirmCtx := context.WithoutCancel(ctx)
	if err := reservation.Confirm(confirmCtx); err != nil {
		s.logger.WarnContext(confirmCtx, "failed to confirm reservation, duplicate suppression weakened",
			"ticket_key", ticket.Key, "error", err)
	}

	ctx = logger.WithLogFields(ctx, logger.LogFields{TicketKey: logger.Ptr(ticket.Key)})
	s.logger.InfoContext(ctx, "campaign handed off for legal review",
		"summary", content.Summary, "ticket_url", ticket.URL)
	s.audit(ctx, &model.Delivery{
		ID:        deliveryID,
		RecordID:  notification.RecordID,
		Outcome:   model.OutcomeCompleted,
		TicketKey: logger.Ptr(ticket.Key),
	})

	return &DispatchResult{Status: StatusCompleted, RecordID: notification.RecordID, Ticket: ticket}, nil
}

// enrich fills missing reference URLs from the source store. The webhook
// payload stays authoritative; fetched properties only fill gaps, and any
// fetch failure leaves the notification as delivered.
func (s *dispatchService) enrich(ctx context.Context, n *model.Notification) {
	if s.source == nil || hasReferenceURL(n) {
		return
	}

	fetched, err := s.source.FetchProperties(ctx, n.RecordID)
	if err != nil {
		s.logger.WarnContext(ctx, "source enrichment failed, proceeding with payload properties",
			"error", err)
		return
	}

	merged := 0
	for name, prop := range fetched {
		if _, exists := n.Properties[name]; !exists && prop.Kind != model.PropertyKindUnsupported {
			n.Properties[name] = prop
			merged++
		}
	}
	if merged > 0 {
		s.logger.DebugContext(ctx, "merged properties from source store", "count", merged)
	}
}

func hasReferenceURL(n *model.Notification) bool {
	for _, prop := range n.Properties {
		if prop.Kind == model.PropertyKindURL && prop.URL != "" {
			return true
		}
	}
	return false
}

// audit is best-effort: a failed write is logged and swallowed, never
// surfaced to the webhook sender.
func (s *dispatchService) audit(ctx context.Context, delivery *model.Delivery) {
	auditCtx := context.WithoutCancel(ctx)
	if err := s.deliveries.Create(auditCtx, delivery); err != nil {
		s.logger.WarnContext(auditCtx, "failed to write delivery audit record",
			"delivery_id", delivery.ID, "outcome", delivery.Outcome, "error", err)
	}
}
