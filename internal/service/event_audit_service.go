package service

import (
	"context"

	"taxii-services/internal/pkg/logger"
	"taxii-services/pkg/events"
	pktNats "taxii-services/pkg/nats"
)

// EventSubscriber is the durable consumer side of the external event bus.
type EventSubscriber interface {
	Subscribe(ctx context.Context, subject, durableName string, handler pktNats.EventHandler) error
}

// IEventAuditService writes every domain event seen on the bus to the audit log.
type IEventAuditService interface {
	Start(ctx context.Context) error
}

type eventAuditService struct {
	subscriber EventSubscriber
	audit      logger.ILogger
}

const eventAuditDurable = "taxii-event-audit"

func NewEventAuditService(subscriber EventSubscriber, audit logger.ILogger) IEventAuditService {
	return &eventAuditService{subscriber: subscriber, audit: audit}
}

func (s *eventAuditService) Start(ctx context.Context) error {
	return s.subscriber.Subscribe(ctx, pktNats.SubjectPrefix+">", eventAuditDurable, s.record)
}

func (s *eventAuditService) record(_ context.Context, event events.Event) error {
	details := map[string]interface{}{
		"event":       event.EventType(),
		"occurred_at": event.Timestamp(),
	}
	for k, v := range event.Payload() {
		if k == "occurred_at" {
			continue
		}
		details[k] = v
	}
	s.audit.Info("Events", "Domain event received", details)
	return nil
}
