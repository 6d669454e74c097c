package service

import (
	"context"
	"encoding/json"

	"taxii-services/internal/pkg/logger"
	"taxii-services/pkg/events"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

// EventsTopic is the in-process watermill topic for domain events.
const EventsTopic = "taxii.events"

// EventPublisher is the external event bus. *nats.Publisher satisfies it.
type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

// IPublisherService fans domain events out to the in-process topic (consumed
// by the volume counter) and, when configured, to the external bus.
type IPublisherService interface {
	Publish(ctx context.Context, event events.Event)
}

type publisherService struct {
	topicName string
	pubSub    message.Publisher
	external  EventPublisher
	logger    logger.ILogger
}

// NewPublisherService accepts a nil external publisher when NATS is not configured.
func NewPublisherService(topicName string, pubSub message.Publisher, external EventPublisher, log logger.ILogger) IPublisherService {
	return &publisherService{
		topicName: topicName,
		pubSub:    pubSub,
		external:  external,
		logger:    log,
	}
}

type eventEnvelope struct {
	Type    string                 `json:"type"`
	Payload map[string]interface{} `json:"payload"`
}

// Publish never fails the caller; delivery problems are logged.
func (p *publisherService) Publish(ctx context.Context, event events.Event) {
	payload, err := json.Marshal(eventEnvelope{Type: event.EventType(), Payload: event.Payload()})
	if err != nil {
		p.logger.Error("Publisher", "Failed to marshal event", map[string]interface{}{"type": event.EventType(), "error": err.Error()})
		return
	}

	if p.pubSub != nil {
		msg := message.NewMessage(watermill.NewUUID(), payload)
		if err := p.pubSub.Publish(p.topicName, msg); err != nil {
			p.logger.Warn("Publisher", "Failed to publish to internal topic", map[string]interface{}{"type": event.EventType(), "error": err.Error()})
		}
	}

	if p.external != nil {
		if err := p.external.Publish(ctx, event); err != nil {
			p.logger.Warn("Publisher", "Failed to publish to NATS", map[string]interface{}{"type": event.EventType(), "error": err.Error()})
		}
	}
}
