package service

import (
	"context"
	"encoding/json"

	"taxii-services/internal/pkg/logger"
	"taxii-services/pkg/events"
	"taxii-services/pkg/volume"

	"github.com/ThreeDotsLabs/watermill/message"
)

// IConsumerService applies ingestion events to the collection volume counters.
type IConsumerService interface {
	Consume(ctx context.Context) error
}

type consumerService struct {
	subscriber message.Subscriber
	topicName  string
	counter    volume.Counter
	logger     logger.ILogger
}

func NewConsumerService(
	subscriber message.Subscriber,
	topicName string,
	counter volume.Counter,
	log logger.ILogger,
) IConsumerService {
	return &consumerService{
		subscriber: subscriber,
		topicName:  topicName,
		counter:    counter,
		logger:     log,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	msgs, err := cs.subscriber.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range msgs {
			cs.processMessage(ctx, msg)
		}
	}()
	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var envelope eventEnvelope
	if err := json.Unmarshal(msg.Payload, &envelope); err != nil {
		cs.logger.Error("Consumer", "Failed to unmarshal event", map[string]interface{}{"error": err.Error()})
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	if envelope.Type != events.TypeContentIngested || cs.counter == nil {
		msg.Ack()
		return
	}

	accepted, _ := envelope.Payload["accepted"].(map[string]interface{})
	for name, raw := range accepted {
		n, ok := raw.(float64)
		if !ok || n <= 0 {
			continue
		}
		if err := cs.counter.Add(ctx, name, int64(n)); err != nil {
			// Counters are advisory; a stale one is rebuilt from the store on expiry
			cs.logger.Warn("Consumer", "Failed to bump collection volume", map[string]interface{}{
				"collection": name,
				"error":      err.Error(),
			})
		}
	}
	msg.Ack()
}
