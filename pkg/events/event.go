package events

import "time"

const (
	TypeContentIngested     = "CONTENT_INGESTED"
	TypeSubscriptionChanged = "SUBSCRIPTION_CHANGED"
)

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "CONTENT_INGESTED").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

// ContentIngested reports how many blocks an inbox message added to each
// collection. accepted is keyed by collection name.
func ContentIngested(servicePath, messageId string, accepted map[string]int, at time.Time) BaseEvent {
	counts := make(map[string]interface{}, len(accepted))
	for name, n := range accepted {
		counts[name] = n
	}
	return BaseEvent{
		Type: TypeContentIngested,
		Data: map[string]interface{}{
			"service_path": servicePath,
			"message_id":   messageId,
			"accepted":     counts,
			"occurred_at":  at.Format(time.RFC3339Nano),
		},
		OccurredAt: at,
	}
}

func SubscriptionChanged(subscriptionId, collectionName, action, status string, at time.Time) BaseEvent {
	return BaseEvent{
		Type: TypeSubscriptionChanged,
		Data: map[string]interface{}{
			"subscription_id": subscriptionId,
			"collection_name": collectionName,
			"action":          action,
			"status":          status,
			"occurred_at":     at.Format(time.RFC3339Nano),
		},
		OccurredAt: at,
	}
}
