package entity

import (
	"time"

	"taxii-services/pkg/taxii/binding"
	"taxii-services/pkg/taxii/query"

	"github.com/google/uuid"
)

type SubscriptionStatus string

const (
	SubscriptionStatusActive       SubscriptionStatus = "ACTIVE"
	SubscriptionStatusPaused       SubscriptionStatus = "PAUSED"
	SubscriptionStatusUnsubscribed SubscriptionStatus = "UNSUBSCRIBED"
)

// PushParameters name the inbox a subscriber wants content delivered to.
type PushParameters struct {
	ProtocolBinding string `json:"protocol_binding"`
	Address         string `json:"address"`
	MessageBinding  string `json:"message_binding"`
}

// Subscription is a standing poll against a collection.
type Subscription struct {
	Id              uuid.UUID
	SubscriptionId  string
	CollectionName  string
	ServicePath     string
	Status          SubscriptionStatus
	ResponseType    string
	ContentBindings []binding.ContentDescriptor
	Query           *query.Query
	PushParameters  *PushParameters
	Subscriber      string
	CreatedAt       time.Time
	UpdatedAt       *time.Time
}
