package entity

import (
	"time"

	"github.com/google/uuid"
)

// ResultSet is the snapshot of an asynchronous poll, consumed once.
type ResultSet struct {
	Id              string
	CollectionName  string
	ServicePath     string
	ContentBlockIds []uuid.UUID
	ResponseType    string
	BeginTimestamp  *time.Time
	EndTimestamp    time.Time
	SubscriptionId  string
	CreatedAt       time.Time
	ExpiresAt       time.Time
}
