package entity

import (
	"time"

	"github.com/google/uuid"
)

// InboxMessageRecord audits one received Inbox_Message.
type InboxMessageRecord struct {
	Id                     uuid.UUID
	MessageId              string
	ServicePath            string
	SourceIp               string
	Submitter              string
	ResultId               string
	RecordCount            *int
	PartialCount           bool
	BlockCountDeclared     int
	BlockCountAccepted     int
	DestinationCollections []string
	ReceivedAt             time.Time
}
