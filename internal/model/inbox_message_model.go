package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type InboxMessage struct {
	Id                     uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	MessageId              string    `gorm:"type:varchar(255);not null;uniqueIndex:idx_inbox_service_message"`
	ServicePath            string    `gorm:"type:varchar(255);not null;uniqueIndex:idx_inbox_service_message"`
	SourceIp               string    `gorm:"type:varchar(64)"`
	Submitter              string    `gorm:"type:varchar(255)"`
	ResultId               string    `gorm:"type:varchar(255)"`
	RecordCount            *int
	PartialCount           bool
	BlockCountDeclared     int                         `gorm:"not null;default:0"`
	BlockCountAccepted     int                         `gorm:"not null;default:0"`
	DestinationCollections datatypes.JSONSlice[string] `gorm:"type:jsonb"`
	ReceivedAt             time.Time                   `gorm:"autoCreateTime"`
}

func (InboxMessage) TableName() string {
	return "inbox_messages"
}
