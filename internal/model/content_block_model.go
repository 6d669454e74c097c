package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type ContentBlock struct {
	Id              uuid.UUID                   `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Payload         string                      `gorm:"type:text;not null"`
	ContentBinding  string                      `gorm:"type:varchar(255);not null;index"`
	Subtypes        datatypes.JSONSlice[string] `gorm:"type:jsonb"`
	TimestampLabel  time.Time                   `gorm:"not null;index"`
	Padding         string                      `gorm:"type:text"`
	Message         string                      `gorm:"type:text"`
	Submitter       string                      `gorm:"type:varchar(255)"`
	OriginMessageId string                      `gorm:"type:varchar(255);index"`
	InboxMessageId  *uuid.UUID                  `gorm:"type:uuid;index"`
	CreatedAt       time.Time                   `gorm:"autoCreateTime"`
}

func (ContentBlock) TableName() string {
	return "content_blocks"
}
