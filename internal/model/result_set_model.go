package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type ResultSet struct {
	Id              string                         `gorm:"type:varchar(64);primaryKey"`
	CollectionName  string                         `gorm:"type:varchar(255);not null"`
	ServicePath     string                         `gorm:"type:varchar(255)"`
	ContentBlockIds datatypes.JSONSlice[uuid.UUID] `gorm:"type:jsonb"`
	ResponseType    string                         `gorm:"type:varchar(20)"`
	BeginTimestamp  *time.Time
	EndTimestamp    time.Time `gorm:"not null"`
	SubscriptionId  string    `gorm:"type:varchar(255)"`
	CreatedAt       time.Time `gorm:"autoCreateTime"`
	ExpiresAt       time.Time `gorm:"not null;index"`
}

func (ResultSet) TableName() string {
	return "result_sets"
}
