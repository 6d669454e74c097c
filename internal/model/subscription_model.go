package model

import (
	"time"

	"taxii-services/pkg/taxii/binding"
	"taxii-services/pkg/taxii/query"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type PushParameters struct {
	ProtocolBinding string `json:"protocol_binding"`
	Address         string `json:"address"`
	MessageBinding  string `json:"message_binding"`
}

type Subscription struct {
	Id              uuid.UUID                                      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SubscriptionId  string                                         `gorm:"type:varchar(255);uniqueIndex;not null"`
	CollectionName  string                                         `gorm:"type:varchar(255);not null;index"`
	ServicePath     string                                         `gorm:"type:varchar(255)"`
	Status          string                                         `gorm:"type:varchar(20);not null"`
	ResponseType    string                                         `gorm:"type:varchar(20)"`
	ContentBindings datatypes.JSONSlice[binding.ContentDescriptor] `gorm:"type:jsonb"`
	Query           datatypes.JSONType[*query.Query]               `gorm:"type:jsonb"`
	PushParameters  datatypes.JSONType[*PushParameters]            `gorm:"type:jsonb"`
	Subscriber      string                                         `gorm:"type:varchar(255)"`
	CreatedAt       time.Time                                      `gorm:"autoCreateTime"`
	UpdatedAt       time.Time                                      `gorm:"autoUpdateTime"`
}

func (Subscription) TableName() string {
	return "subscriptions"
}
