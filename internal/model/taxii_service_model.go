package model

import (
	"time"

	"taxii-services/pkg/taxii/binding"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Service struct {
	Id                          uuid.UUID                                    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Path                        string                                       `gorm:"type:varchar(255);uniqueIndex;not null"`
	Kind                        string                                       `gorm:"type:varchar(50);not null"`
	Description                 string                                       `gorm:"type:text"`
	Enabled                     bool                                         `gorm:"default:true"`
	ProtocolBindings            datatypes.JSONSlice[string]                  `gorm:"type:jsonb"`
	MessageBindings             datatypes.JSONSlice[string]                  `gorm:"type:jsonb"`
	DestinationCollectionStatus string                                       `gorm:"type:varchar(20)"`
	SupportedContent            datatypes.JSONType[binding.SupportedContent] `gorm:"type:jsonb"`
	CollectionNames             datatypes.JSONSlice[string]                  `gorm:"type:jsonb"`
	CreatedAt                   time.Time                                    `gorm:"autoCreateTime"`
	UpdatedAt                   time.Time                                    `gorm:"autoUpdateTime"`
}

func (Service) TableName() string {
	return "taxii_services"
}
