package model

import (
	"time"

	"taxii-services/pkg/taxii/binding"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Collection struct {
	Id               uuid.UUID                                    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name             string                                       `gorm:"type:varchar(255);uniqueIndex;not null"`
	Description      string                                       `gorm:"type:text"`
	Type             string                                       `gorm:"type:varchar(20);not null;default:'DATA_FEED'"`
	Queryable        bool                                         `gorm:"default:false"`
	Enabled          bool                                         `gorm:"default:true"`
	SupportedContent datatypes.JSONType[binding.SupportedContent] `gorm:"type:jsonb"`
	CreatedAt        time.Time                                    `gorm:"autoCreateTime"`
	UpdatedAt        time.Time                                    `gorm:"autoUpdateTime"`
}

func (Collection) TableName() string {
	return "collections"
}

// CollectionContentBlock is the append-only membership of a block in a collection.
type CollectionContentBlock struct {
	CollectionId   uuid.UUID `gorm:"type:uuid;primaryKey"`
	ContentBlockId uuid.UUID `gorm:"type:uuid;primaryKey;index"`
	CreatedAt      time.Time `gorm:"autoCreateTime"`
}

func (CollectionContentBlock) TableName() string {
	return "collection_content_blocks"
}
