package entity

import (
	"time"

	"taxii-services/pkg/taxii/binding"

	"github.com/google/uuid"
)

type CollectionType string

const (
	CollectionTypeDataFeed CollectionType = "DATA_FEED"
	CollectionTypeDataSet  CollectionType = "DATA_SET"
)

type Collection struct {
	Id               uuid.UUID
	Name             string
	Description      string
	Type             CollectionType
	Queryable        bool
	Enabled          bool
	SupportedContent binding.SupportedContent
	CreatedAt        time.Time
	UpdatedAt        *time.Time
}
