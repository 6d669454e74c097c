package model

import (
	"github.com/google/uuid"
)

type BindingId struct {
	Id          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Category    string    `gorm:"type:varchar(20);not null;uniqueIndex:idx_binding_category_value"`
	Value       string    `gorm:"type:varchar(255);not null;uniqueIndex:idx_binding_category_value"`
	Title       string    `gorm:"type:varchar(255)"`
	Description string    `gorm:"type:text"`
}

func (BindingId) TableName() string {
	return "binding_ids"
}
