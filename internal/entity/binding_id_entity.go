package entity

import (
	"github.com/google/uuid"
)

type BindingId struct {
	Id          uuid.UUID
	Category    string
	Value       string
	Title       string
	Description string
}
