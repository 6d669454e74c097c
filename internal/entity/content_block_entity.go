package entity

import (
	"time"

	"taxii-services/pkg/taxii/binding"

	"github.com/google/uuid"
)

// ContentBlock is immutable once persisted.
type ContentBlock struct {
	Id             uuid.UUID
	Payload        string
	ContentBinding string
	Subtypes       []string
	TimestampLabel time.Time
	Padding        string
	Message        string

	Submitter       string
	OriginMessageId string
	InboxMessageId  *uuid.UUID

	CreatedAt time.Time
}

func (b *ContentBlock) Descriptor() binding.ContentDescriptor {
	return binding.ContentDescriptor{Binding: b.ContentBinding, Subtypes: b.Subtypes}
}
