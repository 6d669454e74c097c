package mapper

import (
	"taxii-services/internal/entity"
	"taxii-services/internal/model"
)

type InboxMessageMapper struct{}

func NewInboxMessageMapper() *InboxMessageMapper {
	return &InboxMessageMapper{}
}

func (m *InboxMessageMapper) ToEntity(r *model.InboxMessage) *entity.InboxMessageRecord {
	if r == nil {
		return nil
	}
	return &entity.InboxMessageRecord{
		Id:                     r.Id,
		MessageId:              r.MessageId,
		ServicePath:            r.ServicePath,
		SourceIp:               r.SourceIp,
		Submitter:              r.Submitter,
		ResultId:               r.ResultId,
		RecordCount:            r.RecordCount,
		PartialCount:           r.PartialCount,
		BlockCountDeclared:     r.BlockCountDeclared,
		BlockCountAccepted:     r.BlockCountAccepted,
		DestinationCollections: r.DestinationCollections,
		ReceivedAt:             r.ReceivedAt,
	}
}

func (m *InboxMessageMapper) ToModel(r *entity.InboxMessageRecord) *model.InboxMessage {
	if r == nil {
		return nil
	}
	return &model.InboxMessage{
		Id:                     r.Id,
		MessageId:              r.MessageId,
		ServicePath:            r.ServicePath,
		SourceIp:               r.SourceIp,
		Submitter:              r.Submitter,
		ResultId:               r.ResultId,
		RecordCount:            r.RecordCount,
		PartialCount:           r.PartialCount,
		BlockCountDeclared:     r.BlockCountDeclared,
		BlockCountAccepted:     r.BlockCountAccepted,
		DestinationCollections: r.DestinationCollections,
		ReceivedAt:             r.ReceivedAt,
	}
}
