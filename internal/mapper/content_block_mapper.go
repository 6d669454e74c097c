package mapper

import (
	"taxii-services/internal/entity"
	"taxii-services/internal/model"
)

type ContentBlockMapper struct{}

func NewContentBlockMapper() *ContentBlockMapper {
	return &ContentBlockMapper{}
}

func (m *ContentBlockMapper) ToEntity(b *model.ContentBlock) *entity.ContentBlock {
	if b == nil {
		return nil
	}
	return &entity.ContentBlock{
		Id:              b.Id,
		Payload:         b.Payload,
		ContentBinding:  b.ContentBinding,
		Subtypes:        b.Subtypes,
		TimestampLabel:  b.TimestampLabel,
		Padding:         b.Padding,
		Message:         b.Message,
		Submitter:       b.Submitter,
		OriginMessageId: b.OriginMessageId,
		InboxMessageId:  b.InboxMessageId,
		CreatedAt:       b.CreatedAt,
	}
}

func (m *ContentBlockMapper) ToModel(b *entity.ContentBlock) *model.ContentBlock {
	if b == nil {
		return nil
	}
	return &model.ContentBlock{
		Id:              b.Id,
		Payload:         b.Payload,
		ContentBinding:  b.ContentBinding,
		Subtypes:        b.Subtypes,
		TimestampLabel:  b.TimestampLabel,
		Padding:         b.Padding,
		Message:         b.Message,
		Submitter:       b.Submitter,
		OriginMessageId: b.OriginMessageId,
		InboxMessageId:  b.InboxMessageId,
		CreatedAt:       b.CreatedAt,
	}
}

func (m *ContentBlockMapper) ToEntities(blocks []*model.ContentBlock) []*entity.ContentBlock {
	entities := make([]*entity.ContentBlock, len(blocks))
	for i, b := range blocks {
		entities[i] = m.ToEntity(b)
	}
	return entities
}
