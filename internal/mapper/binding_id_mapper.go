package mapper

import (
	"taxii-services/internal/entity"
	"taxii-services/internal/model"
)

type BindingIdMapper struct{}

func NewBindingIdMapper() *BindingIdMapper {
	return &BindingIdMapper{}
}

func (m *BindingIdMapper) ToEntity(b *model.BindingId) *entity.BindingId {
	if b == nil {
		return nil
	}
	return &entity.BindingId{
		Id:          b.Id,
		Category:    b.Category,
		Value:       b.Value,
		Title:       b.Title,
		Description: b.Description,
	}
}

func (m *BindingIdMapper) ToModel(b *entity.BindingId) *model.BindingId {
	if b == nil {
		return nil
	}
	return &model.BindingId{
		Id:          b.Id,
		Category:    b.Category,
		Value:       b.Value,
		Title:       b.Title,
		Description: b.Description,
	}
}

func (m *BindingIdMapper) ToEntities(ids []*model.BindingId) []*entity.BindingId {
	entities := make([]*entity.BindingId, len(ids))
	for i, b := range ids {
		entities[i] = m.ToEntity(b)
	}
	return entities
}
