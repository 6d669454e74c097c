package mapper

import (
	"time"

	"taxii-services/internal/entity"
	"taxii-services/internal/model"

	"gorm.io/datatypes"
)

type CollectionMapper struct{}

func NewCollectionMapper() *CollectionMapper {
	return &CollectionMapper{}
}

func (m *CollectionMapper) ToEntity(c *model.Collection) *entity.Collection {
	if c == nil {
		return nil
	}

	var updatedAt *time.Time
	if !c.UpdatedAt.IsZero() {
		t := c.UpdatedAt
		updatedAt = &t
	}

	return &entity.Collection{
		Id:               c.Id,
		Name:             c.Name,
		Description:      c.Description,
		Type:             entity.CollectionType(c.Type),
		Queryable:        c.Queryable,
		Enabled:          c.Enabled,
		SupportedContent: c.SupportedContent.Data(),
		CreatedAt:        c.CreatedAt,
		UpdatedAt:        updatedAt,
	}
}

func (m *CollectionMapper) ToModel(c *entity.Collection) *model.Collection {
	if c == nil {
		return nil
	}

	var updatedAt time.Time
	if c.UpdatedAt != nil {
		updatedAt = *c.UpdatedAt
	}

	return &model.Collection{
		Id:               c.Id,
		Name:             c.Name,
		Description:      c.Description,
		Type:             string(c.Type),
		Queryable:        c.Queryable,
		Enabled:          c.Enabled,
		SupportedContent: datatypes.NewJSONType(c.SupportedContent),
		CreatedAt:        c.CreatedAt,
		UpdatedAt:        updatedAt,
	}
}

func (m *CollectionMapper) ToEntities(collections []*model.Collection) []*entity.Collection {
	entities := make([]*entity.Collection, len(collections))
	for i, c := range collections {
		entities[i] = m.ToEntity(c)
	}
	return entities
}
