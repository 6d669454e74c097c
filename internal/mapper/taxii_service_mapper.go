package mapper

import (
	"time"

	"taxii-services/internal/entity"
	"taxii-services/internal/model"

	"gorm.io/datatypes"
)

type ServiceMapper struct{}

func NewServiceMapper() *ServiceMapper {
	return &ServiceMapper{}
}

func (m *ServiceMapper) ToEntity(s *model.Service) *entity.Service {
	if s == nil {
		return nil
	}

	var updatedAt *time.Time
	if !s.UpdatedAt.IsZero() {
		t := s.UpdatedAt
		updatedAt = &t
	}

	return &entity.Service{
		Id:                          s.Id,
		Path:                        s.Path,
		Kind:                        entity.ServiceKind(s.Kind),
		Description:                 s.Description,
		Enabled:                     s.Enabled,
		ProtocolBindings:            s.ProtocolBindings,
		MessageBindings:             s.MessageBindings,
		DestinationCollectionStatus: entity.DestinationCollectionStatus(s.DestinationCollectionStatus),
		SupportedContent:            s.SupportedContent.Data(),
		CollectionNames:             s.CollectionNames,
		CreatedAt:                   s.CreatedAt,
		UpdatedAt:                   updatedAt,
	}
}

func (m *ServiceMapper) ToModel(s *entity.Service) *model.Service {
	if s == nil {
		return nil
	}

	var updatedAt time.Time
	if s.UpdatedAt != nil {
		updatedAt = *s.UpdatedAt
	}

	return &model.Service{
		Id:                          s.Id,
		Path:                        s.Path,
		Kind:                        string(s.Kind),
		Description:                 s.Description,
		Enabled:                     s.Enabled,
		ProtocolBindings:            s.ProtocolBindings,
		MessageBindings:             s.MessageBindings,
		DestinationCollectionStatus: string(s.DestinationCollectionStatus),
		SupportedContent:            datatypes.NewJSONType(s.SupportedContent),
		CollectionNames:             s.CollectionNames,
		CreatedAt:                   s.CreatedAt,
		UpdatedAt:                   updatedAt,
	}
}

func (m *ServiceMapper) ToEntities(services []*model.Service) []*entity.Service {
	entities := make([]*entity.Service, len(services))
	for i, s := range services {
		entities[i] = m.ToEntity(s)
	}
	return entities
}
