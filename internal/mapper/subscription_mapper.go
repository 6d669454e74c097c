package mapper

import (
	"time"

	"taxii-services/internal/entity"
	"taxii-services/internal/model"

	"gorm.io/datatypes"
)

type SubscriptionMapper struct{}

func NewSubscriptionMapper() *SubscriptionMapper {
	return &SubscriptionMapper{}
}

func (m *SubscriptionMapper) ToEntity(s *model.Subscription) *entity.Subscription {
	if s == nil {
		return nil
	}

	var updatedAt *time.Time
	if !s.UpdatedAt.IsZero() {
		t := s.UpdatedAt
		updatedAt = &t
	}

	var push *entity.PushParameters
	if p := s.PushParameters.Data(); p != nil {
		push = &entity.PushParameters{
			ProtocolBinding: p.ProtocolBinding,
			Address:         p.Address,
			MessageBinding:  p.MessageBinding,
		}
	}

	return &entity.Subscription{
		Id:              s.Id,
		SubscriptionId:  s.SubscriptionId,
		CollectionName:  s.CollectionName,
		ServicePath:     s.ServicePath,
		Status:          entity.SubscriptionStatus(s.Status),
		ResponseType:    s.ResponseType,
		ContentBindings: s.ContentBindings,
		Query:           s.Query.Data(),
		PushParameters:  push,
		Subscriber:      s.Subscriber,
		CreatedAt:       s.CreatedAt,
		UpdatedAt:       updatedAt,
	}
}

func (m *SubscriptionMapper) ToModel(s *entity.Subscription) *model.Subscription {
	if s == nil {
		return nil
	}

	var updatedAt time.Time
	if s.UpdatedAt != nil {
		updatedAt = *s.UpdatedAt
	}

	var push *model.PushParameters
	if s.PushParameters != nil {
		push = &model.PushParameters{
			ProtocolBinding: s.PushParameters.ProtocolBinding,
			Address:         s.PushParameters.Address,
			MessageBinding:  s.PushParameters.MessageBinding,
		}
	}

	return &model.Subscription{
		Id:              s.Id,
		SubscriptionId:  s.SubscriptionId,
		CollectionName:  s.CollectionName,
		ServicePath:     s.ServicePath,
		Status:          string(s.Status),
		ResponseType:    s.ResponseType,
		ContentBindings: s.ContentBindings,
		Query:           datatypes.NewJSONType(s.Query),
		PushParameters:  datatypes.NewJSONType(push),
		Subscriber:      s.Subscriber,
		CreatedAt:       s.CreatedAt,
		UpdatedAt:       updatedAt,
	}
}

func (m *SubscriptionMapper) ToEntities(subs []*model.Subscription) []*entity.Subscription {
	entities := make([]*entity.Subscription, len(subs))
	for i, s := range subs {
		entities[i] = m.ToEntity(s)
	}
	return entities
}
