package mapper

import (
	"taxii-services/internal/entity"
	"taxii-services/internal/model"
)

type ResultSetMapper struct{}

func NewResultSetMapper() *ResultSetMapper {
	return &ResultSetMapper{}
}

func (m *ResultSetMapper) ToEntity(r *model.ResultSet) *entity.ResultSet {
	if r == nil {
		return nil
	}
	return &entity.ResultSet{
		Id:              r.Id,
		CollectionName:  r.CollectionName,
		ServicePath:     r.ServicePath,
		ContentBlockIds: r.ContentBlockIds,
		ResponseType:    r.ResponseType,
		BeginTimestamp:  r.BeginTimestamp,
		EndTimestamp:    r.EndTimestamp,
		SubscriptionId:  r.SubscriptionId,
		CreatedAt:       r.CreatedAt,
		ExpiresAt:       r.ExpiresAt,
	}
}

func (m *ResultSetMapper) ToModel(r *entity.ResultSet) *model.ResultSet {
	if r == nil {
		return nil
	}
	return &model.ResultSet{
		Id:              r.Id,
		CollectionName:  r.CollectionName,
		ServicePath:     r.ServicePath,
		ContentBlockIds: r.ContentBlockIds,
		ResponseType:    r.ResponseType,
		BeginTimestamp:  r.BeginTimestamp,
		EndTimestamp:    r.EndTimestamp,
		SubscriptionId:  r.SubscriptionId,
		CreatedAt:       r.CreatedAt,
		ExpiresAt:       r.ExpiresAt,
	}
}
