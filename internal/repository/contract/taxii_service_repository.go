package contract

import (
	"context"

	"taxii-services/internal/entity"
)

type ServiceRepository interface {
	Create(ctx context.Context, service *entity.Service) error
	Update(ctx context.Context, service *entity.Service) error
	FindByPath(ctx context.Context, path string) (*entity.Service, error)
	FindAll(ctx context.Context) ([]*entity.Service, error)
}
