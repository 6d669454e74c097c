package contract

import (
	"context"

	"taxii-services/internal/entity"
)

type BindingIdRepository interface {
	Create(ctx context.Context, id *entity.BindingId) error
	FindAll(ctx context.Context) ([]*entity.BindingId, error)
}
