package contract

import (
	"context"

	"taxii-services/internal/entity"
)

type CollectionRepository interface {
	Create(ctx context.Context, collection *entity.Collection) error
	Update(ctx context.Context, collection *entity.Collection) error
	FindByName(ctx context.Context, name string) (*entity.Collection, error)
	FindByNames(ctx context.Context, names []string) ([]*entity.Collection, error)
}
