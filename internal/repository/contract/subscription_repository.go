package contract

import (
	"context"

	"taxii-services/internal/entity"
)

type SubscriptionRepository interface {
	Create(ctx context.Context, subscription *entity.Subscription) error
	Update(ctx context.Context, subscription *entity.Subscription) error
	FindBySubscriptionId(ctx context.Context, subscriptionId string) (*entity.Subscription, error)
	// FindBySubscriptionIdForUpdate also locks the row until the surrounding
	// transaction ends.
	FindBySubscriptionIdForUpdate(ctx context.Context, subscriptionId string) (*entity.Subscription, error)
	FindAllByCollection(ctx context.Context, collectionName string) ([]*entity.Subscription, error)
}
