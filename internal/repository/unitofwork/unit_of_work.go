package unitofwork

import (
	"context"

	"taxii-services/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	ServiceRepository() contract.ServiceRepository
	CollectionRepository() contract.CollectionRepository
	ContentBlockRepository() contract.ContentBlockRepository
	ResultSetRepository() contract.ResultSetRepository
	InboxMessageRepository() contract.InboxMessageRepository
	SubscriptionRepository() contract.SubscriptionRepository
	BindingIdRepository() contract.BindingIdRepository
}
