// Package memory is an in-process implementation of the repository contracts,
// used for STORE_DRIVER=memory and in tests.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"taxii-services/internal/entity"
	"taxii-services/internal/repository/contract"
	"taxii-services/internal/repository/unitofwork"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// Store holds every table. A unit of work in a transaction holds mu until
// Commit or Rollback, so transactional work is serialized.
type Store struct {
	mu sync.Mutex

	services      map[string]*entity.Service
	collections   map[string]*entity.Collection
	blocks        map[uuid.UUID]*entity.ContentBlock
	blockOrder    []uuid.UUID
	membership    map[uuid.UUID][]uuid.UUID
	inbox         map[uuid.UUID]*entity.InboxMessageRecord
	inboxKeys     map[string]uuid.UUID
	subscriptions map[string]*entity.Subscription
	bindings      map[string]*entity.BindingId
	resultSets    *cache.Cache

	now func() time.Time
}

func NewStore(resultSetTTL time.Duration) *Store {
	return &Store{
		services:      make(map[string]*entity.Service),
		collections:   make(map[string]*entity.Collection),
		blocks:        make(map[uuid.UUID]*entity.ContentBlock),
		membership:    make(map[uuid.UUID][]uuid.UUID),
		inbox:         make(map[uuid.UUID]*entity.InboxMessageRecord),
		inboxKeys:     make(map[string]uuid.UUID),
		subscriptions: make(map[string]*entity.Subscription),
		bindings:      make(map[string]*entity.BindingId),
		resultSets:    cache.New(resultSetTTL, resultSetTTL),
		now:           time.Now,
	}
}

type RepositoryFactory struct {
	store *Store
}

func NewRepositoryFactory(store *Store) unitofwork.RepositoryFactory {
	return &RepositoryFactory{store: store}
}

func (f *RepositoryFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return &UnitOfWork{store: f.store}
}

// UnitOfWork records an undo log while a transaction is open.
type UnitOfWork struct {
	store *Store
	inTx  bool
	undo  []func()
}

func (u *UnitOfWork) Begin(ctx context.Context) error {
	if u.inTx {
		return fmt.Errorf("transaction already started")
	}
	u.store.mu.Lock()
	u.inTx = true
	u.undo = nil
	return nil
}

func (u *UnitOfWork) Commit() error {
	if !u.inTx {
		return fmt.Errorf("no transaction to commit")
	}
	u.inTx = false
	u.undo = nil
	u.store.mu.Unlock()
	return nil
}

func (u *UnitOfWork) Rollback() error {
	if !u.inTx {
		return fmt.Errorf("no transaction to rollback")
	}
	for i := len(u.undo) - 1; i >= 0; i-- {
		u.undo[i]()
	}
	u.inTx = false
	u.undo = nil
	u.store.mu.Unlock()
	return nil
}

func (u *UnitOfWork) run(fn func() error) error {
	if u.inTx {
		return fn()
	}
	u.store.mu.Lock()
	defer u.store.mu.Unlock()
	return fn()
}

func (u *UnitOfWork) onRollback(fn func()) {
	if u.inTx {
		u.undo = append(u.undo, fn)
	}
}

func (u *UnitOfWork) ServiceRepository() contract.ServiceRepository {
	return &serviceRepository{uow: u}
}

func (u *UnitOfWork) CollectionRepository() contract.CollectionRepository {
	return &collectionRepository{uow: u}
}

func (u *UnitOfWork) ContentBlockRepository() contract.ContentBlockRepository {
	return &contentBlockRepository{uow: u}
}

func (u *UnitOfWork) ResultSetRepository() contract.ResultSetRepository {
	return &resultSetRepository{uow: u}
}

func (u *UnitOfWork) InboxMessageRepository() contract.InboxMessageRepository {
	return &inboxMessageRepository{uow: u}
}

func (u *UnitOfWork) SubscriptionRepository() contract.SubscriptionRepository {
	return &subscriptionRepository{uow: u}
}

func (u *UnitOfWork) BindingIdRepository() contract.BindingIdRepository {
	return &bindingIdRepository{uow: u}
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	return append([]string(nil), in...)
}
