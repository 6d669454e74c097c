package memory

import (
	"context"
	"sort"

	"taxii-services/internal/entity"
	"taxii-services/internal/repository/contract"
	"taxii-services/internal/repository/specification"
	"taxii-services/pkg/taxii/binding"

	"github.com/google/uuid"
)

type contentBlockRepository struct {
	uow *UnitOfWork
}

func cloneBlock(b *entity.ContentBlock) *entity.ContentBlock {
	c := *b
	c.Subtypes = cloneStrings(b.Subtypes)
	return &c
}

func (r *contentBlockRepository) Create(ctx context.Context, block *entity.ContentBlock) error {
	return r.uow.run(func() error {
		st := r.uow.store
		if block.Id == uuid.Nil {
			block.Id = uuid.New()
		}
		if block.CreatedAt.IsZero() {
			block.CreatedAt = st.now()
		}
		st.blocks[block.Id] = cloneBlock(block)
		st.blockOrder = append(st.blockOrder, block.Id)
		id := block.Id
		r.uow.onRollback(func() {
			delete(st.blocks, id)
			st.blockOrder = st.blockOrder[:len(st.blockOrder)-1]
		})
		return nil
	})
}

func (r *contentBlockRepository) Attach(ctx context.Context, collectionId, blockId uuid.UUID) error {
	return r.uow.run(func() error {
		st := r.uow.store
		for _, id := range st.membership[blockId] {
			if id == collectionId {
				return nil
			}
		}
		prev := st.membership[blockId]
		st.membership[blockId] = append(append([]uuid.UUID(nil), prev...), collectionId)
		r.uow.onRollback(func() {
			if prev == nil {
				delete(st.membership, blockId)
				return
			}
			st.membership[blockId] = prev
		})
		return nil
	})
}

func (r *contentBlockRepository) find(specs []specification.ContentBlockSpecification) []*entity.ContentBlock {
	st := r.uow.store
	var out []*entity.ContentBlock
	for _, id := range st.blockOrder {
		b := st.blocks[id]
		collections := st.membership[id]
		matched := true
		for _, spec := range specs {
			if !spec.IsSatisfiedBy(b, collections) {
				matched = false
				break
			}
		}
		if matched {
			out = append(out, cloneBlock(b))
		}
	}

	for _, spec := range specs {
		if o, ok := spec.(specification.ContentBlockOrdering); ok {
			sort.SliceStable(out, func(i, j int) bool { return o.Less(out[i], out[j]) })
		}
	}
	return out
}

func (r *contentBlockRepository) FindAll(ctx context.Context, specs ...specification.ContentBlockSpecification) ([]*entity.ContentBlock, error) {
	var out []*entity.ContentBlock
	err := r.uow.run(func() error {
		out = r.find(specs)
		return nil
	})
	return out, err
}

func (r *contentBlockRepository) Count(ctx context.Context, specs ...specification.ContentBlockSpecification) (int64, error) {
	var n int64
	err := r.uow.run(func() error {
		n = int64(len(r.find(specs)))
		return nil
	})
	return n, err
}

type inboxMessageRepository struct {
	uow *UnitOfWork
}

func inboxKey(servicePath, messageId string) string {
	return servicePath + "|" + messageId
}

func (r *inboxMessageRepository) Create(ctx context.Context, record *entity.InboxMessageRecord) error {
	return r.uow.run(func() error {
		st := r.uow.store
		key := inboxKey(record.ServicePath, record.MessageId)
		if _, ok := st.inboxKeys[key]; ok {
			return contract.ErrDuplicate
		}
		if record.Id == uuid.Nil {
			record.Id = uuid.New()
		}
		if record.ReceivedAt.IsZero() {
			record.ReceivedAt = st.now()
		}
		c := *record
		c.DestinationCollections = cloneStrings(record.DestinationCollections)
		st.inbox[record.Id] = &c
		st.inboxKeys[key] = record.Id
		id := record.Id
		r.uow.onRollback(func() {
			delete(st.inbox, id)
			delete(st.inboxKeys, key)
		})
		return nil
	})
}

func (r *inboxMessageRepository) UpdateAcceptedCount(ctx context.Context, id uuid.UUID, accepted int) error {
	return r.uow.run(func() error {
		rec, ok := r.uow.store.inbox[id]
		if !ok {
			return nil
		}
		prev := rec.BlockCountAccepted
		rec.BlockCountAccepted = accepted
		r.uow.onRollback(func() { rec.BlockCountAccepted = prev })
		return nil
	})
}

func (r *inboxMessageRepository) FindOne(ctx context.Context, servicePath, messageId string) (*entity.InboxMessageRecord, error) {
	var out *entity.InboxMessageRecord
	err := r.uow.run(func() error {
		st := r.uow.store
		if id, ok := st.inboxKeys[inboxKey(servicePath, messageId)]; ok {
			c := *st.inbox[id]
			out = &c
		}
		return nil
	})
	return out, err
}

type subscriptionRepository struct {
	uow *UnitOfWork
}

func cloneSubscription(s *entity.Subscription) *entity.Subscription {
	c := *s
	c.ContentBindings = append([]binding.ContentDescriptor(nil), s.ContentBindings...)
	return &c
}

func (r *subscriptionRepository) Create(ctx context.Context, subscription *entity.Subscription) error {
	return r.uow.run(func() error {
		st := r.uow.store
		if _, ok := st.subscriptions[subscription.SubscriptionId]; ok {
			return contract.ErrDuplicate
		}
		if subscription.Id == uuid.Nil {
			subscription.Id = uuid.New()
		}
		if subscription.CreatedAt.IsZero() {
			subscription.CreatedAt = st.now()
		}
		key := subscription.SubscriptionId
		st.subscriptions[key] = cloneSubscription(subscription)
		r.uow.onRollback(func() { delete(st.subscriptions, key) })
		return nil
	})
}

func (r *subscriptionRepository) Update(ctx context.Context, subscription *entity.Subscription) error {
	return r.uow.run(func() error {
		st := r.uow.store
		key := subscription.SubscriptionId
		prev := st.subscriptions[key]
		now := st.now()
		subscription.UpdatedAt = &now
		st.subscriptions[key] = cloneSubscription(subscription)
		r.uow.onRollback(func() {
			if prev == nil {
				delete(st.subscriptions, key)
				return
			}
			st.subscriptions[key] = prev
		})
		return nil
	})
}

func (r *subscriptionRepository) FindBySubscriptionId(ctx context.Context, subscriptionId string) (*entity.Subscription, error) {
	var out *entity.Subscription
	err := r.uow.run(func() error {
		if s, ok := r.uow.store.subscriptions[subscriptionId]; ok {
			out = cloneSubscription(s)
		}
		return nil
	})
	return out, err
}

// FindBySubscriptionIdForUpdate needs no row lock: a unit of work in a
// transaction already holds the store mutex.
func (r *subscriptionRepository) FindBySubscriptionIdForUpdate(ctx context.Context, subscriptionId string) (*entity.Subscription, error) {
	return r.FindBySubscriptionId(ctx, subscriptionId)
}

func (r *subscriptionRepository) FindAllByCollection(ctx context.Context, collectionName string) ([]*entity.Subscription, error) {
	var out []*entity.Subscription
	err := r.uow.run(func() error {
		for _, s := range r.uow.store.subscriptions {
			if s.CollectionName == collectionName {
				out = append(out, cloneSubscription(s))
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, err
}
