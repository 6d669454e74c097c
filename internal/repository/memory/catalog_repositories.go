package memory

import (
	"context"
	"sort"

	"taxii-services/internal/entity"
	"taxii-services/internal/repository/contract"

	"github.com/google/uuid"
)

type serviceRepository struct {
	uow *UnitOfWork
}

func cloneService(s *entity.Service) *entity.Service {
	c := *s
	c.ProtocolBindings = cloneStrings(s.ProtocolBindings)
	c.MessageBindings = cloneStrings(s.MessageBindings)
	c.CollectionNames = cloneStrings(s.CollectionNames)
	return &c
}

func (r *serviceRepository) Create(ctx context.Context, service *entity.Service) error {
	return r.uow.run(func() error {
		st := r.uow.store
		if _, ok := st.services[service.Path]; ok {
			return contract.ErrDuplicate
		}
		if service.Id == uuid.Nil {
			service.Id = uuid.New()
		}
		if service.CreatedAt.IsZero() {
			service.CreatedAt = st.now()
		}
		st.services[service.Path] = cloneService(service)
		r.uow.onRollback(func() { delete(st.services, service.Path) })
		return nil
	})
}

func (r *serviceRepository) Update(ctx context.Context, service *entity.Service) error {
	return r.uow.run(func() error {
		st := r.uow.store
		prev := st.services[service.Path]
		now := st.now()
		service.UpdatedAt = &now
		st.services[service.Path] = cloneService(service)
		r.uow.onRollback(func() {
			if prev == nil {
				delete(st.services, service.Path)
				return
			}
			st.services[service.Path] = prev
		})
		return nil
	})
}

func (r *serviceRepository) FindByPath(ctx context.Context, path string) (*entity.Service, error) {
	var out *entity.Service
	err := r.uow.run(func() error {
		if s, ok := r.uow.store.services[path]; ok {
			out = cloneService(s)
		}
		return nil
	})
	return out, err
}

func (r *serviceRepository) FindAll(ctx context.Context) ([]*entity.Service, error) {
	var out []*entity.Service
	err := r.uow.run(func() error {
		for _, s := range r.uow.store.services {
			out = append(out, cloneService(s))
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, err
}

type collectionRepository struct {
	uow *UnitOfWork
}

func cloneCollection(c *entity.Collection) *entity.Collection {
	out := *c
	return &out
}

func (r *collectionRepository) Create(ctx context.Context, collection *entity.Collection) error {
	return r.uow.run(func() error {
		st := r.uow.store
		if _, ok := st.collections[collection.Name]; ok {
			return contract.ErrDuplicate
		}
		if collection.Id == uuid.Nil {
			collection.Id = uuid.New()
		}
		if collection.CreatedAt.IsZero() {
			collection.CreatedAt = st.now()
		}
		st.collections[collection.Name] = cloneCollection(collection)
		r.uow.onRollback(func() { delete(st.collections, collection.Name) })
		return nil
	})
}

func (r *collectionRepository) Update(ctx context.Context, collection *entity.Collection) error {
	return r.uow.run(func() error {
		st := r.uow.store
		prev := st.collections[collection.Name]
		now := st.now()
		collection.UpdatedAt = &now
		st.collections[collection.Name] = cloneCollection(collection)
		r.uow.onRollback(func() {
			if prev == nil {
				delete(st.collections, collection.Name)
				return
			}
			st.collections[collection.Name] = prev
		})
		return nil
	})
}

func (r *collectionRepository) FindByName(ctx context.Context, name string) (*entity.Collection, error) {
	var out *entity.Collection
	err := r.uow.run(func() error {
		if c, ok := r.uow.store.collections[name]; ok {
			out = cloneCollection(c)
		}
		return nil
	})
	return out, err
}

func (r *collectionRepository) FindByNames(ctx context.Context, names []string) ([]*entity.Collection, error) {
	var out []*entity.Collection
	err := r.uow.run(func() error {
		for _, name := range names {
			if c, ok := r.uow.store.collections[name]; ok {
				out = append(out, cloneCollection(c))
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, err
}

type bindingIdRepository struct {
	uow *UnitOfWork
}

func (r *bindingIdRepository) Create(ctx context.Context, id *entity.BindingId) error {
	return r.uow.run(func() error {
		st := r.uow.store
		key := id.Category + "|" + id.Value
		prev := st.bindings[key]
		if prev != nil {
			id.Id = prev.Id
		} else if id.Id == uuid.Nil {
			id.Id = uuid.New()
		}
		c := *id
		st.bindings[key] = &c
		r.uow.onRollback(func() {
			if prev == nil {
				delete(st.bindings, key)
				return
			}
			st.bindings[key] = prev
		})
		return nil
	})
}

func (r *bindingIdRepository) FindAll(ctx context.Context) ([]*entity.BindingId, error) {
	var out []*entity.BindingId
	err := r.uow.run(func() error {
		for _, b := range r.uow.store.bindings {
			c := *b
			out = append(out, &c)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].Category != out[j].Category {
			return out[i].Category < out[j].Category
		}
		return out[i].Value < out[j].Value
	})
	return out, err
}
