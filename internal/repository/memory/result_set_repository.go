package memory

import (
	"context"
	"time"

	"taxii-services/internal/entity"
	"taxii-services/internal/repository/contract"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// resultSetRepository keeps result sets in go-cache; an entry expires at the
// result set's ExpiresAt.
type resultSetRepository struct {
	uow *UnitOfWork
}

func cloneResultSet(rs *entity.ResultSet) *entity.ResultSet {
	c := *rs
	c.ContentBlockIds = append([]uuid.UUID(nil), rs.ContentBlockIds...)
	return &c
}

func (r *resultSetRepository) Create(ctx context.Context, resultSet *entity.ResultSet) error {
	return r.uow.run(func() error {
		st := r.uow.store
		if _, ok := st.resultSets.Get(resultSet.Id); ok {
			return contract.ErrDuplicate
		}
		if resultSet.CreatedAt.IsZero() {
			resultSet.CreatedAt = st.now()
		}
		ttl := resultSet.ExpiresAt.Sub(st.now())
		if resultSet.ExpiresAt.IsZero() {
			ttl = cache.DefaultExpiration
		} else if ttl <= 0 {
			return contract.ErrExpired
		}
		id := resultSet.Id
		st.resultSets.Set(id, cloneResultSet(resultSet), ttl)
		r.uow.onRollback(func() { st.resultSets.Delete(id) })
		return nil
	})
}

func (r *resultSetRepository) Take(ctx context.Context, id string) (*entity.ResultSet, error) {
	var out *entity.ResultSet
	err := r.uow.run(func() error {
		st := r.uow.store
		item, expiresAt, ok := st.resultSets.GetWithExpiration(id)
		if !ok {
			return nil
		}
		rs := item.(*entity.ResultSet)
		st.resultSets.Delete(id)
		r.uow.onRollback(func() {
			ttl := cache.NoExpiration
			if !expiresAt.IsZero() {
				ttl = time.Until(expiresAt)
				if ttl <= 0 {
					return
				}
			}
			st.resultSets.Set(id, rs, ttl)
		})
		out = cloneResultSet(rs)
		return nil
	})
	return out, err
}

// DeleteExpired sweeps by wall clock; go-cache has no notion of a caller
// supplied now.
func (r *resultSetRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	var n int64
	err := r.uow.run(func() error {
		st := r.uow.store
		before := st.resultSets.ItemCount()
		st.resultSets.DeleteExpired()
		n = int64(before - st.resultSets.ItemCount())
		return nil
	})
	return n, err
}
