package implementation

import (
	"context"
	"time"

	"taxii-services/internal/entity"
	"taxii-services/internal/mapper"
	"taxii-services/internal/model"
	"taxii-services/internal/repository/contract"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ResultSetRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ResultSetMapper
}

func NewResultSetRepository(db *gorm.DB) contract.ResultSetRepository {
	return &ResultSetRepositoryImpl{
		db:     db,
		mapper: mapper.NewResultSetMapper(),
	}
}

func (r *ResultSetRepositoryImpl) Create(ctx context.Context, resultSet *entity.ResultSet) error {
	if !resultSet.ExpiresAt.After(time.Now()) {
		return contract.ErrExpired
	}
	m := r.mapper.ToModel(resultSet)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return translateError(err)
	}
	*resultSet = *r.mapper.ToEntity(m)
	return nil
}

// Take issues DELETE ... RETURNING, so two concurrent callers can never both
// receive the row.
func (r *ResultSetRepositoryImpl) Take(ctx context.Context, id string) (*entity.ResultSet, error) {
	var rows []model.ResultSet
	res := r.db.WithContext(ctx).
		Clauses(clause.Returning{}).
		Where("id = ? AND expires_at > ?", id, time.Now()).
		Delete(&rows)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 || len(rows) == 0 {
		return nil, nil
	}
	return r.mapper.ToEntity(&rows[0]), nil
}

func (r *ResultSetRepositoryImpl) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("expires_at <= ?", now).Delete(&model.ResultSet{})
	return res.RowsAffected, res.Error
}
