package implementation

import (
	"context"

	"taxii-services/internal/entity"
	"taxii-services/internal/mapper"
	"taxii-services/internal/model"
	"taxii-services/internal/repository/contract"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type BindingIdRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.BindingIdMapper
}

func NewBindingIdRepository(db *gorm.DB) contract.BindingIdRepository {
	return &BindingIdRepositoryImpl{
		db:     db,
		mapper: mapper.NewBindingIdMapper(),
	}
}

// Create is idempotent on (category, value).
func (r *BindingIdRepositoryImpl) Create(ctx context.Context, id *entity.BindingId) error {
	m := r.mapper.ToModel(id)
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "category"}, {Name: "value"}},
			DoUpdates: clause.AssignmentColumns([]string{"title", "description"}),
		}).
		Create(m).Error
	if err != nil {
		return err
	}
	*id = *r.mapper.ToEntity(m)
	return nil
}

func (r *BindingIdRepositoryImpl) FindAll(ctx context.Context) ([]*entity.BindingId, error) {
	var models []*model.BindingId
	if err := r.db.WithContext(ctx).Order("category ASC, value ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}
