package implementation

import (
	"context"

	"taxii-services/internal/entity"
	"taxii-services/internal/mapper"
	"taxii-services/internal/model"
	"taxii-services/internal/repository/contract"
	"taxii-services/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ContentBlockRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ContentBlockMapper
}

func NewContentBlockRepository(db *gorm.DB) contract.ContentBlockRepository {
	return &ContentBlockRepositoryImpl{
		db:     db,
		mapper: mapper.NewContentBlockMapper(),
	}
}

func (r *ContentBlockRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.ContentBlockSpecification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *ContentBlockRepositoryImpl) Create(ctx context.Context, block *entity.ContentBlock) error {
	m := r.mapper.ToModel(block)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*block = *r.mapper.ToEntity(m)
	return nil
}

func (r *ContentBlockRepositoryImpl) Attach(ctx context.Context, collectionId, blockId uuid.UUID) error {
	link := &model.CollectionContentBlock{CollectionId: collectionId, ContentBlockId: blockId}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(link).Error
}

func (r *ContentBlockRepositoryImpl) FindAll(ctx context.Context, specs ...specification.ContentBlockSpecification) ([]*entity.ContentBlock, error) {
	var models []*model.ContentBlock
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.ContentBlock{}), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *ContentBlockRepositoryImpl) Count(ctx context.Context, specs ...specification.ContentBlockSpecification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.ContentBlock{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
