package implementation

import (
	"context"
	"errors"

	"taxii-services/internal/entity"
	"taxii-services/internal/mapper"
	"taxii-services/internal/model"
	"taxii-services/internal/repository/contract"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type InboxMessageRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.InboxMessageMapper
}

func NewInboxMessageRepository(db *gorm.DB) contract.InboxMessageRepository {
	return &InboxMessageRepositoryImpl{
		db:     db,
		mapper: mapper.NewInboxMessageMapper(),
	}
}

func (r *InboxMessageRepositoryImpl) Create(ctx context.Context, record *entity.InboxMessageRecord) error {
	m := r.mapper.ToModel(record)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return translateError(err)
	}
	*record = *r.mapper.ToEntity(m)
	return nil
}

func (r *InboxMessageRepositoryImpl) UpdateAcceptedCount(ctx context.Context, id uuid.UUID, accepted int) error {
	return r.db.WithContext(ctx).
		Model(&model.InboxMessage{}).
		Where("id = ?", id).
		Update("block_count_accepted", accepted).Error
}

func (r *InboxMessageRepositoryImpl) FindOne(ctx context.Context, servicePath, messageId string) (*entity.InboxMessageRecord, error) {
	var m model.InboxMessage
	err := r.db.WithContext(ctx).
		Where("service_path = ? AND message_id = ?", servicePath, messageId).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}
