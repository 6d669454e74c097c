package contract

import (
	"context"

	"taxii-services/internal/entity"
	"taxii-services/internal/repository/specification"

	"github.com/google/uuid"
)

type ContentBlockRepository interface {
	Create(ctx context.Context, block *entity.ContentBlock) error
	// Attach appends block to collection. Attaching twice is a no-op.
	Attach(ctx context.Context, collectionId, blockId uuid.UUID) error
	FindAll(ctx context.Context, specs ...specification.ContentBlockSpecification) ([]*entity.ContentBlock, error)
	Count(ctx context.Context, specs ...specification.ContentBlockSpecification) (int64, error)
}
