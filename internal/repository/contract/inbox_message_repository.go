package contract

import (
	"context"

	"taxii-services/internal/entity"

	"github.com/google/uuid"
)

type InboxMessageRepository interface {
	// Create returns ErrDuplicate when the service already received the message id.
	Create(ctx context.Context, record *entity.InboxMessageRecord) error
	UpdateAcceptedCount(ctx context.Context, id uuid.UUID, accepted int) error
	FindOne(ctx context.Context, servicePath, messageId string) (*entity.InboxMessageRecord, error)
}
