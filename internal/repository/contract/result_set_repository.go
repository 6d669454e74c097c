package contract

import (
	"context"
	"time"

	"taxii-services/internal/entity"
)

type ResultSetRepository interface {
	Create(ctx context.Context, resultSet *entity.ResultSet) error
	// Take fetches and deletes the result set in one step. It returns nil, nil
	// when the id is unknown or expired.
	Take(ctx context.Context, id string) (*entity.ResultSet, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
