package service

import (
	"context"
	"time"

	"taxii-services/internal/pkg/logger"
	"taxii-services/internal/repository/unitofwork"
)

// IResultSetSweeperService drops result sets nobody fetched before expiry.
type IResultSetSweeperService interface {
	Sweep(ctx context.Context) (int64, error)
	Run(ctx context.Context, interval time.Duration)
}

type resultSetSweeperService struct {
	uowFactory unitofwork.RepositoryFactory
	logger     logger.ILogger
	now        func() time.Time
}

func NewResultSetSweeperService(uowFactory unitofwork.RepositoryFactory, log logger.ILogger) IResultSetSweeperService {
	return &resultSetSweeperService{
		uowFactory: uowFactory,
		logger:     log,
		now:        time.Now,
	}
}

func (s *resultSetSweeperService) Sweep(ctx context.Context) (int64, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	return uow.ResultSetRepository().DeleteExpired(ctx, s.now().UTC())
}

// Run sweeps every interval until ctx is cancelled.
func (s *resultSetSweeperService) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.Sweep(ctx)
			if err != nil {
				s.logger.Error("Sweeper", "Failed to delete expired result sets", map[string]interface{}{"error": err.Error()})
				continue
			}
			if n > 0 {
				s.logger.Info("Sweeper", "Expired result sets deleted", map[string]interface{}{"count": n})
			}
		}
	}
}
