package service

import (
	"context"
	"fmt"
	"time"

	"taxii-services/internal/entity"
	"taxii-services/internal/repository/unitofwork"

	"github.com/patrickmn/go-cache"
)

const allServicesKey = "__all__"

// IServiceCatalogService resolves service definitions by path. Definitions
// are read-mostly, so lookups are cached for a short TTL.
type IServiceCatalogService interface {
	FindByPath(ctx context.Context, path string) (*entity.Service, error)
	FindAll(ctx context.Context) ([]*entity.Service, error)
	Invalidate()
}

type serviceCatalogService struct {
	uowFactory unitofwork.RepositoryFactory
	cache      *cache.Cache
}

func NewServiceCatalogService(uowFactory unitofwork.RepositoryFactory, ttl time.Duration) IServiceCatalogService {
	return &serviceCatalogService{
		uowFactory: uowFactory,
		cache:      cache.New(ttl, 2*ttl),
	}
}

func (s *serviceCatalogService) FindByPath(ctx context.Context, path string) (*entity.Service, error) {
	if v, ok := s.cache.Get("path:" + path); ok {
		return v.(*entity.Service), nil
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	svc, err := uow.ServiceRepository().FindByPath(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("find service %s: %w", path, err)
	}
	// Misses are not cached so newly seeded services show up immediately
	if svc != nil {
		s.cache.SetDefault("path:"+path, svc)
	}
	return svc, nil
}

func (s *serviceCatalogService) FindAll(ctx context.Context) ([]*entity.Service, error) {
	if v, ok := s.cache.Get(allServicesKey); ok {
		return v.([]*entity.Service), nil
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	services, err := uow.ServiceRepository().FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list services: %w", err)
	}
	s.cache.SetDefault(allServicesKey, services)
	return services, nil
}

func (s *serviceCatalogService) Invalidate() {
	s.cache.Flush()
}
