package service

import (
	"context"
	"fmt"

	"taxii-services/internal/entity"
	"taxii-services/internal/repository/unitofwork"
	"taxii-services/pkg/taxii/binding"
)

// DefaultCollectionName is the collection every seeded service points at.
const DefaultCollectionName = "default"

// SeedReport lists what a seeding run created; existing rows are skipped.
type SeedReport struct {
	Bindings    int
	Collections []string
	Services    []string
	Skipped     []string
}

// DefaultServices is the baseline deployment: one service of each kind
// attached to the default collection.
func DefaultServices() []*entity.Service {
	base := func(path string, kind entity.ServiceKind, description string) *entity.Service {
		return &entity.Service{
			Path:             path,
			Kind:             kind,
			Description:      description,
			Enabled:          true,
			ProtocolBindings: []string{binding.ProtocolHTTP},
			MessageBindings:  []string{binding.MessageXML11},
		}
	}

	discovery := base("discovery", entity.ServiceKindDiscovery, "Lists the services offered here")
	poll := base("poll", entity.ServiceKindPoll, "Polls the default collection")
	poll.CollectionNames = []string{DefaultCollectionName}
	management := base("collection-management", entity.ServiceKindCollectionManagement, "Collection information and subscriptions")
	management.CollectionNames = []string{DefaultCollectionName}
	inbox := base("inbox", entity.ServiceKindInbox, "Accepts content for the default collection")
	inbox.DestinationCollectionStatus = entity.DestinationCollectionOptional
	inbox.SupportedContent = binding.AcceptAllContent()
	inbox.CollectionNames = []string{DefaultCollectionName}

	return []*entity.Service{discovery, poll, management, inbox}
}

func DefaultCollections() []*entity.Collection {
	return []*entity.Collection{{
		Name:             DefaultCollectionName,
		Description:      "Default data feed",
		Type:             entity.CollectionTypeDataFeed,
		Queryable:        true,
		Enabled:          true,
		SupportedContent: binding.AcceptAllContent(),
	}}
}

// Seed writes the built-in binding ids plus the default collection and
// services in one transaction. It can run repeatedly.
func Seed(ctx context.Context, uowFactory unitofwork.RepositoryFactory) (SeedReport, error) {
	var report SeedReport

	uow := uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return report, err
	}
	defer uow.Rollback()

	for _, id := range binding.DefaultRegistry().All() {
		row := &entity.BindingId{
			Category:    string(id.Category),
			Value:       id.Value,
			Title:       id.Title,
			Description: id.Description,
		}
		if err := uow.BindingIdRepository().Create(ctx, row); err != nil {
			return report, fmt.Errorf("failed to seed binding %s: %w", id.Value, err)
		}
		report.Bindings++
	}

	for _, c := range DefaultCollections() {
		existing, err := uow.CollectionRepository().FindByName(ctx, c.Name)
		if err != nil {
			return report, err
		}
		if existing != nil {
			report.Skipped = append(report.Skipped, "collection "+c.Name)
			continue
		}
		if err := uow.CollectionRepository().Create(ctx, c); err != nil {
			return report, fmt.Errorf("failed to seed collection %s: %w", c.Name, err)
		}
		report.Collections = append(report.Collections, c.Name)
	}

	for _, svc := range DefaultServices() {
		existing, err := uow.ServiceRepository().FindByPath(ctx, svc.Path)
		if err != nil {
			return report, err
		}
		if existing != nil {
			report.Skipped = append(report.Skipped, "service "+svc.Path)
			continue
		}
		if err := uow.ServiceRepository().Create(ctx, svc); err != nil {
			return report, fmt.Errorf("failed to seed service %s: %w", svc.Path, err)
		}
		report.Services = append(report.Services, svc.Path)
	}

	return report, uow.Commit()
}
