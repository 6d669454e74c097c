package service

import (
	"context"
	"fmt"

	"taxii-services/internal/repository/unitofwork"
	"taxii-services/pkg/taxii/binding"
)

// LoadBindingRegistry starts from the built-in bindings and adds every id
// stored in the binding_ids table. Rows with an unknown category are skipped.
func LoadBindingRegistry(ctx context.Context, uowFactory unitofwork.RepositoryFactory) (*binding.Registry, error) {
	reg := binding.DefaultRegistry()

	stored, err := uowFactory.NewUnitOfWork(ctx).BindingIdRepository().FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load binding ids: %w", err)
	}
	for _, id := range stored {
		category := binding.Category(id.Category)
		if !binding.ValidCategory(category) {
			continue
		}
		reg.Register(binding.ID{
			Category:    category,
			Value:       id.Value,
			Title:       id.Title,
			Description: id.Description,
		})
	}
	return reg, nil
}
