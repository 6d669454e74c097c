package service

import (
	"context"
	"testing"
	"time"

	"taxii-services/internal/entity"
	"taxii-services/internal/repository/memory"
	"taxii-services/pkg/taxii/binding"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadBindingRegistry(t *testing.T) {
	ctx := context.Background()
	factory := memory.NewRepositoryFactory(memory.NewStore(time.Hour))
	repo := factory.NewUnitOfWork(ctx).BindingIdRepository()
	require.NoError(t, repo.Create(ctx, &entity.BindingId{Category: string(binding.CategoryContent), Value: "urn:example:feed:1.0", Title: "Example"}))
	require.NoError(t, repo.Create(ctx, &entity.BindingId{Category: "bogus", Value: "urn:example:bogus"}))

	reg, err := LoadBindingRegistry(ctx, factory)
	require.NoError(t, err)

	id, ok := reg.Lookup(binding.CategoryContent, "urn:example:feed:1.0")
	assert.True(t, ok)
	assert.Equal(t, "Example", id.Title)
	assert.True(t, reg.Known(binding.CategoryContent, binding.ContentSTIXXML111))
	for _, c := range binding.Categories {
		assert.NotContains(t, reg.Values(c), "urn:example:bogus")
	}
}
