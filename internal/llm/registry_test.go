package llm_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"parley/internal/llm"
	"parley/internal/llm/mocks"
)

func TestTargetKey(t *testing.T) {
	assert.Equal(t, "openai::gpt-4o", llm.TargetKey("openai", "gpt-4o"))
}

func TestSplitTarget(t *testing.T) {
	provider, model, qualified := llm.SplitTarget("openai::gpt-4o")
	assert.True(t, qualified)
	assert.Equal(t, "openai", provider)
	assert.Equal(t, "gpt-4o", model)

	provider, model, qualified = llm.SplitTarget("gpt-4o")
	assert.False(t, qualified)
	assert.Empty(t, provider)
	assert.Equal(t, "gpt-4o", model)
}

func TestRegistry_ResolveQualifiedSkipsLookup(t *testing.T) {
	mockProvider := mocks.NewMockProvider(t)
	registry := llm.NewRegistry(mockProvider, 0)

	// No ListModels expectation: a qualified target needs no table.
	providerID, modelID, err := registry.Resolve(context.Background(), "anthropic::claude-sonnet")
	require.NoError(t, err)
	assert.Equal(t, "anthropic", providerID)
	assert.Equal(t, "claude-sonnet", modelID)
}

func TestRegistry_ResolveBareModelUsesTable(t *testing.T) {
	mockProvider := mocks.NewMockProvider(t)
	mockProvider.On("ListModels", mock.Anything).Return(&llm.ModelList{
		Models: []llm.ModelEntry{
			{ID: "gpt-4o", ProviderID: "openai"},
			{ID: "llama3", ProviderID: "local"},
		},
	}, nil).Once()

	registry := llm.NewRegistry(mockProvider, 0)

	providerID, modelID, err := registry.Resolve(context.Background(), "llama3")
	require.NoError(t, err)
	assert.Equal(t, "local", providerID)
	assert.Equal(t, "llama3", modelID)

	// Second resolve hits the cache, not the gateway.
	providerID, _, err = registry.Resolve(context.Background(), "gpt-4o")
	require.NoError(t, err)
	assert.Equal(t, "openai", providerID)
}

func TestRegistry_ResolveUnknownModel(t *testing.T) {
	mockProvider := mocks.NewMockProvider(t)
	mockProvider.On("ListModels", mock.Anything).Return(&llm.ModelList{}, nil).Once()

	registry := llm.NewRegistry(mockProvider, 0)

	_, _, err := registry.Resolve(context.Background(), "no-such-model")
	assert.Error(t, err)
}

func TestRegistry_ModelsRefreshesCache(t *testing.T) {
	mockProvider := mocks.NewMockProvider(t)
	mockProvider.On("ListModels", mock.Anything).Return(&llm.ModelList{
		Models: []llm.ModelEntry{{ID: "m1", ProviderID: "p1"}},
	}, nil).Once()

	registry := llm.NewRegistry(mockProvider, 0)
	list, err := registry.Models(context.Background())
	require.NoError(t, err)
	require.Len(t, list.Models, 1)

	// The fetch above primed the lookup table.
	providerID, _, err := registry.Resolve(context.Background(), "m1")
	require.NoError(t, err)
	assert.Equal(t, "p1", providerID)
}
