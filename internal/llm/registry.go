package llm

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
)

// targetSeparator qualifies a model id with its provider: "provider::model".
const targetSeparator = "::"

// TargetKey builds the provider-qualified model identifier.
func TargetKey(providerID, modelID string) string {
	return providerID + targetSeparator + modelID
}

// SplitTarget splits a provider-qualified model identifier. qualified is
// false when the string carries no provider prefix, in which case the
// registry table resolves the provider instead.
func SplitTarget(target string) (providerID, modelID string, qualified bool) {
	providerID, modelID, qualified = strings.Cut(target, targetSeparator)
	if !qualified {
		return "", target, false
	}
	return providerID, modelID, true
}

// Registry resolves model ids to the providers serving them, caching the
// gateway's model table. The table changes rarely; a stale entry costs one
// failed request and a refetch, so a short TTL is plenty.
type Registry struct {
	provider Provider
	ttl      time.Duration

	mu        sync.Mutex
	table     map[string]string
	fetchedAt time.Time
}

// NewRegistry returns a registry backed by the given gateway.
func NewRegistry(provider Provider, ttl time.Duration) *Registry {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Registry{provider: provider, ttl: ttl}
}

// Resolve returns (providerID, modelID) for a target that is either
// provider-qualified or a bare model id present in the lookup table.
func (r *Registry) Resolve(ctx context.Context, target string) (string, string, error) {
	if providerID, modelID, ok := SplitTarget(target); ok {
		return providerID, modelID, nil
	}

	table, err := r.lookupTable(ctx)
	if err != nil {
		return "", "", err
	}
	providerID, ok := table[target]
	if !ok {
		return "", "", fmt.Errorf("model %q not known to the gateway", target)
	}
	return providerID, target, nil
}

// Models returns the cached model table, refreshing it when stale.
func (r *Registry) Models(ctx context.Context) (*ModelList, error) {
	list, err := r.provider.ListModels(ctx)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	r.table = tableOf(list)
	r.fetchedAt = time.Now()
	r.mu.Unlock()
	return list, nil
}

func (r *Registry) lookupTable(ctx context.Context) (map[string]string, error) {
	r.mu.Lock()
	if r.table != nil && time.Since(r.fetchedAt) < r.ttl {
		table := r.table
		r.mu.Unlock()
		return table, nil
	}
	r.mu.Unlock()

	list, err := r.provider.ListModels(ctx)
	if err != nil {
		return nil, err
	}
	table := tableOf(list)

	r.mu.Lock()
	r.table = table
	r.fetchedAt = time.Now()
	r.mu.Unlock()
	return table, nil
}

func tableOf(list *ModelList) map[string]string {
	table := make(map[string]string, len(list.Models))
	for _, m := range list.Models {
		table[m.ID] = m.ProviderID
	}
	return table
}
