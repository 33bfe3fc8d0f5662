// Package archetype assigns decks to archetype clusters by card composition.
package archetype

import (
	"context"
	"errors"
	"fmt"
)

// ErrClusteringUnavailable is returned when no archetype assignment can be produced.
var ErrClusteringUnavailable = errors.New("clustering unavailable")

// Assignment maps deck hash to archetype id in [0, k).
type Assignment map[string]int

// Provider assigns archetypes to every deck in a store.
// Implementations must be deterministic for a fixed store snapshot and k.
type Provider interface {
	Assign(ctx context.Context, storePath string, k int) (Assignment, error)
}

// ProviderFunc adapts a function to the Provider interface.
type ProviderFunc func(ctx context.Context, storePath string, k int) (Assignment, error)

// Assign calls f.
func (f ProviderFunc) Assign(ctx context.Context, storePath string, k int) (Assignment, error) {
	return f(ctx, storePath, k)
}

// Require runs the provider and treats an empty assignment like a failure.
func Require(ctx context.Context, p Provider, storePath string, k int) (Assignment, error) {
	if p == nil {
		return nil, fmt.Errorf("%w: no provider configured", ErrClusteringUnavailable)
	}

	assignment, err := p.Assign(ctx, storePath, k)
	if err != nil {
		if errors.Is(err, ErrClusteringUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrClusteringUnavailable, err)
	}
	if len(assignment) == 0 {
		return nil, fmt.Errorf("%w: provider returned no assignments", ErrClusteringUnavailable)
	}

	return assignment, nil
}

// Clusters returns the number of decks assigned to each archetype id.
func (a Assignment) Clusters() map[int]int {
	counts := make(map[int]int)
	for _, id := range a {
		counts[id]++
	}
	return counts
}
