package archetype

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
)

// StaticProvider serves a precomputed assignment read from a JSON object of
// deck hash to archetype id.
type StaticProvider struct {
	Path string
}

// NewStaticProvider creates a provider backed by the lookup file at path.
func NewStaticProvider(path string) *StaticProvider {
	return &StaticProvider{Path: path}
}

// Assign reads the lookup file. storePath is not consulted.
func (p *StaticProvider) Assign(_ context.Context, _ string, k int) (Assignment, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: k must be positive, got %d", ErrClusteringUnavailable, k)
	}

	data, err := os.ReadFile(p.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: read assignments: %w", ErrClusteringUnavailable, err)
	}

	var assignment Assignment
	if err := json.Unmarshal(data, &assignment); err != nil {
		return nil, fmt.Errorf("%w: parse assignments: %w", ErrClusteringUnavailable, err)
	}

	for deck, id := range assignment {
		if id < 0 || id >= k {
			return nil, fmt.Errorf("%w: deck %s has archetype %d outside [0, %d)", ErrClusteringUnavailable, deck, id, k)
		}
	}

	return assignment, nil
}

// SaveAssignment writes an assignment in the format read by StaticProvider.
func SaveAssignment(path string, assignment Assignment) error {
	data, err := json.MarshalIndent(assignment, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal assignments: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write assignments: %w", err)
	}
	return nil
}
