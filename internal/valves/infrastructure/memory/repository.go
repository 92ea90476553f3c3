package memory

import (
	"context"
	"sort"
	"sync"

	valves "collaudo-tracker/internal/valves/domain"
)

// Repository is an in-memory valve store, used by tests and as a
// reference implementation of the store contract.
type Repository struct {
	mu   sync.RWMutex
	data map[string]valves.Valve
}

// NewRepository constructs a repository.
func NewRepository() *Repository {
	return &Repository{data: make(map[string]valves.Valve)}
}

// List returns all valves ordered by id.
func (r *Repository) List(ctx context.Context) ([]valves.Valve, error) {
	_ = ctx
	r.mu.RLock()
	out := make([]valves.Valve, 0, len(r.data))
	for _, valve := range r.data {
		out = append(out, valve)
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Get loads one valve.
func (r *Repository) Get(ctx context.Context, id string) (*valves.Valve, error) {
	_ = ctx
	r.mu.RLock()
	valve, ok := r.data[id]
	r.mu.RUnlock()
	if !ok {
		return nil, valves.ErrNotFound
	}
	return &valve, nil
}

// Create inserts a valve, rejecting duplicate ids.
func (r *Repository) Create(ctx context.Context, valve *valves.Valve) error {
	_ = ctx
	if valve == nil {
		return valves.ErrNotFound
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.data[valve.ID]; exists {
		return valves.ErrDuplicateID
	}
	r.data[valve.ID] = *valve
	return nil
}

// Update replaces an existing valve keyed by its id.
func (r *Repository) Update(ctx context.Context, valve *valves.Valve) error {
	_ = ctx
	if valve == nil {
		return valves.ErrNotFound
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.data[valve.ID]; !exists {
		return valves.ErrNotFound
	}
	r.data[valve.ID] = *valve
	return nil
}

// Delete removes a valve.
func (r *Repository) Delete(ctx context.Context, id string) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.data[id]; !exists {
		return valves.ErrNotFound
	}
	delete(r.data, id)
	return nil
}
