package valves

import "context"

// Repository is the narrow store contract the tracking core depends on.
// Implementations must enforce id uniqueness on Create and key Update
// and Delete by the immutable id.
type Repository interface {
	List(ctx context.Context) ([]Valve, error)
	Get(ctx context.Context, id string) (*Valve, error)
	Create(ctx context.Context, valve *Valve) error
	Update(ctx context.Context, valve *Valve) error
	Delete(ctx context.Context, id string) error
}
