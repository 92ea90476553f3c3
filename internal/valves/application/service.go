package application

import (
	"context"
	"errors"
	"strings"
	"time"

	valves "collaudo-tracker/internal/valves/domain"
)

// Clock provides time.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// Service handles valve record management. Validation happens here,
// before a record reaches the store.
type Service struct {
	repo  valves.Repository
	clock Clock
}

// ServiceOption customizes the service.
type ServiceOption func(*Service)

// WithClock assigns a clock.
func WithClock(clock Clock) ServiceOption {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// NewService constructs a valve service.
func NewService(repo valves.Repository, opts ...ServiceOption) (*Service, error) {
	if repo == nil {
		return nil, errors.New("valves: nil repository")
	}
	s := &Service{repo: repo, clock: systemClock{}}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Create registers a new valve. The serial id must be unused.
func (s *Service) Create(ctx context.Context, valve valves.Valve) (*valves.Valve, error) {
	valve.LastInspection = valves.Date(valve.LastInspection)
	if valve.LeadTimeDays == 0 {
		valve.LeadTimeDays = valves.DefaultLeadTimeDays
	}
	if err := valve.Validate(); err != nil {
		return nil, err
	}
	now := s.clock.Now()
	valve.CreatedAt = now
	valve.UpdatedAt = now
	if err := s.repo.Create(ctx, &valve); err != nil {
		return nil, err
	}
	return &valve, nil
}

// Get loads one valve by serial id.
func (s *Service) Get(ctx context.Context, id string) (*valves.Valve, error) {
	if id == "" {
		return nil, valves.ErrNotFound
	}
	return s.repo.Get(ctx, id)
}

// Update replaces the mutable fields of an existing valve. The serial id
// is immutable: an update payload carrying a different id is rejected.
func (s *Service) Update(ctx context.Context, id string, valve valves.Valve) (*valves.Valve, error) {
	if valve.ID != "" && valve.ID != id {
		return nil, valves.ErrImmutableID
	}
	valve.ID = id
	valve.LastInspection = valves.Date(valve.LastInspection)
	if valve.LeadTimeDays == 0 {
		valve.LeadTimeDays = valves.DefaultLeadTimeDays
	}
	if err := valve.Validate(); err != nil {
		return nil, err
	}
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	valve.CreatedAt = existing.CreatedAt
	valve.UpdatedAt = s.clock.Now()
	if err := s.repo.Update(ctx, &valve); err != nil {
		return nil, err
	}
	return &valve, nil
}

// Delete removes a valve.
func (s *Service) Delete(ctx context.Context, id string) error {
	if id == "" {
		return valves.ErrNotFound
	}
	return s.repo.Delete(ctx, id)
}

// List returns all valves.
func (s *Service) List(ctx context.Context) ([]valves.Valve, error) {
	return s.repo.List(ctx)
}

// SearchFilter holds the advanced-search criteria. Empty fields match
// everything; set fields match by case-insensitive substring.
type SearchFilter struct {
	Query           string
	Name            string
	NominalPressure string
	InletDiameter   string
	OutletDiameter  string
}

// Search lists valves matching the filter.
func (s *Service) Search(ctx context.Context, filter SearchFilter) ([]valves.Valve, error) {
	list, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	matched := make([]valves.Valve, 0, len(list))
	for _, valve := range list {
		if filter.matches(valve) {
			matched = append(matched, valve)
		}
	}
	return matched, nil
}

func (f SearchFilter) matches(valve valves.Valve) bool {
	if f.Query != "" {
		label := valve.ID + ": " + valve.Name
		if !containsFold(label, f.Query) {
			return false
		}
	}
	if f.Name != "" && !containsFold(valve.Name, f.Name) {
		return false
	}
	if f.NominalPressure != "" && !containsFold(valve.NominalPressure, f.NominalPressure) {
		return false
	}
	if f.InletDiameter != "" && !containsFold(valve.InletDiameter, f.InletDiameter) {
		return false
	}
	if f.OutletDiameter != "" && !containsFold(valve.OutletDiameter, f.OutletDiameter) {
		return false
	}
	return true
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
