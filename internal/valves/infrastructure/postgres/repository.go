package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	valves "collaudo-tracker/internal/valves/domain"
)

// Repository is a Postgres valve store.
type Repository struct {
	db *sql.DB
}

// NewRepository constructs a repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// EnsureSchema creates the valves table when missing.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	if r == nil || r.db == nil {
		return errors.New("valve pg repo: nil db")
	}
	_, err := r.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS valves (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	manufacturer TEXT NOT NULL DEFAULT '',
	location TEXT NOT NULL DEFAULT '',
	nominal_pressure TEXT NOT NULL,
	inlet_diameter TEXT NOT NULL,
	outlet_diameter TEXT NOT NULL,
	last_inspection_date DATE NOT NULL,
	interval_years INT NOT NULL,
	lead_time_days INT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
)`)
	return err
}

// List returns all valves ordered by id.
func (r *Repository) List(ctx context.Context) ([]valves.Valve, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("valve pg repo: nil db")
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT id, name, manufacturer, location, nominal_pressure, inlet_diameter, outlet_diameter,
	last_inspection_date, interval_years, lead_time_days, created_at, updated_at
FROM valves
ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []valves.Valve
	for rows.Next() {
		var valve valves.Valve
		var last time.Time
		if err := rows.Scan(&valve.ID, &valve.Name, &valve.Manufacturer, &valve.Location,
			&valve.NominalPressure, &valve.InletDiameter, &valve.OutletDiameter,
			&last, &valve.IntervalYears, &valve.LeadTimeDays,
			&valve.CreatedAt, &valve.UpdatedAt); err != nil {
			return nil, err
		}
		valve.LastInspection = valves.Date(last)
		out = append(out, valve)
	}
	return out, rows.Err()
}

// Get loads one valve.
func (r *Repository) Get(ctx context.Context, id string) (*valves.Valve, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("valve pg repo: nil db")
	}
	row := r.db.QueryRowContext(ctx, `
SELECT id, name, manufacturer, location, nominal_pressure, inlet_diameter, outlet_diameter,
	last_inspection_date, interval_years, lead_time_days, created_at, updated_at
FROM valves
WHERE id = $1`, id)
	var valve valves.Valve
	var last time.Time
	err := row.Scan(&valve.ID, &valve.Name, &valve.Manufacturer, &valve.Location,
		&valve.NominalPressure, &valve.InletDiameter, &valve.OutletDiameter,
		&last, &valve.IntervalYears, &valve.LeadTimeDays,
		&valve.CreatedAt, &valve.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, valves.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	valve.LastInspection = valves.Date(last)
	return &valve, nil
}

// Create inserts a valve, rejecting duplicate ids.
func (r *Repository) Create(ctx context.Context, valve *valves.Valve) error {
	if r == nil || r.db == nil {
		return errors.New("valve pg repo: nil db")
	}
	if valve == nil {
		return errors.New("valve pg repo: nil valve")
	}
	_, err := r.db.ExecContext(ctx, `
INSERT INTO valves (
	id, name, manufacturer, location, nominal_pressure, inlet_diameter, outlet_diameter,
	last_inspection_date, interval_years, lead_time_days, created_at, updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		valve.ID, valve.Name, valve.Manufacturer, valve.Location,
		valve.NominalPressure, valve.InletDiameter, valve.OutletDiameter,
		valve.LastInspection, valve.IntervalYears, valve.LeadTimeDays,
		valve.CreatedAt, valve.UpdatedAt)
	if err != nil && isUniqueViolation(err) {
		return valves.ErrDuplicateID
	}
	return err
}

// Update replaces the mutable fields of an existing valve.
func (r *Repository) Update(ctx context.Context, valve *valves.Valve) error {
	if r == nil || r.db == nil {
		return errors.New("valve pg repo: nil db")
	}
	if valve == nil {
		return errors.New("valve pg repo: nil valve")
	}
	res, err := r.db.ExecContext(ctx, `
UPDATE valves SET
	name = $1, manufacturer = $2, location = $3, nominal_pressure = $4,
	inlet_diameter = $5, outlet_diameter = $6, last_inspection_date = $7,
	interval_years = $8, lead_time_days = $9, updated_at = $10
WHERE id = $11`,
		valve.Name, valve.Manufacturer, valve.Location, valve.NominalPressure,
		valve.InletDiameter, valve.OutletDiameter, valve.LastInspection,
		valve.IntervalYears, valve.LeadTimeDays, valve.UpdatedAt, valve.ID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return valves.ErrNotFound
	}
	return nil
}

// Delete removes a valve.
func (r *Repository) Delete(ctx context.Context, id string) error {
	if r == nil || r.db == nil {
		return errors.New("valve pg repo: nil db")
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM valves WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return valves.ErrNotFound
	}
	return nil
}

// isUniqueViolation matches the Postgres unique_violation SQLSTATE that
// pgx surfaces in the error text.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "23505")
}
