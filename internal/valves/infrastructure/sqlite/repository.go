// Package sqlite stores valve records in a local SQLite file, the same
// shape the legacy tracker kept in valves.db.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	valves "collaudo-tracker/internal/valves/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS valves (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	manufacturer TEXT NOT NULL DEFAULT '',
	location TEXT NOT NULL DEFAULT '',
	nominal_pressure TEXT NOT NULL,
	inlet_diameter TEXT NOT NULL,
	outlet_diameter TEXT NOT NULL,
	last_inspection_date TEXT NOT NULL,
	interval_years INTEGER NOT NULL,
	lead_time_days INTEGER NOT NULL,
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL
)`

const dateLayout = "2006-01-02"

// Repository is a SQLite valve store.
type Repository struct {
	db *sql.DB
}

// Open opens (and bootstraps) the valve database at path.
func Open(path string) (*Repository, error) {
	if path == "" {
		return nil, errors.New("valve sqlite repo: empty path")
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("valve sqlite repo: open: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("valve sqlite repo: init schema: %w", err)
	}
	return &Repository{db: db}, nil
}

// Close closes the underlying database.
func (r *Repository) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

// List returns all valves ordered by id.
func (r *Repository) List(ctx context.Context) ([]valves.Valve, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("valve sqlite repo: nil db")
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
		valve, err := scanValve(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, *valve)
	}
	return out, rows.Err()
}

// Get loads one valve.
func (r *Repository) Get(ctx context.Context, id string) (*valves.Valve, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("valve sqlite repo: nil db")
	}
	row := r.db.QueryRowContext(ctx, `
SELECT id, name, manufacturer, location, nominal_pressure, inlet_diameter, outlet_diameter,
	last_inspection_date, interval_years, lead_time_days, created_at, updated_at
FROM valves
WHERE id = ?`, id)
	valve, err := scanValve(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, valves.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return valve, nil
}

// Create inserts a valve, rejecting duplicate ids.
func (r *Repository) Create(ctx context.Context, valve *valves.Valve) error {
	if r == nil || r.db == nil {
		return errors.New("valve sqlite repo: nil db")
	}
	if valve == nil {
		return errors.New("valve sqlite repo: nil valve")
	}
	var exists int
	err := r.db.QueryRowContext(ctx, `SELECT 1 FROM valves WHERE id = ?`, valve.ID).Scan(&exists)
	if err == nil {
		return valves.ErrDuplicateID
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
INSERT INTO valves (
	id, name, manufacturer, location, nominal_pressure, inlet_diameter, outlet_diameter,
	last_inspection_date, interval_years, lead_time_days, created_at, updated_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		valve.ID, valve.Name, valve.Manufacturer, valve.Location,
		valve.NominalPressure, valve.InletDiameter, valve.OutletDiameter,
		valve.LastInspection.Format(dateLayout), valve.IntervalYears, valve.LeadTimeDays,
		valve.CreatedAt, valve.UpdatedAt)
	return err
}

// Update replaces the mutable fields of an existing valve.
func (r *Repository) Update(ctx context.Context, valve *valves.Valve) error {
	if r == nil || r.db == nil {
		return errors.New("valve sqlite repo: nil db")
	}
	if valve == nil {
		return errors.New("valve sqlite repo: nil valve")
	}
	res, err := r.db.ExecContext(ctx, `
UPDATE valves SET
	name = ?, manufacturer = ?, location = ?, nominal_pressure = ?,
	inlet_diameter = ?, outlet_diameter = ?, last_inspection_date = ?,
	interval_years = ?, lead_time_days = ?, updated_at = ?
WHERE id = ?`,
		valve.Name, valve.Manufacturer, valve.Location, valve.NominalPressure,
		valve.InletDiameter, valve.OutletDiameter, valve.LastInspection.Format(dateLayout),
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
		return errors.New("valve sqlite repo: nil db")
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM valves WHERE id = ?`, id)
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

func scanValve(scan func(dest ...any) error) (*valves.Valve, error) {
	var (
		valve    valves.Valve
		lastDate string
	)
	if err := scan(&valve.ID, &valve.Name, &valve.Manufacturer, &valve.Location,
		&valve.NominalPressure, &valve.InletDiameter, &valve.OutletDiameter,
		&lastDate, &valve.IntervalYears, &valve.LeadTimeDays,
		&valve.CreatedAt, &valve.UpdatedAt); err != nil {
		return nil, err
	}
	parsed, err := time.ParseInLocation(dateLayout, lastDate, time.UTC)
	if err != nil {
		return nil, fmt.Errorf("valve sqlite repo: bad date for %s: %w", valve.ID, err)
	}
	valve.LastInspection = parsed
	return &valve, nil
}
