package reports

import (
	"time"

	valves "collaudo-tracker/internal/valves/domain"
)

// Row is one valve line in an inspection report.
type Row struct {
	ID              string
	Name            string
	Manufacturer    string
	Location        string
	NominalPressure string
	InletDiameter   string
	OutletDiameter  string
	LastInspection  time.Time
	NextDue         time.Time
	LeadTimeDays    int
	RemainingDays   int
	Status          valves.Status
}

// BuildRows derives report rows from valve records as of the given day.
func BuildRows(list []valves.Valve, today time.Time) []Row {
	today = valves.Date(today)
	rows := make([]Row, 0, len(list))
	for _, valve := range list {
		due := valve.NextDue()
		rows = append(rows, Row{
			ID:              valve.ID,
			Name:            valve.Name,
			Manufacturer:    valve.Manufacturer,
			Location:        valve.Location,
			NominalPressure: valve.NominalPressure,
			InletDiameter:   valve.InletDiameter,
			OutletDiameter:  valve.OutletDiameter,
			LastInspection:  valves.Date(valve.LastInspection),
			NextDue:         due,
			LeadTimeDays:    valve.LeadTimeDays,
			RemainingDays:   valves.DaysUntil(today, due),
			Status:          valves.Classify(due, valve.LeadTimeDays, today),
		})
	}
	return rows
}
