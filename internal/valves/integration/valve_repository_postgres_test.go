package integration

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	valves "collaudo-tracker/internal/valves/domain"
	"collaudo-tracker/internal/valves/infrastructure/postgres"
)

func TestValveRepositoryPostgres(t *testing.T) {
	dsn := os.Getenv("PG_DSN")
	if dsn == "" {
		t.Skip("PG_DSN not set")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		t.Skipf("db not reachable: %v", err)
	}

	repo := postgres.NewRepository(db)
	ctx := context.Background()
	if err := repo.EnsureSchema(ctx); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}

	id := fmt.Sprintf("SV-IT-%d", time.Now().UnixNano())
	now := time.Now().UTC()
	valve := &valves.Valve{
		ID:              id,
		Name:            "Integration relief",
		NominalPressure: "16 bar",
		InletDiameter:   "DN25",
		OutletDiameter:  "DN40",
		LastInspection:  time.Date(2023, 1, 10, 0, 0, 0, 0, time.UTC),
		IntervalYears:   2,
		LeadTimeDays:    90,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := repo.Create(ctx, valve); err != nil {
		t.Fatalf("create: %v", err)
	}
	defer func() { _ = repo.Delete(ctx, id) }()

	if err := repo.Create(ctx, valve); !errors.Is(err, valves.ErrDuplicateID) {
		t.Fatalf("expected ErrDuplicateID, got %v", err)
	}

	got, err := repo.Get(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !got.LastInspection.Equal(valve.LastInspection) {
		t.Fatalf("expected inspection date %s, got %s", valve.LastInspection, got.LastInspection)
	}

	got.Name = "Integration relief v2"
	got.UpdatedAt = time.Now().UTC()
	if err := repo.Update(ctx, got); err != nil {
		t.Fatalf("update: %v", err)
	}

	list, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	found := false
	for _, v := range list {
		if v.ID == id && v.Name == "Integration relief v2" {
			found = true
		}
	}
	if !found {
		t.Fatal("expected updated valve in list")
	}

	if err := repo.Delete(ctx, id); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.Get(ctx, id); !errors.Is(err, valves.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}
