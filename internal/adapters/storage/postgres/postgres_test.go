package postgres

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"oncology-dispatch/internal/domain/dispatches"
	"oncology-dispatch/internal/domain/patients"
)

// Requiere TEST_DB_DSN apuntando a una base desechable.
func openTestDB(t *testing.T) *DispatchesRepo {
	t.Helper()
	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set")
	}
	db, err := Open(dsn)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	ctx := context.Background()
	if err := Migrate(ctx, db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if _, err := db.ExecContext(ctx, `TRUNCATE dispatches, patients`); err != nil {
		t.Fatalf("truncate: %v", err)
	}
	return NewDispatchesRepo(db)
}

func TestDispatchArgs_RejectsBadDate(t *testing.T) {
	if _, err := dispatchArgs(dispatches.Dispatch{ID: "x", ScheduledDate: "01/06/2024"}); err == nil {
		t.Fatalf("expected error for non ISO date")
	}
}

func TestDispatchesRepo_RoundTrip(t *testing.T) {
	repo := openTestDB(t)
	ctx := context.Background()
	at := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	d := dispatches.Dispatch{
		ID:            "1_20240601_X",
		PatientID:     "1",
		Medication:    "IMATINIB",
		ScheduledDate: "2024-06-01",
		State:         dispatches.StatePending,
		CreatedAt:     at,
		UpdatedAt:     at,
		Timeline:      []dispatches.Milestone{{State: dispatches.StatePending, At: at}},
	}
	if err := repo.UpsertBatch(ctx, []dispatches.Dispatch{d}); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	ex, err := repo.ExistingIDs(ctx, []string{d.ID, "nope"})
	if err != nil || !ex[d.ID] || ex["nope"] {
		t.Fatalf("unexpected existing %v (%v)", ex, err)
	}

	d.State = dispatches.StateScheduled
	if err := repo.Update(ctx, d); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, err := repo.GetByID(ctx, d.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.State != dispatches.StateScheduled || len(got.Timeline) != 1 {
		t.Fatalf("unexpected dispatch %+v", got)
	}

	if err := repo.DeleteBatch(ctx, []string{d.ID}); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.GetByID(ctx, d.ID); !errors.Is(err, dispatches.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPatientsRepo_UpsertHistory(t *testing.T) {
	repo := openTestDB(t)
	pr := NewPatientsRepo(repo.db)
	ctx := context.Background()
	at := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	p := patients.Patient{ID: "1", FullName: "ANA", Status: "AC - ACTIVO", CreatedAt: at, UpdatedAt: at}
	if err := pr.Upsert(ctx, p); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	p.DeliveryHistory = map[string]int{"2024-06": 2}
	if err := pr.Upsert(ctx, p); err != nil {
		t.Fatalf("upsert again: %v", err)
	}

	got, err := pr.GetByID(ctx, "1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.DeliveryHistory["2024-06"] != 2 || !got.Active() {
		t.Fatalf("unexpected patient %+v", got)
	}
	if _, err := pr.GetByID(ctx, "2"); !errors.Is(err, patients.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
