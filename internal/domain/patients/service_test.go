package patients

import (
	"context"
	"errors"
	"testing"
	"time"
)

type testRepo struct {
	byID map[string]Patient
}

func newTestRepo() *testRepo {
	return &testRepo{byID: map[string]Patient{}}
}

func (r *testRepo) Upsert(ctx context.Context, p Patient) error {
	r.byID[p.ID] = p
	return nil
}

func (r *testRepo) GetByID(ctx context.Context, id string) (Patient, error) {
	p, ok := r.byID[id]
	if !ok {
		return Patient{}, ErrNotFound
	}
	return p, nil
}

func (r *testRepo) List(ctx context.Context) ([]Patient, error) {
	out := make([]Patient, 0, len(r.byID))
	for _, p := range r.byID {
		out = append(out, p)
	}
	return out, nil
}

func TestService_Upsert_DefaultsToActive(t *testing.T) {
	svc := NewService(newTestRepo())
	now := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	p, err := svc.Upsert(context.Background(), UpsertInput{ID: " 123 ", FullName: "JUAN PEREZ"})
	if err != nil {
		t.Fatalf("Upsert returned error: %v", err)
	}
	if p.ID != "123" || !p.Active() {
		t.Fatalf("expected active patient 123, got %+v", p)
	}
	if p.CreatedAt != now || p.UpdatedAt != now {
		t.Fatalf("expected timestamps to be now")
	}
}

func TestService_Upsert_RequiresIDAndName(t *testing.T) {
	svc := NewService(newTestRepo())

	if _, err := svc.Upsert(context.Background(), UpsertInput{ID: "1"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestService_RecordDelivery_CountsMonths(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo)
	ctx := context.Background()

	if _, err := svc.Upsert(ctx, UpsertInput{ID: "9", FullName: "ANA"}); err != nil {
		t.Fatalf("Upsert returned error: %v", err)
	}
	for _, d := range []string{"2024-01-10", "2024-01-28", "2024-02-15"} {
		if err := svc.RecordDelivery(ctx, "9", d); err != nil {
			t.Fatalf("RecordDelivery(%s) returned error: %v", d, err)
		}
	}

	p, _ := svc.GetByID(ctx, "9")
	if p.DeliveryHistory["2024-01"] != 2 || p.DeliveryHistory["2024-02"] != 1 {
		t.Fatalf("unexpected history %#v", p.DeliveryHistory)
	}
	if p.MonthsWithDelivery() != 2 {
		t.Fatalf("expected 2 months, got %d", p.MonthsWithDelivery())
	}

	if err := svc.RecordDelivery(ctx, "missing", "2024-03-01"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestService_Upsert_KeepsHistory(t *testing.T) {
	svc := NewService(newTestRepo())
	ctx := context.Background()

	_, _ = svc.Upsert(ctx, UpsertInput{ID: "7", FullName: "LUZ"})
	_ = svc.RecordDelivery(ctx, "7", "2024-05-02")

	p, err := svc.Upsert(ctx, UpsertInput{ID: "7", FullName: "LUZ MARINA", Status: "IN - INACTIVO"})
	if err != nil {
		t.Fatalf("Upsert returned error: %v", err)
	}
	if p.FullName != "LUZ MARINA" || p.Active() {
		t.Fatalf("expected updated inactive patient, got %+v", p)
	}
	if p.DeliveryHistory["2024-05"] != 1 {
		t.Fatalf("expected history preserved, got %#v", p.DeliveryHistory)
	}
}

func TestService_EnsureKnown_OnlyCreatesMissing(t *testing.T) {
	svc := NewService(newTestRepo())
	ctx := context.Background()

	_, _ = svc.Upsert(ctx, UpsertInput{ID: "1", FullName: "EXISTENTE", Status: "IN - INACTIVO"})

	created, err := svc.EnsureKnown(ctx, []UpsertInput{
		{ID: "1", FullName: "OTRO NOMBRE"},
		{ID: "2", FullName: "NUEVO"},
		{ID: "2", FullName: "NUEVO"},
	})
	if err != nil {
		t.Fatalf("EnsureKnown returned error: %v", err)
	}
	if created != 1 {
		t.Fatalf("expected 1 created, got %d", created)
	}

	p, _ := svc.GetByID(ctx, "1")
	if p.FullName != "EXISTENTE" {
		t.Fatalf("existing patient must not be overwritten, got %q", p.FullName)
	}

	active, _ := svc.ListActive(ctx)
	if len(active) != 1 || active[0].ID != "2" {
		t.Fatalf("expected only patient 2 active, got %+v", active)
	}
}
