package dispatches

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestDispatchJSON_ConfirmedDerivedFromState(t *testing.T) {
	d := Dispatch{
		ID:               "1_20240628_IMATINIB",
		PatientID:        "1",
		ScheduledDate:    "2024-06-28",
		ConfirmationDate: "2024-06-27",
		State:            StateDelivered,
		CreatedAt:        time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
	}

	b, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var raw map[string]any
	if err := json.Unmarshal(b, &raw); err != nil {
		t.Fatalf("Unmarshal raw: %v", err)
	}
	if raw["confirmado"] != true || raw["estadoActual"] != "Entregado" || raw["pacienteId"] != "1" {
		t.Fatalf("unexpected document %s", b)
	}
	if _, ok := raw["ultimaModificacion"]; ok {
		t.Fatalf("zero timestamps should be omitted: %s", b)
	}

	d.State = StatePostponed
	b, _ = json.Marshal(d)
	if !strings.Contains(string(b), `"confirmado":false`) {
		t.Fatalf("expected confirmado false for Pospuesto: %s", b)
	}
}

func TestDispatchJSON_LegacyDocuments(t *testing.T) {
	var d Dispatch

	if err := json.Unmarshal([]byte(`{"id":"x","confirmado":true,"fechaConfirmacion":"2024-01-02"}`), &d); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if d.State != StateDelivered {
		t.Fatalf("expected state derived from confirmado, got %q", d.State)
	}

	if err := json.Unmarshal([]byte(`{"id":"y","confirmado":false,"estadoActual":"Suspendido"}`), &d); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if d.State != StatePending {
		t.Fatalf("expected unknown state to fall back to Pendiente, got %q", d.State)
	}

	// estadoActual manda aunque confirmado diga otra cosa
	if err := json.Unmarshal([]byte(`{"id":"z","confirmado":true,"estadoActual":"Cancelado","motivo":"fallecido"}`), &d); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if d.State != StateCancelled || d.Confirmed() || d.Reason != "fallecido" {
		t.Fatalf("expected Cancelado to win, got %+v", d)
	}
}

func TestDispatchJSON_RoundTrip(t *testing.T) {
	at := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	in := Dispatch{
		ID:            "1_20240628_IMATINIB",
		PatientID:     "1",
		FullName:      "ANA",
		Medication:    "IMATINIB",
		IntervalDays:  30,
		CycleLabel:    "Mensual",
		ScheduledDate: "2024-06-28",
		State:         StateScheduled,
		Modality:      ModalityPharmacy,
		ModifiedBy:    "ops",
		CreatedAt:     at,
		UpdatedAt:     at,
		Timeline:      []Milestone{{State: StatePending, Date: "2024-06-28", At: at}},
	}

	b, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var out Dispatch
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if out.ID != in.ID || out.State != in.State || out.IntervalDays != 30 || !out.UpdatedAt.Equal(at) || len(out.Timeline) != 1 {
		t.Fatalf("round trip lost data: %+v", out)
	}
}
