package dispatches

import (
	"testing"
	"time"
)

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := ParseDate(s)
	if err != nil {
		t.Fatalf("ParseDate(%q): %v", s, err)
	}
	return d
}

func TestIsUrgent_SevenDayWindow(t *testing.T) {
	today := mustDate(t, "2024-06-01")

	if !IsUrgent("2024-06-01", today) {
		t.Fatalf("today should be urgent")
	}
	if !IsUrgent("2024-06-08", today) {
		t.Fatalf("today+7 should be urgent")
	}
	if IsUrgent("2024-06-09", today) {
		t.Fatalf("today+8 should not be urgent")
	}
	if IsUrgent("2024-05-31", today) {
		t.Fatalf("past dates should not be urgent")
	}
	if IsUrgent("no-date", today) {
		t.Fatalf("invalid date should not be urgent")
	}
}

func TestIsOverdue_DeliveredNeverOverdue(t *testing.T) {
	today := mustDate(t, "2024-06-01")

	d := Dispatch{ScheduledDate: "2024-05-31", State: StatePending}
	if !IsOverdue(d, today) {
		t.Fatalf("expected pending past dispatch to be overdue")
	}

	d.State = StateDelivered
	if IsOverdue(d, today) {
		t.Fatalf("delivered dispatch must never be overdue")
	}

	if IsOverdue(Dispatch{ScheduledDate: "2024-06-01", State: StatePending}, today) {
		t.Fatalf("today is not overdue")
	}
}

func TestToday_UsesLocation(t *testing.T) {
	bogota := time.FixedZone("COT", -5*60*60)
	now := time.Date(2024, 6, 2, 3, 0, 0, 0, time.UTC) // 22:00 del 1 en Bogotá

	got := Today(now, bogota)
	if FormatDate(got) != "2024-06-01" {
		t.Fatalf("expected 2024-06-01, got %s", FormatDate(got))
	}
	if got.Location() != time.UTC || got.Hour() != 0 {
		t.Fatalf("expected civil date at UTC midnight, got %v", got)
	}
}

func TestDaysBetween_AcrossMonths(t *testing.T) {
	if n := DaysBetween(mustDate(t, "2024-02-27"), mustDate(t, "2024-03-01")); n != 3 {
		t.Fatalf("expected 3 days (leap year), got %d", n)
	}
	if n := DaysBetween(mustDate(t, "2024-06-01"), mustDate(t, "2024-05-25")); n != -7 {
		t.Fatalf("expected -7, got %d", n)
	}
}

func TestClassify(t *testing.T) {
	today := mustDate(t, "2024-06-01")

	cases := map[string]Dispatch{
		"Vencido":   {ScheduledDate: "2024-05-20", State: StatePending},
		"Urgente":   {ScheduledDate: "2024-06-03", State: StatePending},
		"Pendiente": {ScheduledDate: "2024-07-01", State: StatePending},
		"Agendado":  {ScheduledDate: "2024-05-20", State: StateScheduled},
		"Entregado": {ScheduledDate: "2024-05-20", State: StateDelivered},
	}
	for want, d := range cases {
		if got := Classify(d, today); got != want {
			t.Fatalf("Classify(%+v) = %q, want %q", d, got, want)
		}
	}
}

func TestParseDate_Invalid(t *testing.T) {
	if _, err := ParseDate("2024-13-01"); err == nil {
		t.Fatalf("expected error for invalid month")
	}
	if _, err := ParseDate("01/06/2024"); err == nil {
		t.Fatalf("expected error for non ISO date")
	}
}
