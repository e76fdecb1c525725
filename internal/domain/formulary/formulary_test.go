package formulary

import "testing"

func TestLookup_CatalogNameUsesDeliveryFrequency(t *testing.T) {
	f := Builtin()

	cfg := f.Lookup("abemacilib x 150 miligramos")
	if cfg.IntervalDays != 27 {
		t.Fatalf("expected 27 days, got %d", cfg.IntervalDays)
	}
	if cfg.CycleLabel != CycleMonthly {
		t.Fatalf("expected Mensual, got %s", cfg.CycleLabel)
	}
}

func TestLookup_PartialKeyAndDefault(t *testing.T) {
	f := Builtin()

	if cfg := f.Lookup("CAPECITABINA 500 MG"); cfg.IntervalDays != 14 || cfg.CycleLabel != CycleBiweekly {
		t.Fatalf("expected capecitabina 14/Quincenal, got %+v", cfg)
	}
	if cfg := f.Lookup("LOMUSTINA"); cfg.IntervalDays != 42 {
		t.Fatalf("expected lomustina 42, got %+v", cfg)
	}
	if cfg := f.Lookup("PARACETAMOL"); cfg != DefaultTreatment {
		t.Fatalf("expected default, got %+v", cfg)
	}
	if cfg := f.Lookup("   "); cfg != DefaultTreatment {
		t.Fatalf("expected default for blank name, got %+v", cfg)
	}
}

func TestMatch_WordOverlapPicksCatalogEntry(t *testing.T) {
	f := Builtin()

	m, ok := f.Match("ABEMACILIB X 150 MG", "")
	if !ok {
		t.Fatalf("expected match")
	}
	if m.Name != "ABEMACILIB X 150 MILIGRAMOS" {
		t.Fatalf("unexpected match %q", m.Name)
	}

	m, ok = f.Match("abemacilib x 100 mg", "")
	if !ok || m.Name != "ABEMACILIB X 100 MILIGRAMOS" {
		t.Fatalf("expected 100 mg presentation, got %q (ok=%v)", m.Name, ok)
	}
}

func TestMatch_ByATCAndTreatmentKey(t *testing.T) {
	f := Builtin()

	m, ok := f.Match("", "l01ed03")
	if !ok || m.Name != "ALECTINIB X 150 MILIGRAMOS" {
		t.Fatalf("expected alectinib by ATC, got %q (ok=%v)", m.Name, ok)
	}

	m, ok = f.Match("Imatinib 400 mg tableta", "")
	if !ok {
		t.Fatalf("expected treatment key match")
	}
	if m.Name != "IMATINIB 400 MG TABLETA" {
		t.Fatalf("expected original text kept, got %q", m.Name)
	}
}

func TestMatch_UnknownMedication(t *testing.T) {
	f := Builtin()

	if _, ok := f.Match("ACETAMINOFEN 500", ""); ok {
		t.Fatalf("expected no match")
	}
	if _, ok := f.Match("", ""); ok {
		t.Fatalf("expected no match for empty input")
	}
}

func TestParse_YAMLOverridesCatalog(t *testing.T) {
	f, err := Parse([]byte(`
medicamentos:
  - medicamento: olaparib x 150 miligramos
    atc: L01XK01
    frecuenciaEntrega: 28
tratamientos:
  OLAPARIB: {diasEntrega: 21}
`))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}

	meds := f.Medications()
	if len(meds) != 1 || meds[0].Name != "OLAPARIB X 150 MILIGRAMOS" {
		t.Fatalf("unexpected catalog %#v", meds)
	}
	if cfg := f.Lookup("OLAPARIB"); cfg.IntervalDays != 21 || cfg.CycleLabel != CycleMonthly {
		t.Fatalf("expected 21/Mensual, got %+v", cfg)
	}
	if cfg := f.Lookup("IMATINIB"); cfg != DefaultTreatment {
		t.Fatalf("builtin treatments should be replaced, got %+v", cfg)
	}
}

func TestCycleForInterval(t *testing.T) {
	if CycleForInterval(7) != CycleWeekly {
		t.Fatalf("7 days should be Semanal")
	}
	if CycleForInterval(14) != CycleBiweekly {
		t.Fatalf("14 days should be Quincenal")
	}
	if CycleForInterval(28) != CycleMonthly {
		t.Fatalf("28 days should be Mensual")
	}
}
