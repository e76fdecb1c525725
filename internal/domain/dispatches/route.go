package dispatches

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"oncology-dispatch/internal/domain/formulary"
	"oncology-dispatch/internal/domain/patients"
	"oncology-dispatch/internal/domain/prescriptions"
)

const DefaultHorizonMonths = 6

// TreatmentLookup resuelve la cadencia configurada para un medicamento.
type TreatmentLookup interface {
	Lookup(name string) formulary.TreatmentConfig
}

// GenerateRoute proyecta los despachos futuros de cada prescripción hasta hoy + horizonMonths.
// El resultado va ordenado por fecha y sin IDs repetidos.
func GenerateRoute(rxs []prescriptions.Prescription, known []patients.Patient, horizonMonths int, today time.Time, lookup TreatmentLookup) []Dispatch {
	if horizonMonths <= 0 {
		horizonMonths = DefaultHorizonMonths
	}
	today = civil(today.Year(), today.Month(), today.Day())
	limit := today.AddDate(0, horizonMonths, 0)

	byID := make(map[string]patients.Patient, len(known))
	for _, p := range known {
		byID[p.ID] = p
	}

	seen := make(map[string]bool)
	out := make([]Dispatch, 0)

	for _, rx := range rxs {
		if strings.TrimSpace(rx.PatientID) == "" || strings.TrimSpace(rx.Medication) == "" {
			continue
		}

		cfg := lookup.Lookup(rx.Medication)
		interval, cycle := resolveInterval(rx, byID, cfg)

		for d := today.AddDate(0, 0, interval); !d.After(limit); d = d.AddDate(0, 0, interval) {
			id := DispatchID(rx.PatientID, d, rx.Medication)
			if seen[id] {
				continue
			}
			seen[id] = true

			out = append(out, Dispatch{
				ID:            id,
				PatientID:     rx.PatientID,
				FullName:      rx.FullName,
				Medication:    rx.Medication,
				Insurer:       rx.Insurer,
				Municipality:  rx.Municipality,
				Dose:          rx.Dose,
				CycleLabel:    cycle,
				IntervalDays:  interval,
				ScheduledDate: FormatDate(d),
				State:         StatePending,
			})
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].ScheduledDate != out[j].ScheduledDate {
			return out[i].ScheduledDate < out[j].ScheduledDate
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// resolveInterval: explícito en la prescripción, inferido del historial (>= 2 meses) o el del formulario.
func resolveInterval(rx prescriptions.Prescription, known map[string]patients.Patient, cfg formulary.TreatmentConfig) (int, string) {
	if rx.ExplicitIntervalDays > 0 {
		return rx.ExplicitIntervalDays, formulary.CycleForInterval(rx.ExplicitIntervalDays)
	}
	if p, ok := known[rx.PatientID]; ok {
		if months := p.MonthsWithDelivery(); months >= 2 {
			if days := int(math.Round(12 / float64(months) * 30)); days > 0 {
				return days, formulary.CycleForInterval(days)
			}
		}
	}
	if cfg.IntervalDays <= 0 {
		cfg = formulary.DefaultTreatment
	}
	label := cfg.CycleLabel
	if label == "" {
		label = formulary.CycleForInterval(cfg.IntervalDays)
	}
	return cfg.IntervalDays, label
}

// DispatchID es determinista: paciente, fecha y prefijo del medicamento.
func DispatchID(patientID string, date time.Time, medication string) string {
	return fmt.Sprintf("%s_%s_%s", strings.TrimSpace(patientID), date.Format("20060102"), medicationPrefix(medication))
}

// medicationPrefix: hasta 20 caracteres A-Z/0-9 del nombre, así dos presentaciones
// del mismo principio activo no colisionan.
func medicationPrefix(name string) string {
	const maxLen = 20
	var b strings.Builder
	for _, r := range strings.ToUpper(name) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			if b.Len() == maxLen {
				break
			}
		}
	}
	return b.String()
}
