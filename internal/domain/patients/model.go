package patients

import (
	"strings"
	"time"
)

// StatusActive es el prefijo de estado de un paciente activo ("AC - ACTIVO").
const StatusActive = "AC"

// Patient es un paciente del programa de entregas.
type Patient struct {
	ID           string
	FullName     string
	Medication   string
	Dose         string
	Insurer      string
	Municipality string
	Department   string
	Phone        string
	Status       string

	// entregas registradas por mes "YYYY-MM"
	DeliveryHistory map[string]int

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (p Patient) Active() bool {
	return strings.HasPrefix(strings.ToUpper(strings.TrimSpace(p.Status)), StatusActive)
}

// MonthsWithDelivery cuenta los meses con al menos una entrega.
func (p Patient) MonthsWithDelivery() int {
	n := 0
	for _, c := range p.DeliveryHistory {
		if c > 0 {
			n++
		}
	}
	return n
}
