package dispatches

import "time"

// State es el estado del ciclo de vida de un despacho.
type State string

const (
	StatePending   State = "Pendiente"
	StateScheduled State = "Agendado"
	StatePostponed State = "Pospuesto"
	StateDelivered State = "Entregado"
	StateCancelled State = "Cancelado"
)

func (s State) Valid() bool {
	switch s {
	case StatePending, StateScheduled, StatePostponed, StateDelivered, StateCancelled:
		return true
	}
	return false
}

// Terminal: Entregado y Cancelado no admiten más transiciones.
func (s State) Terminal() bool {
	return s == StateDelivered || s == StateCancelled
}

// Modality es la forma de entrega registrada al confirmar.
type Modality string

const (
	ModalityPharmacy Modality = "Farmacia"
	ModalityHome     Modality = "Domicilio"
)

// Milestone es un hito del historial del despacho.
type Milestone struct {
	State State     `json:"estado"`
	Date  string    `json:"fecha,omitempty"`
	Note  string    `json:"nota,omitempty"`
	Actor string    `json:"actor,omitempty"`
	At    time.Time `json:"registradoEn"`
}

// Dispatch es una entrega programada de medicamento a un paciente.
// Fechas en formato YYYY-MM-DD sin hora.
type Dispatch struct {
	ID           string
	PatientID    string
	FullName     string
	Medication   string
	Insurer      string
	Municipality string
	Dose         string
	CycleLabel   string
	IntervalDays int

	ScheduledDate    string
	ConfirmationDate string
	Notes            string
	Reason           string
	State            State
	Modality         Modality

	ModifiedBy string
	CreatedAt  time.Time
	UpdatedAt  time.Time
	Timeline   []Milestone
}

// Confirmed se deriva del estado; no se guarda por separado.
func (d Dispatch) Confirmed() bool {
	return d.State == StateDelivered
}
