package dispatches

import (
	"encoding/json"
	"time"
)

// document es la forma plana con la que se expone y persiste un despacho.
// confirmado se calcula del estado al escribir.
type document struct {
	ID                string      `json:"id"`
	PacienteID        string      `json:"pacienteId"`
	NombreCompleto    string      `json:"nombreCompleto"`
	Medicamento       string      `json:"medicamento"`
	EPS               string      `json:"eps"`
	Municipio         string      `json:"municipio"`
	Dosis             string      `json:"dosis"`
	Ciclo             string      `json:"ciclo"`
	DiasEntrega       int         `json:"diasEntrega"`
	FechaProgramada   string      `json:"fechaProgramada"`
	Confirmado        bool        `json:"confirmado"`
	FechaConfirmacion string      `json:"fechaConfirmacion,omitempty"`
	Observaciones     string      `json:"observaciones,omitempty"`
	EstadoActual      State       `json:"estadoActual"`
	Motivo            string      `json:"motivo,omitempty"`
	Modalidad         Modality    `json:"modalidadEntrega,omitempty"`
	ModificadoPor     string      `json:"modificadoPor,omitempty"`
	CreadoEn          *time.Time  `json:"creadoEn,omitempty"`
	UltimaModif       *time.Time  `json:"ultimaModificacion,omitempty"`
	Hitos             []Milestone `json:"hitos,omitempty"`
}

func (d Dispatch) MarshalJSON() ([]byte, error) {
	doc := document{
		ID:                d.ID,
		PacienteID:        d.PatientID,
		NombreCompleto:    d.FullName,
		Medicamento:       d.Medication,
		EPS:               d.Insurer,
		Municipio:         d.Municipality,
		Dosis:             d.Dose,
		Ciclo:             d.CycleLabel,
		DiasEntrega:       d.IntervalDays,
		FechaProgramada:   d.ScheduledDate,
		Confirmado:        d.Confirmed(),
		FechaConfirmacion: d.ConfirmationDate,
		Observaciones:     d.Notes,
		EstadoActual:      d.State,
		Motivo:            d.Reason,
		Modalidad:         d.Modality,
		ModificadoPor:     d.ModifiedBy,
		Hitos:             d.Timeline,
	}
	if !d.CreatedAt.IsZero() {
		doc.CreadoEn = &d.CreatedAt
	}
	if !d.UpdatedAt.IsZero() {
		doc.UltimaModif = &d.UpdatedAt
	}
	return json.Marshal(doc)
}

// UnmarshalJSON acepta documentos antiguos: manda estadoActual; si falta, se deriva de confirmado.
func (d *Dispatch) UnmarshalJSON(b []byte) error {
	var doc document
	if err := json.Unmarshal(b, &doc); err != nil {
		return err
	}

	state := doc.EstadoActual
	if !state.Valid() {
		state = StatePending
		if doc.Confirmado {
			state = StateDelivered
		}
	}

	*d = Dispatch{
		ID:               doc.ID,
		PatientID:        doc.PacienteID,
		FullName:         doc.NombreCompleto,
		Medication:       doc.Medicamento,
		Insurer:          doc.EPS,
		Municipality:     doc.Municipio,
		Dose:             doc.Dosis,
		CycleLabel:       doc.Ciclo,
		IntervalDays:     doc.DiasEntrega,
		ScheduledDate:    doc.FechaProgramada,
		ConfirmationDate: doc.FechaConfirmacion,
		Notes:            doc.Observaciones,
		State:            state,
		Reason:           doc.Motivo,
		Modality:         doc.Modalidad,
		ModifiedBy:       doc.ModificadoPor,
		Timeline:         doc.Hitos,
	}
	if doc.CreadoEn != nil {
		d.CreatedAt = *doc.CreadoEn
	}
	if doc.UltimaModif != nil {
		d.UpdatedAt = *doc.UltimaModif
	}
	return nil
}
