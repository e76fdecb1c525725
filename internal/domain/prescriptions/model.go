package prescriptions

import "oncology-dispatch/internal/domain/formulary"

// Prescription es una fila normalizada del archivo de prescripciones.
// No se persiste; la consume el generador de ruta.
type Prescription struct {
	PatientID    string `json:"pacienteId"`
	FullName     string `json:"nombreCompleto"`
	Medication   string `json:"medicamento"`
	ATC          string `json:"atc,omitempty"`
	Dose         string `json:"dosis,omitempty"`
	Insurer      string `json:"eps,omitempty"`
	Municipality string `json:"municipio,omitempty"`
	Department   string `json:"departamento,omitempty"`
	Phone        string `json:"telefono,omitempty"`
	Gender       string `json:"genero,omitempty"`
	OrderNumber  string `json:"nota,omitempty"`
	Duration     string `json:"duracion,omitempty"`

	// 0 cuando el archivo no trae periodicidad
	ExplicitIntervalDays int `json:"periodicidadDias,omitempty"`
}

// Matcher resuelve el texto libre de medicamento contra el formulario.
type Matcher interface {
	Match(text, atc string) (formulary.Medication, bool)
}

type Stats struct {
	Rows       int    `json:"filas"`
	Skipped    int    `json:"omitidas"`
	Delimiter  string `json:"delimitador"`
	HeaderLine int    `json:"lineaCabecera"`
}

type Result struct {
	Prescriptions []Prescription `json:"prescripciones"`
	Errors        []string       `json:"errores"`
	Stats         Stats          `json:"estadisticas"`
}
