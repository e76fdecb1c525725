package formulary

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

var ErrEmptyCatalog = errors.New("formulary: empty catalog")

// fileSpec es el formato del archivo YAML del formulario.
//
//	medicamentos:
//	  - medicamento: ABEMACILIB X 150 MILIGRAMOS
//	    atc: L01EF03
//	    frecuenciaEntrega: 27
//	tratamientos:
//	  CAPECITABINA: {diasEntrega: 14, ciclo: Quincenal}
type fileSpec struct {
	Medications []Medication               `yaml:"medicamentos"`
	Treatments  map[string]TreatmentConfig `yaml:"tratamientos"`
}

// LoadFile carga el formulario desde YAML. Las secciones ausentes usan el catálogo base.
func LoadFile(path string) (*Formulary, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read formulary %s: %w", path, err)
	}
	return Parse(b)
}

func Parse(b []byte) (*Formulary, error) {
	var spec fileSpec
	if err := yaml.Unmarshal(b, &spec); err != nil {
		return nil, fmt.Errorf("parse formulary: %w", err)
	}

	meds := spec.Medications
	if len(meds) == 0 {
		meds = builtinMedications
	}
	treatments := spec.Treatments
	if len(treatments) == 0 {
		treatments = builtinTreatments
	}

	f := New(meds, treatments)
	if len(f.Medications()) == 0 {
		return nil, ErrEmptyCatalog
	}
	return f, nil
}
