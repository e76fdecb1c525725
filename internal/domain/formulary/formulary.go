package formulary

import (
	"sort"
	"strings"
	"sync"
)

// Formulary resuelve medicamentos conocidos y su cadencia de entrega.
// Es seguro para uso concurrente; Replace permite recargar el catálogo.
type Formulary struct {
	mu          sync.RWMutex
	medications []Medication
	treatments  map[string]TreatmentConfig
	// claves de tratamiento ordenadas de la más larga a la más corta
	treatmentKeys []string
}

func New(meds []Medication, treatments map[string]TreatmentConfig) *Formulary {
	f := &Formulary{}
	f.set(meds, treatments)
	return f
}

// Replace sustituye el catálogo de medicamentos; si treatments es nil se conserva la tabla actual.
func (f *Formulary) Replace(meds []Medication, treatments map[string]TreatmentConfig) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if treatments == nil {
		treatments = f.treatments
	}
	f.setLocked(meds, treatments)
}

func (f *Formulary) set(meds []Medication, treatments map[string]TreatmentConfig) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.setLocked(meds, treatments)
}

func (f *Formulary) setLocked(meds []Medication, treatments map[string]TreatmentConfig) {
	f.medications = make([]Medication, 0, len(meds))
	for _, m := range meds {
		m.Name = normalizeName(m.Name)
		m.ATC = strings.ToUpper(strings.TrimSpace(m.ATC))
		if m.Name == "" {
			continue
		}
		f.medications = append(f.medications, m)
	}

	f.treatments = make(map[string]TreatmentConfig, len(treatments))
	f.treatmentKeys = f.treatmentKeys[:0]
	for k, cfg := range treatments {
		k = normalizeName(k)
		if k == "" || strings.EqualFold(k, "default") {
			continue
		}
		if cfg.CycleLabel == "" {
			cfg.CycleLabel = CycleForInterval(cfg.IntervalDays)
		}
		f.treatments[k] = cfg
		f.treatmentKeys = append(f.treatmentKeys, k)
	}
	sort.Slice(f.treatmentKeys, func(i, j int) bool {
		if len(f.treatmentKeys[i]) != len(f.treatmentKeys[j]) {
			return len(f.treatmentKeys[i]) > len(f.treatmentKeys[j])
		}
		return f.treatmentKeys[i] < f.treatmentKeys[j]
	})
}

// Medications devuelve una copia del catálogo.
func (f *Formulary) Medications() []Medication {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]Medication, len(f.medications))
	copy(out, f.medications)
	return out
}

// Keys lista las claves reconocibles: nombres del catálogo y principios activos.
func (f *Formulary) Keys() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]string, 0, len(f.medications)+len(f.treatmentKeys))
	for _, m := range f.medications {
		out = append(out, m.Name)
	}
	out = append(out, f.treatmentKeys...)
	sort.Strings(out)
	return out
}

// Lookup devuelve la configuración de entrega para un medicamento:
// nombre exacto del catálogo, clave exacta, clave contenida en el nombre y por último el default.
func (f *Formulary) Lookup(name string) TreatmentConfig {
	key := normalizeName(name)
	if key == "" {
		return DefaultTreatment
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	for _, m := range f.medications {
		if m.Name == key && m.DeliveryFrequency > 0 {
			return TreatmentConfig{
				IntervalDays: m.DeliveryFrequency,
				CycleLabel:   CycleForInterval(m.DeliveryFrequency),
			}
		}
	}
	if cfg, ok := f.treatments[key]; ok {
		return cfg
	}
	for _, k := range f.treatmentKeys {
		if strings.Contains(key, k) {
			return f.treatments[k]
		}
	}
	return DefaultTreatment
}

// Match busca el medicamento del catálogo que corresponde al texto libre de una fila.
// Orden: ATC exacto, nombre igual, contención en cualquier sentido, solapamiento de palabras
// y finalmente principio activo contenido en el texto (se conserva el texto original).
func (f *Formulary) Match(text, atc string) (Medication, bool) {
	t := normalizeName(text)
	atc = strings.ToUpper(strings.TrimSpace(atc))
	if t == "" && atc == "" {
		return Medication{}, false
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	if atc != "" {
		// con varias presentaciones por ATC, el texto decide cuál
		var candidates []Medication
		for _, m := range f.medications {
			if m.ATC == atc {
				candidates = append(candidates, m)
			}
		}
		if len(candidates) == 1 || (len(candidates) > 1 && t == "") {
			return candidates[0], true
		}
		if len(candidates) > 1 {
			if m, ok := bestOverlap(t, candidates, false); ok {
				return m, true
			}
			return candidates[0], true
		}
	}
	if t == "" {
		return Medication{}, false
	}

	for _, m := range f.medications {
		if m.Name == t {
			return m, true
		}
	}
	for _, m := range f.medications {
		if strings.Contains(t, m.Name) || (len(t) >= 4 && strings.Contains(m.Name, t)) {
			return m, true
		}
	}
	if m, ok := bestOverlap(t, f.medications, true); ok {
		return m, true
	}
	for _, k := range f.treatmentKeys {
		if strings.Contains(t, k) {
			return Medication{Name: t}, true
		}
	}
	return Medication{}, false
}

// bestOverlap elige la entrada con más palabras en común. Con strict, exige al menos
// dos palabras significativas (más de 3 letras) o una sola de más de 8.
func bestOverlap(t string, meds []Medication, strict bool) (Medication, bool) {
	input := words(t)
	var (
		best      Medication
		bestScore int
	)
	for _, m := range meds {
		have := make(map[string]bool)
		for _, w := range words(m.Name) {
			have[w] = true
		}

		score, significant, longest := 0, 0, 0
		for _, w := range input {
			if !have[w] {
				continue
			}
			score++
			if len(w) > 3 {
				significant++
				if len(w) > longest {
					longest = len(w)
				}
			}
		}
		if strict && significant < 2 && !(significant == 1 && longest > 8) {
			continue
		}
		if score > bestScore {
			best, bestScore = m, score
		}
	}
	return best, bestScore > 0
}

func words(s string) []string {
	parts := strings.FieldsFunc(s, func(r rune) bool {
		switch r {
		case ' ', '\t', ',', '*', '+', '(', ')', '-':
			return true
		}
		return false
	})
	out := parts[:0]
	seen := map[string]bool{}
	for _, p := range parts {
		// "X" separa concentración: "AFATINIB X 30"
		if p == "X" || seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}

func normalizeName(s string) string {
	return strings.Join(strings.Fields(strings.ToUpper(s)), " ")
}
