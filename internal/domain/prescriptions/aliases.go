package prescriptions

import "strings"

type column int

const (
	colID column = iota
	colFirstName
	colSecondName
	colFirstSurname
	colSecondSurname
	colFullName
	colMedication
	colATC
	colDose
	colInsurer
	colCity
	colDepartment
	colPhone
	colGender
	colOrder
	colDuration
	colInterval
	numColumns
)

type aliasSet struct {
	names []string
	// solo coincidencia exacta (alias demasiado genéricos)
	exactOnly bool
	// cabeceras que nunca se aceptan por coincidencia parcial
	exclude []string
}

// Alias en orden de prioridad, ya normalizados. Los alias de 3 letras o menos
// solo se aceptan por coincidencia exacta.
var aliases = [numColumns]aliasSet{
	colID: {
		names:   []string{"identificacion", "numero_de_identificacion", "cedula", "documento", "numero_documento", "identificaci", "numero_de_ident", "nro_ident", "paciente_id", "num_doc", "cc", "id"},
		exclude: []string{"tipo"},
	},
	colFirstName:     {names: []string{"nombre_1", "primer_nombre", "nombre1", "names"}},
	colSecondName:    {names: []string{"nombre_2", "segundo_nombre", "nombre2"}},
	colFirstSurname:  {names: []string{"apellido_1", "primer_apellido", "apellido1", "apellidos"}},
	colSecondSurname: {names: []string{"apellido_2", "segundo_apellido", "apellido2"}},
	colFullName: {
		names:     []string{"nombre_completo", "nombre", "nombres", "nombre_paciente", "paciente"},
		exactOnly: true,
	},
	colMedication: {names: []string{"medicamento", "producto", "descripcion", "insumo"}},
	colATC:        {names: []string{"atc", "codigo_atc", "code_atc"}},
	colDose:       {names: []string{"dosis", "posologia", "dose"}},
	colInsurer:    {names: []string{"entidad_aseguradora", "eps", "aseguradora", "entidad"}},
	colCity:       {names: []string{"ciudad_de_residencia", "ciudad", "municipio", "localidad"}},
	colDepartment: {names: []string{"departamento", "depto", "dpto"}},
	colPhone:      {names: []string{"telefonos", "telefono", "celular", "movil"}},
	colGender:     {names: []string{"genero", "sexo", "sex"}},
	colOrder:      {names: []string{"numero_nota", "nota", "nro_nota"}},
	colDuration:   {names: []string{"duracion_de_tratamiento", "duracion", "tratamiento_dias"}},
	colInterval:   {names: []string{"periodicidad", "dias_entrega", "frecuencia_entrega", "intervalo_dias"}},
}

// columnMap guarda el índice de cada columna lógica, -1 si no aparece.
type columnMap [numColumns]int

// mapColumns resuelve las columnas lógicas sobre cabeceras normalizadas.
// Solo cuenta la primera aparición de cada nombre; las repetidas se ignoran.
func mapColumns(headers []string) columnMap {
	first := make(map[string]int, len(headers))
	ordered := make([]string, 0, len(headers))
	for i, h := range headers {
		if h == "" {
			continue
		}
		if _, seen := first[h]; seen {
			continue
		}
		first[h] = i
		ordered = append(ordered, h)
	}

	var cm columnMap
	for c := range cm {
		cm[c] = resolve(aliases[c], first, ordered)
	}
	return cm
}

func resolve(set aliasSet, first map[string]int, ordered []string) int {
	for _, a := range set.names {
		if i, ok := first[a]; ok {
			return i
		}
	}
	if set.exactOnly {
		return -1
	}
	for _, a := range set.names {
		if len(a) <= 3 {
			continue
		}
		for _, h := range ordered {
			if !strings.Contains(h, a) || excluded(h, set.exclude) {
				continue
			}
			return first[h]
		}
	}
	return -1
}

func excluded(h string, words []string) bool {
	for _, w := range words {
		if strings.Contains(h, w) {
			return true
		}
	}
	return false
}

// isHeader exige al menos dos de: identificación, medicamento, nombre.
func (cm columnMap) isHeader() bool {
	n := 0
	if cm[colID] >= 0 {
		n++
	}
	if cm[colMedication] >= 0 {
		n++
	}
	if cm[colFirstName] >= 0 || cm[colFullName] >= 0 {
		n++
	}
	return n >= 2
}
