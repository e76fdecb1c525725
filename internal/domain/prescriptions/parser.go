package prescriptions

import (
	"encoding/csv"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const (
	msgEmptyInput = "El archivo CSV está vacío o no tiene datos."
	msgNoHeader   = "No se encontró cabecera válida."

	// la cabecera se busca solo en las primeras líneas
	headerScanLines = 20
)

var (
	ErrEmptyInput = errors.New(msgEmptyInput)
	ErrNoHeader   = errors.New(msgNoHeader)
)

type line struct {
	num  int // 1-based, como lo ve el usuario en el editor
	text string
}

// ParseBytes decodifica (UTF-8 o Windows-1252) y parsea.
func ParseBytes(b []byte, m Matcher) (Result, error) {
	return Parse(decode(b), m)
}

// Parse convierte el texto CSV en prescripciones. Los errores por fila se acumulan
// en Result.Errors; solo la ausencia de datos o de cabecera devuelve error.
func Parse(text string, m Matcher) (Result, error) {
	lines := splitLines(text)
	if len(lines) == 0 {
		return Result{Prescriptions: []Prescription{}, Errors: []string{msgEmptyInput}}, ErrEmptyInput
	}

	headerAt, sep, cols, ok := findHeader(lines)
	if !ok {
		return Result{Prescriptions: []Prescription{}, Errors: []string{msgNoHeader}}, ErrNoHeader
	}

	st := parseState{matcher: m, sep: sep, cols: cols}
	for _, ln := range lines[headerAt+1:] {
		st = st.step(ln)
	}

	res := Result{
		Prescriptions: st.out,
		Errors:        st.errs,
		Stats: Stats{
			Rows:       len(lines) - headerAt - 1,
			Skipped:    st.skipped,
			Delimiter:  string(sep),
			HeaderLine: lines[headerAt].num,
		},
	}
	if res.Prescriptions == nil {
		res.Prescriptions = []Prescription{}
	}
	if res.Errors == nil {
		res.Errors = []string{}
	}
	return res, nil
}

func splitLines(text string) []line {
	raw := strings.Split(text, "\n")
	out := make([]line, 0, len(raw))
	for i, l := range raw {
		l = strings.TrimRight(l, "\r")
		if strings.TrimSpace(l) == "" {
			continue
		}
		out = append(out, line{num: i + 1, text: l})
	}
	return out
}

// findHeader recorre las primeras líneas; el delimitador es ';' si la línea lo contiene.
func findHeader(lines []line) (idx int, sep rune, cols columnMap, ok bool) {
	limit := headerScanLines
	if len(lines) < limit {
		limit = len(lines)
	}
	for i := 0; i < limit; i++ {
		d := ','
		if strings.ContainsRune(lines[i].text, ';') {
			d = ';'
		}
		fields, err := splitRecord(lines[i].text, d)
		if err != nil {
			continue
		}
		headers := make([]string, len(fields))
		for j, f := range fields {
			headers[j] = normalizeHeader(f)
		}
		cm := mapColumns(headers)
		if cm.isHeader() {
			return i, d, cm, true
		}
	}
	return 0, 0, columnMap{}, false
}

func splitRecord(text string, sep rune) ([]string, error) {
	r := csv.NewReader(strings.NewReader(text))
	r.Comma = sep
	r.LazyQuotes = true
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	rec, err := r.Read()
	if err != nil {
		return nil, err
	}
	for i := range rec {
		rec[i] = strings.TrimSpace(rec[i])
	}
	return rec, nil
}

// patient es la identidad que se arrastra a las filas de continuación.
type patient struct {
	id         string
	fullName   string
	city       string
	department string
	insurer    string
	phone      string
	gender     string
}

// parseState es el acumulador del fold sobre las filas.
type parseState struct {
	matcher Matcher
	sep     rune
	cols    columnMap

	last    *patient
	out     []Prescription
	errs    []string
	skipped int
}

func (st parseState) step(ln line) parseState {
	fields, err := splitRecord(ln.text, st.sep)
	if err != nil {
		st.errs = append(st.errs, fmt.Sprintf("Fila %d: formato inválido (%v)", ln.num, err))
		return st
	}
	if len(fields) < 2 {
		st.skipped++
		return st
	}

	get := func(c column) string {
		i := st.cols[c]
		if i < 0 || i >= len(fields) {
			return ""
		}
		return strings.Trim(fields[i], `"' `)
	}

	med, ok := st.matcher.Match(get(colMedication), get(colATC))
	if !ok {
		st.skipped++
		return st
	}

	var p patient
	if id := cleanID(get(colID)); id != "" {
		p = patient{
			id:         id,
			fullName:   fullName(get(colFirstName), get(colSecondName), get(colFirstSurname), get(colSecondSurname), get(colFullName)),
			city:       collapseSpaces(get(colCity)),
			department: collapseSpaces(get(colDepartment)),
			insurer:    collapseSpaces(get(colInsurer)),
			phone:      get(colPhone),
			gender:     get(colGender),
		}
		if p.fullName == "" {
			p.fullName = "PACIENTE_" + id
		}
	} else {
		if st.last == nil {
			st.errs = append(st.errs, fmt.Sprintf("Fila %d: sin paciente previo para continuar", ln.num))
			return st
		}
		p = *st.last
		if v := collapseSpaces(get(colInsurer)); v != "" {
			p.insurer = v
		}
	}

	rx := Prescription{
		PatientID:    p.id,
		FullName:     p.fullName,
		Medication:   med.Name,
		ATC:          med.ATC,
		Dose:         collapseSpaces(get(colDose)),
		Insurer:      p.insurer,
		Municipality: p.city,
		Department:   p.department,
		Phone:        p.phone,
		Gender:       p.gender,
		OrderNumber:  get(colOrder),
		Duration:     get(colDuration),
	}
	if rx.Dose == "" {
		rx.Dose = med.StandardDose
	}
	if n, err := strconv.Atoi(strings.TrimSpace(get(colInterval))); err == nil && n > 0 {
		rx.ExplicitIntervalDays = n
	}

	st.out = append(st.out, rx)
	st.last = &p
	return st
}

func fullName(first, second, surname, secondSurname, whole string) string {
	parts := make([]string, 0, 4)
	for _, s := range []string{first, second, surname, secondSurname} {
		if s = collapseSpaces(s); s != "" {
			parts = append(parts, s)
		}
	}
	if len(parts) > 0 {
		return strings.ToUpper(strings.Join(parts, " "))
	}
	return strings.ToUpper(collapseSpaces(whole))
}
