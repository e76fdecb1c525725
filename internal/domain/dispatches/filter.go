package dispatches

import (
	"sort"
	"strings"
	"time"
)

// Valores del filtro de estado del listado.
const (
	FilterDelivered = "entregados"
	FilterScheduled = "agendados"
	FilterPending   = "pendientes"
	FilterOverdue   = "vencidos"
	FilterUrgent    = "urgentes"
	FilterCancelled = "cancelados"
	FilterPostponed = "pospuestos"
)

// Columnas de ordenamiento.
const (
	SortDate       = "fecha"
	SortPatient    = "paciente"
	SortMedication = "medicamento"
	SortInsurer    = "eps"
	SortCycle      = "ciclo"
	SortState      = "estado"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 200
)

type ListFilter struct {
	Status    string // entregados, agendados, pendientes, vencidos, urgentes, cancelados, pospuestos
	Query     string // nombre, medicamento o municipio
	Insurer   string
	Cycle     string
	PatientID string
	SortBy    string
	SortAsc   bool
	Page      int
	PageSize  int
}

// Page es una página del listado.
type Page struct {
	Items    []Dispatch `json:"items"`
	Total    int        `json:"total"`
	Page     int        `json:"page"`
	PageSize int        `json:"pageSize"`
	Pages    int        `json:"pages"`
}

func ValidStatusFilter(s string) bool {
	switch s {
	case "", FilterDelivered, FilterScheduled, FilterPending, FilterOverdue, FilterUrgent, FilterCancelled, FilterPostponed:
		return true
	}
	return false
}

func ValidSort(s string) bool {
	switch s {
	case "", SortDate, SortPatient, SortMedication, SortInsurer, SortCycle, SortState:
		return true
	}
	return false
}

// finalized: ya no requiere gestión urgente.
func finalized(d Dispatch) bool {
	return d.State == StateDelivered || d.State == StateCancelled || d.State == StatePostponed
}

// overdueOpen: vencido y sin cancelar.
func overdueOpen(d Dispatch, today time.Time) bool {
	return d.State != StateCancelled && IsOverdue(d, today)
}

func matchesStatus(d Dispatch, status string, today time.Time) bool {
	switch status {
	case "":
		return true
	case FilterDelivered:
		return d.State == StateDelivered
	case FilterScheduled:
		return d.State == StateScheduled
	case FilterPending:
		return d.State == StatePending && !IsOverdue(d, today)
	case FilterOverdue:
		return overdueOpen(d, today)
	case FilterUrgent:
		return !finalized(d) && IsUrgent(d.ScheduledDate, today)
	case FilterCancelled:
		return d.State == StateCancelled
	case FilterPostponed:
		return d.State == StatePostponed
	}
	return false
}

// Filter aplica los filtros sin ordenar ni paginar.
func Filter(items []Dispatch, f ListFilter, today time.Time) []Dispatch {
	q := strings.ToLower(strings.TrimSpace(f.Query))
	out := make([]Dispatch, 0, len(items))
	for _, d := range items {
		if !matchesStatus(d, f.Status, today) {
			continue
		}
		if q != "" &&
			!strings.Contains(strings.ToLower(d.FullName), q) &&
			!strings.Contains(strings.ToLower(d.Medication), q) &&
			!strings.Contains(strings.ToLower(d.Municipality), q) {
			continue
		}
		if f.Insurer != "" && !strings.EqualFold(d.Insurer, f.Insurer) {
			continue
		}
		if f.Cycle != "" && !strings.EqualFold(d.CycleLabel, f.Cycle) {
			continue
		}
		if f.PatientID != "" && d.PatientID != f.PatientID {
			continue
		}
		out = append(out, d)
	}
	return out
}

// Sort ordena en el lugar; por defecto fecha descendente.
func Sort(items []Dispatch, by string, asc bool) {
	key := func(d Dispatch) string {
		switch by {
		case SortPatient:
			return strings.ToLower(d.FullName)
		case SortMedication:
			return strings.ToLower(d.Medication)
		case SortInsurer:
			return strings.ToLower(d.Insurer)
		case SortCycle:
			return strings.ToLower(d.CycleLabel)
		case SortState:
			return strings.ToLower(string(d.State))
		default:
			return d.ScheduledDate
		}
	}

	sort.SliceStable(items, func(i, j int) bool {
		a, b := key(items[i]), key(items[j])
		if a == b {
			return items[i].ID < items[j].ID
		}
		if asc {
			return a < b
		}
		return a > b
	})
}

func Paginate(items []Dispatch, page, size int) Page {
	if size <= 0 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	pages := (len(items) + size - 1) / size
	if page < 1 {
		page = 1
	}

	start := (page - 1) * size
	if start > len(items) {
		start = len(items)
	}
	end := start + size
	if end > len(items) {
		end = len(items)
	}

	return Page{
		Items:    items[start:end],
		Total:    len(items),
		Page:     page,
		PageSize: size,
		Pages:    pages,
	}
}

// Query filtra, ordena y pagina.
func Query(items []Dispatch, f ListFilter, today time.Time) Page {
	out := Filter(items, f, today)
	Sort(out, f.SortBy, f.SortAsc)
	return Paginate(out, f.Page, f.PageSize)
}
