package dispatches

import (
	"math"
	"sort"
	"time"
)

// Summary son los indicadores del tablero de despachos.
type Summary struct {
	Total     int `json:"total"`
	Delivered int `json:"entregados"`
	Overdue   int `json:"vencidos"`
	Urgent    int `json:"urgentes"`
	Pending   int `json:"pendientes"`
	Scheduled int `json:"agendados"`
	Postponed int `json:"pospuestos"`
	Cancelled int `json:"cancelados"`
	Critical  int `json:"criticos"`
	Adherence int `json:"adherencia"` // % entregados sobre el total
}

func Summarize(items []Dispatch, today time.Time) Summary {
	var s Summary
	s.Total = len(items)
	for _, d := range items {
		switch d.State {
		case StateDelivered:
			s.Delivered++
		case StatePending:
			s.Pending++
		case StateScheduled:
			s.Scheduled++
		case StatePostponed:
			s.Postponed++
		case StateCancelled:
			s.Cancelled++
		}
		if overdueOpen(d, today) {
			s.Overdue++
		}
		if !d.Confirmed() && IsUrgent(d.ScheduledDate, today) {
			s.Urgent++
		}
		if Critical(d, today) {
			s.Critical++
		}
	}
	if s.Total > 0 {
		s.Adherence = int(math.Round(float64(s.Delivered) / float64(s.Total) * 100))
	}
	return s
}

// CalendarDay agrupa los despachos programados para una fecha.
type CalendarDay struct {
	Date      string     `json:"fecha"`
	Total     int        `json:"total"`
	Delivered int        `json:"entregados"`
	Items     []Dispatch `json:"despachos"`
}

// Calendar devuelve los días del mes (YYYY-MM) que tienen despachos, en orden.
func Calendar(items []Dispatch, month string) ([]CalendarDay, error) {
	m, err := time.Parse("2006-01", month)
	if err != nil {
		return nil, ErrInvalidInput
	}
	prefix := m.Format("2006-01") + "-"

	days := map[string]*CalendarDay{}
	for _, d := range items {
		if len(d.ScheduledDate) != len(dateLayout) || d.ScheduledDate[:8] != prefix {
			continue
		}
		cd, ok := days[d.ScheduledDate]
		if !ok {
			cd = &CalendarDay{Date: d.ScheduledDate}
			days[d.ScheduledDate] = cd
		}
		cd.Total++
		if d.Confirmed() {
			cd.Delivered++
		}
		cd.Items = append(cd.Items, d)
	}

	out := make([]CalendarDay, 0, len(days))
	for _, cd := range days {
		sort.Slice(cd.Items, func(i, j int) bool { return cd.Items[i].FullName < cd.Items[j].FullName })
		out = append(out, *cd)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}
