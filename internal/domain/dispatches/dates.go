package dispatches

import (
	"fmt"
	"time"
)

const dateLayout = "2006-01-02"

// ParseDate construye la fecha de calendario a partir de año, mes y día.
// El resultado es medianoche UTC para que la resta de días no dependa de la zona horaria.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("fecha inválida %q: %w", s, err)
	}
	return civil(t.Year(), t.Month(), t.Day()), nil
}

func FormatDate(t time.Time) string {
	return t.Format(dateLayout)
}

// Today es la fecha de calendario de now en la zona indicada.
func Today(now time.Time, loc *time.Location) time.Time {
	if loc != nil {
		now = now.In(loc)
	}
	return civil(now.Year(), now.Month(), now.Day())
}

func civil(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween cuenta días de calendario de from a to (negativo si to es anterior).
func DaysBetween(from, to time.Time) int {
	a := civil(from.Year(), from.Month(), from.Day())
	b := civil(to.Year(), to.Month(), to.Day())
	return int(b.Sub(a).Hours() / 24)
}

// IsUrgent: la fecha cae entre hoy y dentro de 7 días, ambos inclusive.
func IsUrgent(scheduled string, today time.Time) bool {
	d, err := ParseDate(scheduled)
	if err != nil {
		return false
	}
	n := DaysBetween(today, d)
	return n >= 0 && n <= 7
}

// IsOverdue: no entregado y con fecha anterior a hoy.
func IsOverdue(d Dispatch, today time.Time) bool {
	if d.Confirmed() {
		return false
	}
	sd, err := ParseDate(d.ScheduledDate)
	if err != nil {
		return false
	}
	return DaysBetween(today, sd) < 0
}

// Classify devuelve la etiqueta a mostrar: Vencido o Urgente para pendientes, si no el estado.
func Classify(d Dispatch, today time.Time) string {
	if d.State == StatePending {
		if IsOverdue(d, today) {
			return "Vencido"
		}
		if IsUrgent(d.ScheduledDate, today) {
			return "Urgente"
		}
	}
	return string(d.State)
}

// Critical marca despachos abiertos que requieren atención (vencidos o urgentes).
func Critical(d Dispatch, today time.Time) bool {
	if d.State.Terminal() {
		return false
	}
	return IsOverdue(d, today) || IsUrgent(d.ScheduledDate, today)
}
