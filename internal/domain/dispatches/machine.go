package dispatches

import (
	"strings"
	"time"
)

// Action es una operación del flujo de estados.
type Action string

const (
	ActionSchedule Action = "agendar"
	ActionDeliver  Action = "entregar"
	ActionPostpone Action = "posponer"
	ActionCancel   Action = "cancelar"
)

type rule struct {
	from []State
	to   State
}

var transitions = map[Action]rule{
	ActionSchedule: {from: []State{StatePending}, to: StateScheduled},
	ActionDeliver:  {from: []State{StateScheduled, StatePostponed}, to: StateDelivered},
	ActionPostpone: {from: []State{StateScheduled, StatePostponed}, to: StatePostponed},
	ActionCancel:   {from: []State{StatePending, StateScheduled, StatePostponed}, to: StateCancelled},
}

func ParseAction(s string) (Action, bool) {
	a := Action(strings.ToLower(strings.TrimSpace(s)))
	_, ok := transitions[a]
	return a, ok
}

// Allowed lista las acciones válidas desde un estado.
func Allowed(from State) []Action {
	out := make([]Action, 0, 2)
	for _, a := range []Action{ActionSchedule, ActionDeliver, ActionPostpone, ActionCancel} {
		if CanApply(from, a) {
			out = append(out, a)
		}
	}
	return out
}

func CanApply(from State, a Action) bool {
	r, ok := transitions[a]
	if !ok {
		return false
	}
	for _, s := range r.from {
		if s == from {
			return true
		}
	}
	return false
}

// TransitionInput son los datos que acompañan una acción.
type TransitionInput struct {
	Date     string // YYYY-MM-DD; agendar/entregar usan hoy si viene vacía
	Note     string
	Reason   string
	Modality Modality
	Actor    string
}

// Apply calcula el despacho resultante. No modifica d; ante error el registro queda igual.
func Apply(d Dispatch, a Action, in TransitionInput, today, at time.Time) (Dispatch, error) {
	if !CanApply(d.State, a) {
		return d, &InvalidTransitionError{From: d.State, Action: a}
	}

	reason := strings.TrimSpace(in.Reason)
	note := strings.TrimSpace(in.Note)
	date := strings.TrimSpace(in.Date)

	switch a {
	case ActionCancel, ActionPostpone:
		if reason == "" {
			return d, &ValidationError{Field: "motivo", Message: "requerido"}
		}
	}

	if date == "" {
		switch a {
		case ActionSchedule, ActionDeliver:
			date = FormatDate(today)
		case ActionPostpone:
			return d, &ValidationError{Field: "fecha", Message: "nueva fecha requerida"}
		}
	}
	if date != "" {
		t, err := ParseDate(date)
		if err != nil {
			return d, &ValidationError{Field: "fecha", Message: "formato esperado YYYY-MM-DD"}
		}
		date = FormatDate(t)
	}

	switch in.Modality {
	case "", ModalityPharmacy, ModalityHome:
	default:
		return d, &ValidationError{Field: "modalidad", Message: "debe ser Farmacia o Domicilio"}
	}

	next := d
	next.State = transitions[a].to
	next.ModifiedBy = strings.TrimSpace(in.Actor)
	next.UpdatedAt = at

	m := Milestone{State: next.State, Actor: next.ModifiedBy, At: at}

	switch a {
	case ActionSchedule:
		next.ScheduledDate = date
		if note != "" {
			next.Notes = note
		}
		m.Date, m.Note = date, note
	case ActionDeliver:
		next.ConfirmationDate = date
		next.Modality = in.Modality
		if note != "" {
			next.Notes = note
		}
		m.Date, m.Note = date, note
	case ActionPostpone:
		next.ScheduledDate = date
		next.Reason = reason
		next.ConfirmationDate = ""
		m.Date, m.Note = date, reason
	case ActionCancel:
		next.Reason = reason
		next.ConfirmationDate = ""
		m.Note = reason
	}

	next.Timeline = append(append(make([]Milestone, 0, len(d.Timeline)+1), d.Timeline...), m)
	return next, nil
}
