package dispatches

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("despacho no encontrado")
	ErrInvalidInput = errors.New("invalid input")
)

// ValidationError: falta o es inválido un dato requerido por la transición.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// InvalidTransitionError: la acción no está permitida desde el estado actual.
type InvalidTransitionError struct {
	From   State
	Action Action
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("transición no permitida: %s desde %s", e.Action, e.From)
}

// StoreError envuelve fallas del almacenamiento. No se reintenta.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

func storeErr(op string, err error) error {
	if err == nil || errors.Is(err, ErrNotFound) {
		return err
	}
	var se *StoreError
	if errors.As(err, &se) {
		return err
	}
	return &StoreError{Op: op, Err: err}
}
