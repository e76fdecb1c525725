package events

import (
	"context"
	"time"
)

// Tipos de evento publicados por el módulo de despachos.
const (
	TypeStateChanged = "despacho.estado_cambiado"
	TypeGenerated    = "despachos.generados"
	TypeDeleted      = "despachos.eliminados"
)

// Event es el mensaje que se publica hacia el broker.
type Event struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	Key        string    `json:"key"` // clave de partición (paciente)
	OccurredAt time.Time `json:"occurredAt"`
	Actor      string    `json:"actor,omitempty"`
	Data       any       `json:"data,omitempty"`
}

// Publisher publica eventos de dominio. Las fallas se reportan, no se reintentan.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Nop descarta los eventos (sin broker configurado).
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
