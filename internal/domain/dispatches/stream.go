package dispatches

import (
	"context"
	"encoding/json"
	"time"

	"oncology-dispatch/internal/platform/logger"
	"oncology-dispatch/internal/platform/websocket"
)

// MessageSnapshot es el tipo de mensaje con la colección completa.
const MessageSnapshot = "despachos.snapshot"

// SnapshotMessage arma el mensaje que reemplaza la colección del cliente.
func SnapshotMessage(items []Dispatch, at time.Time) (websocket.Message, error) {
	if items == nil {
		items = []Dispatch{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return websocket.Message{}, err
	}
	return websocket.Message{Type: MessageSnapshot, Timestamp: at.UTC(), Data: data}, nil
}

// SnapshotHello es el primer mensaje de cada conexión nueva.
func SnapshotHello(svc *Service) func(ctx context.Context) (websocket.Message, error) {
	return func(ctx context.Context) (websocket.Message, error) {
		items, err := svc.Snapshot(ctx)
		if err != nil {
			return websocket.Message{}, err
		}
		return SnapshotMessage(items, svc.now())
	}
}

// PumpSnapshots reenvía al hub cada snapshot del servicio hasta que ctx termine.
func PumpSnapshots(ctx context.Context, svc *Service, hub *websocket.Hub, log logger.Logger) error {
	if log == nil {
		log = logger.Nop()
	}
	ch, cancel, err := svc.Subscribe(ctx)
	if err != nil {
		return err
	}
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return nil
		case items, ok := <-ch:
			if !ok {
				return nil
			}
			msg, err := SnapshotMessage(items, svc.now())
			if err != nil {
				log.Warn("snapshot encode failed", map[string]any{"err": err.Error()})
				continue
			}
			n := hub.Broadcast(msg)
			log.Debug("snapshot broadcast", map[string]any{"items": len(items), "clients": n})
		}
	}
}
