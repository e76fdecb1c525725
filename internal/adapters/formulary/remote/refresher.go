package remote

import (
	"context"
	"time"

	"oncology-dispatch/internal/domain/formulary"
	"oncology-dispatch/internal/platform/logger"
)

// Refresher recarga el formulario desde el servicio remoto.
// Si el remoto falla se conserva el catálogo actual.
type Refresher struct {
	client *Client
	target *formulary.Formulary
	log    logger.Logger
}

func NewRefresher(client *Client, target *formulary.Formulary, log logger.Logger) *Refresher {
	if log == nil {
		log = logger.Nop()
	}
	return &Refresher{client: client, target: target, log: log}
}

// Refresh hace una carga. Devuelve cuántos medicamentos quedaron.
func (r *Refresher) Refresh(ctx context.Context) (int, error) {
	cat, err := r.client.FetchCatalog(ctx)
	if err != nil {
		r.log.Warn("formulary refresh failed, keeping current catalog", map[string]any{"err": err.Error()})
		return 0, err
	}
	r.target.Replace(cat.Medications, cat.Treatments)
	n := len(r.target.Medications())
	r.log.Info("formulary refreshed", map[string]any{"medications": n})
	return n, nil
}

// Run refresca al inicio y luego cada interval hasta que ctx termine.
func (r *Refresher) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Hour
	}
	_, _ = r.Refresh(ctx)

	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			_, _ = r.Refresh(ctx)
		}
	}
}
