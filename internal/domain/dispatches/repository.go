package dispatches

import "context"

// Repository persiste despachos. Cada escritura es atómica por documento;
// UpsertBatch lo es por lote, nunca entre lotes.
type Repository interface {
	List(ctx context.Context) ([]Dispatch, error)
	ListByPatient(ctx context.Context, patientID string) ([]Dispatch, error)
	GetByID(ctx context.Context, id string) (Dispatch, error)
	// ExistingIDs devuelve cuáles de los ids ya están guardados.
	ExistingIDs(ctx context.Context, ids []string) (map[string]bool, error)
	UpsertBatch(ctx context.Context, items []Dispatch) error
	Update(ctx context.Context, d Dispatch) error
	DeleteBatch(ctx context.Context, ids []string) error
}
