package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"oncology-dispatch/internal/domain/dispatches"
)

type dispatchRepo struct {
	mu   sync.RWMutex
	byID map[string]dispatches.Dispatch
}

func NewDispatchRepo() dispatches.Repository {
	return &dispatchRepo{
		byID: make(map[string]dispatches.Dispatch),
	}
}

func (r *dispatchRepo) List(ctx context.Context) ([]dispatches.Dispatch, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]dispatches.Dispatch, 0, len(r.byID))
	for _, d := range r.byID {
		out = append(out, cloneDispatch(d))
	}
	sortDispatches(out)
	return out, nil
}

func (r *dispatchRepo) ListByPatient(ctx context.Context, patientID string) ([]dispatches.Dispatch, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]dispatches.Dispatch, 0)
	for _, d := range r.byID {
		if d.PatientID == patientID {
			out = append(out, cloneDispatch(d))
		}
	}
	sortDispatches(out)
	return out, nil
}

func (r *dispatchRepo) GetByID(ctx context.Context, id string) (dispatches.Dispatch, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.byID[id]
	if !ok {
		return dispatches.Dispatch{}, dispatches.ErrNotFound
	}
	return cloneDispatch(d), nil
}

func (r *dispatchRepo) ExistingIDs(ctx context.Context, ids []string) (map[string]bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]bool)
	for _, id := range ids {
		if _, ok := r.byID[id]; ok {
			out[id] = true
		}
	}
	return out, nil
}

// UpsertBatch valida todo el lote antes de escribir: o entra completo o no entra.
func (r *dispatchRepo) UpsertBatch(ctx context.Context, items []dispatches.Dispatch) error {
	for _, d := range items {
		if strings.TrimSpace(d.ID) == "" {
			return errors.New("dispatch id required")
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range items {
		r.byID[d.ID] = cloneDispatch(d)
	}
	return nil
}

func (r *dispatchRepo) Update(ctx context.Context, d dispatches.Dispatch) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[d.ID]; !ok {
		return dispatches.ErrNotFound
	}
	r.byID[d.ID] = cloneDispatch(d)
	return nil
}

func (r *dispatchRepo) DeleteBatch(ctx context.Context, ids []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, id := range ids {
		delete(r.byID, id)
	}
	return nil
}

// Orden estable por fecha programada y luego id (solo para consistencia en dev)
func sortDispatches(out []dispatches.Dispatch) {
	sort.Slice(out, func(i, j int) bool {
		if out[i].ScheduledDate != out[j].ScheduledDate {
			return out[i].ScheduledDate < out[j].ScheduledDate
		}
		return out[i].ID < out[j].ID
	})
}

func cloneDispatch(d dispatches.Dispatch) dispatches.Dispatch {
	if d.Timeline != nil {
		d.Timeline = append([]dispatches.Milestone(nil), d.Timeline...)
	}
	return d
}
