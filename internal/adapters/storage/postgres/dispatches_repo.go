package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"oncology-dispatch/internal/domain/dispatches"
)

type DispatchesRepo struct {
	db *sql.DB
}

func NewDispatchesRepo(db *sql.DB) *DispatchesRepo {
	return &DispatchesRepo{db: db}
}

func (r *DispatchesRepo) List(ctx context.Context) ([]dispatches.Dispatch, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT doc FROM dispatches
		ORDER BY scheduled_date ASC, id ASC
	`)
	if err != nil {
		return nil, err
	}
	return scanDispatches(rows)
}

func (r *DispatchesRepo) ListByPatient(ctx context.Context, patientID string) ([]dispatches.Dispatch, error) {
	patientID = strings.TrimSpace(patientID)
	if patientID == "" {
		return nil, nil
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT doc FROM dispatches
		WHERE patient_id = $1
		ORDER BY scheduled_date ASC, id ASC
	`, patientID)
	if err != nil {
		return nil, err
	}
	return scanDispatches(rows)
}

func (r *DispatchesRepo) GetByID(ctx context.Context, id string) (dispatches.Dispatch, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return dispatches.Dispatch{}, dispatches.ErrNotFound
	}

	var raw []byte
	err := r.db.QueryRowContext(ctx, `SELECT doc FROM dispatches WHERE id = $1`, id).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return dispatches.Dispatch{}, dispatches.ErrNotFound
		}
		return dispatches.Dispatch{}, err
	}

	var d dispatches.Dispatch
	if err := json.Unmarshal(raw, &d); err != nil {
		return dispatches.Dispatch{}, err
	}
	return d, nil
}

func (r *DispatchesRepo) ExistingIDs(ctx context.Context, ids []string) (map[string]bool, error) {
	out := make(map[string]bool)
	if len(ids) == 0 {
		return out, nil
	}

	rows, err := r.db.QueryContext(ctx, `SELECT id FROM dispatches WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out[id] = true
	}
	return out, rows.Err()
}

// UpsertBatch escribe el lote en una sola transacción.
func (r *DispatchesRepo) UpsertBatch(ctx context.Context, items []dispatches.Dispatch) error {
	if len(items) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO dispatches (id, patient_id, scheduled_date, state, doc, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6)
		ON CONFLICT (id) DO UPDATE SET
			patient_id = EXCLUDED.patient_id,
			scheduled_date = EXCLUDED.scheduled_date,
			state = EXCLUDED.state,
			doc = EXCLUDED.doc,
			updated_at = EXCLUDED.updated_at
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, d := range items {
		args, err := dispatchArgs(d)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *DispatchesRepo) Update(ctx context.Context, d dispatches.Dispatch) error {
	args, err := dispatchArgs(d)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE dispatches
		SET
			patient_id = $2,
			scheduled_date = $3,
			state = $4,
			doc = $5,
			updated_at = $6
		WHERE id = $1
	`, args...)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return dispatches.ErrNotFound
	}
	return nil
}

func (r *DispatchesRepo) DeleteBatch(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := r.db.ExecContext(ctx, `DELETE FROM dispatches WHERE id = ANY($1)`, ids)
	return err
}

func dispatchArgs(d dispatches.Dispatch) ([]any, error) {
	doc, err := json.Marshal(d)
	if err != nil {
		return nil, err
	}
	scheduled, err := time.Parse(time.DateOnly, d.ScheduledDate)
	if err != nil {
		return nil, err
	}
	updated := d.UpdatedAt
	if updated.IsZero() {
		updated = d.CreatedAt
	}
	return []any{d.ID, d.PatientID, scheduled, string(d.State), doc, updated.UTC()}, nil
}

func scanDispatches(rows *sql.Rows) ([]dispatches.Dispatch, error) {
	defer rows.Close()

	out := make([]dispatches.Dispatch, 0)
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var d dispatches.Dispatch
		if err := json.Unmarshal(raw, &d); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
