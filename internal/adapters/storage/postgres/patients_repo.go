package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"

	"oncology-dispatch/internal/domain/patients"
)

type PatientsRepo struct {
	db *sql.DB
}

func NewPatientsRepo(db *sql.DB) *PatientsRepo {
	return &PatientsRepo{db: db}
}

func (r *PatientsRepo) Upsert(ctx context.Context, p patients.Patient) error {
	if strings.TrimSpace(p.ID) == "" {
		return errors.New("patient id required")
	}
	history, err := json.Marshal(historyOrEmpty(p.DeliveryHistory))
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO patients (
			id, full_name, medication, dose,
			insurer, municipality, department, phone, status,
			delivery_history, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		ON CONFLICT (id) DO UPDATE SET
			full_name = EXCLUDED.full_name,
			medication = EXCLUDED.medication,
			dose = EXCLUDED.dose,
			insurer = EXCLUDED.insurer,
			municipality = EXCLUDED.municipality,
			department = EXCLUDED.department,
			phone = EXCLUDED.phone,
			status = EXCLUDED.status,
			delivery_history = EXCLUDED.delivery_history,
			updated_at = EXCLUDED.updated_at
	`,
		p.ID,
		p.FullName,
		p.Medication,
		p.Dose,
		p.Insurer,
		p.Municipality,
		p.Department,
		p.Phone,
		p.Status,
		history,
		p.CreatedAt,
		p.UpdatedAt,
	)
	return err
}

const patientColumns = `
	id, full_name, medication, dose,
	insurer, municipality, department, phone, status,
	delivery_history, created_at, updated_at
`

func (r *PatientsRepo) GetByID(ctx context.Context, id string) (patients.Patient, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return patients.Patient{}, patients.ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `SELECT `+patientColumns+` FROM patients WHERE id = $1`, id)
	p, err := scanPatient(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return patients.Patient{}, patients.ErrNotFound
		}
		return patients.Patient{}, err
	}
	return p, nil
}

func (r *PatientsRepo) List(ctx context.Context) ([]patients.Patient, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+patientColumns+` FROM patients ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]patients.Patient, 0)
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPatient(s scanner) (patients.Patient, error) {
	var p patients.Patient
	var history []byte
	if err := s.Scan(
		&p.ID,
		&p.FullName,
		&p.Medication,
		&p.Dose,
		&p.Insurer,
		&p.Municipality,
		&p.Department,
		&p.Phone,
		&p.Status,
		&history,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		return patients.Patient{}, err
	}
	if len(history) > 0 {
		if err := json.Unmarshal(history, &p.DeliveryHistory); err != nil {
			return patients.Patient{}, err
		}
	}
	return p, nil
}

func historyOrEmpty(h map[string]int) map[string]int {
	if h == nil {
		return map[string]int{}
	}
	return h
}
