package patients

import (
	"context"
	"errors"
	"strings"
	"time"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("paciente no encontrado")
)

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{
		repo: repo,
		now:  time.Now,
	}
}

type UpsertInput struct {
	ID           string
	FullName     string
	Medication   string
	Dose         string
	Insurer      string
	Municipality string
	Department   string
	Phone        string
	Status       string
}

// Upsert crea o actualiza el paciente; conserva historial y CreatedAt.
func (s *Service) Upsert(ctx context.Context, in UpsertInput) (Patient, error) {
	id := strings.TrimSpace(in.ID)
	if id == "" || strings.TrimSpace(in.FullName) == "" {
		return Patient{}, ErrInvalidInput
	}

	now := s.now()
	p, err := s.repo.GetByID(ctx, id)
	switch {
	case errors.Is(err, ErrNotFound):
		p = Patient{ID: id, CreatedAt: now, DeliveryHistory: map[string]int{}}
	case err != nil:
		return Patient{}, err
	}

	p.FullName = strings.TrimSpace(in.FullName)
	p.Medication = strings.TrimSpace(in.Medication)
	p.Dose = strings.TrimSpace(in.Dose)
	p.Insurer = strings.TrimSpace(in.Insurer)
	p.Municipality = strings.TrimSpace(in.Municipality)
	p.Department = strings.TrimSpace(in.Department)
	p.Phone = strings.TrimSpace(in.Phone)
	p.Status = strings.TrimSpace(in.Status)
	if p.Status == "" {
		p.Status = StatusActive + " - ACTIVO"
	}
	p.UpdatedAt = now

	if err := s.repo.Upsert(ctx, p); err != nil {
		return Patient{}, err
	}
	return p, nil
}

// EnsureKnown registra los pacientes que aún no existen; devuelve cuántos creó.
func (s *Service) EnsureKnown(ctx context.Context, in []UpsertInput) (int, error) {
	created := 0
	seen := make(map[string]bool, len(in))
	for _, u := range in {
		id := strings.TrimSpace(u.ID)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true

		_, err := s.repo.GetByID(ctx, id)
		if err == nil {
			continue
		}
		if !errors.Is(err, ErrNotFound) {
			return created, err
		}
		if _, err := s.Upsert(ctx, u); err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (Patient, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Patient{}, ErrInvalidInput
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]Patient, error) {
	return s.repo.List(ctx)
}

func (s *Service) ListActive(ctx context.Context) ([]Patient, error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Patient, 0, len(all))
	for _, p := range all {
		if p.Active() {
			out = append(out, p)
		}
	}
	return out, nil
}

// RecordDelivery suma una entrega al mes de la fecha (YYYY-MM-DD).
func (s *Service) RecordDelivery(ctx context.Context, id, date string) error {
	if len(date) < 7 {
		return ErrInvalidInput
	}
	p, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if p.DeliveryHistory == nil {
		p.DeliveryHistory = map[string]int{}
	}
	p.DeliveryHistory[date[:7]]++
	p.UpdatedAt = s.now()
	return s.repo.Upsert(ctx, p)
}
