package dispatches

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"oncology-dispatch/internal/domain/patients"
	"oncology-dispatch/internal/domain/prescriptions"
	"oncology-dispatch/internal/platform/logger"
	"oncology-dispatch/internal/ports/events"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// DefaultBatchSize queda por debajo del límite de operaciones por lote del store.
const DefaultBatchSize = 400

// PatientDirectory es lo que el servicio usa del directorio de pacientes.
type PatientDirectory interface {
	List(ctx context.Context) ([]patients.Patient, error)
	ListActive(ctx context.Context) ([]patients.Patient, error)
	EnsureKnown(ctx context.Context, in []patients.UpsertInput) (int, error)
	RecordDelivery(ctx context.Context, id, date string) error
}

// Formulary resuelve medicamentos y su cadencia.
type Formulary interface {
	prescriptions.Matcher
	TreatmentLookup
}

// Metrics recibe los contadores del servicio.
type Metrics interface {
	ObserveTransition(action string, outcome string)
	AddGenerated(n int)
	AddWritten(n int)
	AddDeleted(n int)
	ObserveImport(prescriptions, skipped, errors int)
	ObserveBatch(d time.Duration)
}

// ProgressFunc recibe el porcentaje completado (0-100).
type ProgressFunc func(percent int)

type Options struct {
	Patients      PatientDirectory
	Formulary     Formulary
	Publisher     events.Publisher
	Metrics       Metrics
	Logger        logger.Logger
	Location      *time.Location
	HorizonMonths int
	BatchSize     int
}

type Service struct {
	repo      Repository
	patients  PatientDirectory
	formulary Formulary
	publisher events.Publisher
	metrics   Metrics
	log       logger.Logger
	tracer    trace.Tracer
	feed      *Feed

	loc           *time.Location
	horizonMonths int
	batchSize     int
	now           func() time.Time

	// serializa lectura + publicación de snapshots
	bcastMu sync.Mutex
}

func NewService(repo Repository, opts Options) *Service {
	s := &Service{
		repo:          repo,
		patients:      opts.Patients,
		formulary:     opts.Formulary,
		publisher:     opts.Publisher,
		metrics:       opts.Metrics,
		log:           opts.Logger,
		tracer:        otel.Tracer("oncology-dispatch/dispatches"),
		feed:          NewFeed(),
		loc:           opts.Location,
		horizonMonths: opts.HorizonMonths,
		batchSize:     opts.BatchSize,
		now:           time.Now,
	}
	if s.publisher == nil {
		s.publisher = events.Nop{}
	}
	if s.metrics == nil {
		s.metrics = nopMetrics{}
	}
	if s.log == nil {
		s.log = logger.Nop()
	}
	if s.loc == nil {
		s.loc = time.UTC
	}
	if s.horizonMonths <= 0 {
		s.horizonMonths = DefaultHorizonMonths
	}
	if s.batchSize <= 0 {
		s.batchSize = DefaultBatchSize
	}
	return s
}

// Today es la fecha de calendario actual en la zona configurada.
func (s *Service) Today() time.Time {
	return Today(s.now(), s.loc)
}

func (s *Service) GetByID(ctx context.Context, id string) (Dispatch, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Dispatch{}, ErrInvalidInput
	}
	d, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Dispatch{}, storeErr("get", err)
	}
	return d, nil
}

func (s *Service) List(ctx context.Context, f ListFilter) (Page, error) {
	if !ValidStatusFilter(f.Status) || !ValidSort(f.SortBy) {
		return Page{}, ErrInvalidInput
	}
	items, err := s.repo.List(ctx)
	if err != nil {
		return Page{}, storeErr("list", err)
	}
	return Query(items, f, s.Today()), nil
}

func (s *Service) Summary(ctx context.Context) (Summary, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return Summary{}, storeErr("list", err)
	}
	return Summarize(items, s.Today()), nil
}

func (s *Service) Calendar(ctx context.Context, month string) ([]CalendarDay, error) {
	if strings.TrimSpace(month) == "" {
		month = s.Today().Format("2006-01")
	}
	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, storeErr("list", err)
	}
	return Calendar(items, month)
}

// Snapshot devuelve todos los despachos ordenados por fecha programada.
func (s *Service) Snapshot(ctx context.Context) ([]Dispatch, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, storeErr("list", err)
	}
	sortByDate(items)
	return items, nil
}

// Transition aplica la acción y guarda el resultado. Una transición rechazada no escribe nada.
func (s *Service) Transition(ctx context.Context, id string, action Action, in TransitionInput) (Dispatch, error) {
	ctx, span := s.tracer.Start(ctx, "dispatches.Transition",
		trace.WithAttributes(attribute.String("dispatch.id", id), attribute.String("dispatch.action", string(action))))
	defer span.End()

	d, err := s.GetByID(ctx, id)
	if err != nil {
		fail(span, err)
		return Dispatch{}, err
	}

	next, err := Apply(d, action, in, s.Today(), s.now().UTC())
	if err != nil {
		s.metrics.ObserveTransition(string(action), "rejected")
		fail(span, err)
		return Dispatch{}, err
	}

	if err := s.repo.Update(ctx, next); err != nil {
		s.metrics.ObserveTransition(string(action), "error")
		err = storeErr("update", err)
		fail(span, err)
		return Dispatch{}, err
	}
	s.metrics.ObserveTransition(string(action), "ok")

	s.log.Info("dispatch transition", map[string]any{
		"dispatch_id": next.ID,
		"patient_id":  next.PatientID,
		"action":      string(action),
		"from":        string(d.State),
		"to":          string(next.State),
		"actor":       next.ModifiedBy,
	})

	if next.State == StateDelivered && s.patients != nil {
		if err := s.patients.RecordDelivery(ctx, next.PatientID, next.ConfirmationDate); err != nil && !errors.Is(err, patients.ErrNotFound) {
			s.log.Warn("record delivery failed", map[string]any{"patient_id": next.PatientID, "err": err.Error()})
		}
	}

	s.publish(ctx, events.Event{
		Type:  events.TypeStateChanged,
		Key:   next.PatientID,
		Actor: next.ModifiedBy,
		Data: map[string]any{
			"despacho": next,
			"anterior": d.State,
			"accion":   action,
		},
	})
	s.broadcast(ctx)
	return next, nil
}

// ImportReport resume una importación o generación de ruta.
type ImportReport struct {
	Prescriptions   int                 `json:"prescripciones"`
	Generated       int                 `json:"generados"`
	Existing        int                 `json:"existentes"`
	Created         int                 `json:"creados"`
	PatientsCreated int                 `json:"pacientesNuevos"`
	Errors          []string            `json:"errores"`
	Stats           prescriptions.Stats `json:"estadisticas"`
}

// Import parsea el CSV, genera la hoja de ruta y guarda solo los despachos nuevos.
// Si un lote falla, los anteriores quedan guardados; reintentar es seguro.
func (s *Service) Import(ctx context.Context, actor string, data []byte, progress ProgressFunc) (ImportReport, error) {
	ctx, span := s.tracer.Start(ctx, "dispatches.Import", trace.WithAttributes(attribute.Int("import.bytes", len(data))))
	defer span.End()

	if s.formulary == nil {
		return ImportReport{}, errors.New("formulary not configured")
	}

	res, err := prescriptions.ParseBytes(data, s.formulary)
	rep := ImportReport{
		Prescriptions: len(res.Prescriptions),
		Errors:        res.Errors,
		Stats:         res.Stats,
	}
	s.metrics.ObserveImport(len(res.Prescriptions), res.Stats.Skipped, len(res.Errors))
	if err != nil {
		fail(span, err)
		return rep, err
	}

	var known []patients.Patient
	if s.patients != nil {
		in := make([]patients.UpsertInput, 0, len(res.Prescriptions))
		for _, rx := range res.Prescriptions {
			in = append(in, patients.UpsertInput{
				ID:           rx.PatientID,
				FullName:     rx.FullName,
				Medication:   rx.Medication,
				Dose:         rx.Dose,
				Insurer:      rx.Insurer,
				Municipality: rx.Municipality,
				Department:   rx.Department,
				Phone:        rx.Phone,
			})
		}
		created, err := s.patients.EnsureKnown(ctx, in)
		rep.PatientsCreated = created
		if err != nil {
			err = storeErr("patients", err)
			fail(span, err)
			return rep, err
		}
		if known, err = s.patients.List(ctx); err != nil {
			err = storeErr("patients", err)
			fail(span, err)
			return rep, err
		}
	}

	route := GenerateRoute(res.Prescriptions, known, s.horizonMonths, s.Today(), s.formulary)
	rep.Generated = len(route)

	created, existing, err := s.writeNew(ctx, actor, route, progress)
	rep.Created, rep.Existing = created, existing
	span.SetAttributes(attribute.Int("import.created", created), attribute.Int("import.existing", existing))
	if err != nil {
		fail(span, err)
		return rep, err
	}

	s.log.Info("import finished", map[string]any{
		"actor":         actor,
		"prescriptions": rep.Prescriptions,
		"generated":     rep.Generated,
		"created":       rep.Created,
		"existing":      rep.Existing,
		"row_errors":    len(rep.Errors),
	})
	return rep, nil
}

// GenerateFromPatients genera la ruta para los pacientes activos del directorio.
func (s *Service) GenerateFromPatients(ctx context.Context, actor string, progress ProgressFunc) (ImportReport, error) {
	ctx, span := s.tracer.Start(ctx, "dispatches.GenerateFromPatients")
	defer span.End()

	if s.patients == nil || s.formulary == nil {
		return ImportReport{Errors: []string{}}, errors.New("patient directory not configured")
	}

	active, err := s.patients.ListActive(ctx)
	if err != nil {
		err = storeErr("patients", err)
		fail(span, err)
		return ImportReport{}, err
	}

	rxs := make([]prescriptions.Prescription, 0, len(active))
	for _, p := range active {
		if strings.TrimSpace(p.Medication) == "" {
			continue
		}
		rxs = append(rxs, prescriptions.Prescription{
			PatientID:    p.ID,
			FullName:     p.FullName,
			Medication:   p.Medication,
			Dose:         p.Dose,
			Insurer:      p.Insurer,
			Municipality: p.Municipality,
			Department:   p.Department,
		})
	}

	route := GenerateRoute(rxs, active, s.horizonMonths, s.Today(), s.formulary)
	rep := ImportReport{Prescriptions: len(rxs), Generated: len(route), Errors: []string{}}

	created, existing, err := s.writeNew(ctx, actor, route, progress)
	rep.Created, rep.Existing = created, existing
	if err != nil {
		fail(span, err)
		return rep, err
	}
	return rep, nil
}

// writeNew descarta los ids ya guardados y escribe el resto en lotes.
func (s *Service) writeNew(ctx context.Context, actor string, route []Dispatch, progress ProgressFunc) (created, existing int, err error) {
	ids := make([]string, len(route))
	for i, d := range route {
		ids[i] = d.ID
	}
	present, err := s.repo.ExistingIDs(ctx, ids)
	if err != nil {
		return 0, 0, storeErr("existing", err)
	}

	now := s.now().UTC()
	fresh := make([]Dispatch, 0, len(route))
	for _, d := range route {
		if present[d.ID] {
			existing++
			continue
		}
		d.CreatedAt, d.UpdatedAt = now, now
		d.ModifiedBy = actor
		d.Timeline = []Milestone{{State: StatePending, Date: d.ScheduledDate, Actor: actor, At: now}}
		fresh = append(fresh, d)
	}
	s.metrics.AddGenerated(len(route))

	err = s.chunked(len(fresh), progress, func(from, to int) error {
		if err := s.repo.UpsertBatch(ctx, fresh[from:to]); err != nil {
			return storeErr("upsert", err)
		}
		created += to - from
		s.metrics.AddWritten(to - from)
		return nil
	})
	if created > 0 {
		s.publish(ctx, events.Event{
			Type:  events.TypeGenerated,
			Actor: actor,
			Data:  map[string]any{"creados": created, "existentes": existing},
		})
		s.broadcast(ctx)
	}
	return created, existing, err
}

// DeleteAll borra todos los despachos en lotes. Limpieza administrativa.
func (s *Service) DeleteAll(ctx context.Context, actor string, progress ProgressFunc) (int, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return 0, storeErr("list", err)
	}
	return s.deleteItems(ctx, actor, items, progress)
}

func (s *Service) DeleteByPatient(ctx context.Context, actor, patientID string) (int, error) {
	patientID = strings.TrimSpace(patientID)
	if patientID == "" {
		return 0, ErrInvalidInput
	}
	items, err := s.repo.ListByPatient(ctx, patientID)
	if err != nil {
		return 0, storeErr("list", err)
	}
	return s.deleteItems(ctx, actor, items, nil)
}

func (s *Service) deleteItems(ctx context.Context, actor string, items []Dispatch, progress ProgressFunc) (int, error) {
	ids := make([]string, len(items))
	for i, d := range items {
		ids[i] = d.ID
	}

	deleted := 0
	err := s.chunked(len(ids), progress, func(from, to int) error {
		if err := s.repo.DeleteBatch(ctx, ids[from:to]); err != nil {
			return storeErr("delete", err)
		}
		deleted += to - from
		s.metrics.AddDeleted(to - from)
		return nil
	})

	if deleted > 0 {
		s.log.Info("dispatches deleted", map[string]any{"actor": actor, "deleted": deleted})
		s.publish(ctx, events.Event{
			Type:  events.TypeDeleted,
			Actor: actor,
			Data:  map[string]any{"eliminados": deleted},
		})
		s.broadcast(ctx)
	}
	return deleted, err
}

// chunked recorre n elementos en lotes de batchSize y reporta el avance.
func (s *Service) chunked(n int, progress ProgressFunc, fn func(from, to int) error) error {
	if n == 0 {
		if progress != nil {
			progress(100)
		}
		return nil
	}
	for from := 0; from < n; from += s.batchSize {
		to := from + s.batchSize
		if to > n {
			to = n
		}
		start := time.Now()
		if err := fn(from, to); err != nil {
			return err
		}
		s.metrics.ObserveBatch(time.Since(start))
		if progress != nil {
			progress(to * 100 / n)
		}
	}
	return nil
}

// Subscribe entrega el snapshot actual y luego uno nuevo tras cada cambio.
// Cada snapshot reemplaza por completo al anterior.
func (s *Service) Subscribe(ctx context.Context) (<-chan []Dispatch, func(), error) {
	s.bcastMu.Lock()
	defer s.bcastMu.Unlock()

	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, nil, storeErr("list", err)
	}
	sortByDate(items)

	ch, cancel := s.feed.Subscribe(items)
	stop := context.AfterFunc(ctx, cancel)
	return ch, func() {
		stop()
		cancel()
	}, nil
}

func (s *Service) broadcast(ctx context.Context) {
	if s.feed.Len() == 0 {
		return
	}
	s.bcastMu.Lock()
	defer s.bcastMu.Unlock()

	items, err := s.repo.List(context.WithoutCancel(ctx))
	if err != nil {
		s.log.Warn("snapshot failed", map[string]any{"err": err.Error()})
		return
	}
	sortByDate(items)
	s.feed.Publish(items)
}

func (s *Service) publish(ctx context.Context, e events.Event) {
	e.ID = uuid.NewString()
	e.OccurredAt = s.now().UTC()
	if err := s.publisher.Publish(ctx, e); err != nil {
		s.log.Warn("event publish failed", map[string]any{"type": e.Type, "err": err.Error()})
	}
}

func sortByDate(items []Dispatch) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].ScheduledDate != items[j].ScheduledDate {
			return items[i].ScheduledDate < items[j].ScheduledDate
		}
		return items[i].ID < items[j].ID
	})
}

func fail(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

type nopMetrics struct{}

func (nopMetrics) ObserveTransition(string, string) {}
func (nopMetrics) AddGenerated(int)                 {}
func (nopMetrics) AddWritten(int)                   {}
func (nopMetrics) AddDeleted(int)                   {}
func (nopMetrics) ObserveImport(int, int, int)      {}
func (nopMetrics) ObserveBatch(time.Duration)       {}
