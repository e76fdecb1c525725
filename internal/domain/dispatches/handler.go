package dispatches

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"oncology-dispatch/internal/domain/prescriptions"
	"oncology-dispatch/internal/middleware"
	"oncology-dispatch/internal/platform/websocket"

	"github.com/go-chi/chi/v5"
)

// maxImportBytes limita el tamaño del CSV aceptado.
const maxImportBytes = 10 << 20

func RegisterRoutes(r chi.Router, svc *Service, hub *websocket.Hub) {
	r.Route("/despachos", func(dr chi.Router) {
		dr.Get("/", listDispatchesHandler(svc))
		dr.Delete("/", deleteAllHandler(svc))
		dr.Get("/kpis", kpisHandler(svc))
		dr.Get("/calendario", calendarHandler(svc))
		if hub != nil {
			dr.Get("/stream", hub.Handler(SnapshotHello(svc)))
		}
		dr.Post("/importar", importHandler(svc))
		dr.Post("/generar", generateHandler(svc))

		dr.Get("/{dispatchID}", getDispatchHandler(svc))
		dr.Post("/{dispatchID}/{action}", transitionHandler(svc))
	})
}

// PatientRoutes cuelga de /pacientes las rutas de despachos por paciente.
func PatientRoutes(svc *Service) func(pr chi.Router) {
	return func(pr chi.Router) {
		pr.Delete("/{patientID}/despachos", deleteByPatientHandler(svc))
	}
}

type transitionRequest struct {
	Date     string `json:"fecha"`     // YYYY-MM-DD
	Note     string `json:"nota"`      // observaciones
	Reason   string `json:"motivo"`    // requerido para posponer/cancelar
	Modality string `json:"modalidad"` // Farmacia | Domicilio (solo entregar)
}

// dispatchView agrega la clasificación calculada al documento del despacho.
type dispatchView struct {
	Dispatch
	Classification string
	Urgent         bool
	Overdue        bool
	Actions        []Action
}

func (v dispatchView) MarshalJSON() ([]byte, error) {
	base, err := json.Marshal(v.Dispatch)
	if err != nil {
		return nil, err
	}
	extra, err := json.Marshal(struct {
		Classification string   `json:"clasificacion"`
		Urgent         bool     `json:"urgente"`
		Overdue        bool     `json:"vencido"`
		Actions        []Action `json:"acciones"`
	}{v.Classification, v.Urgent, v.Overdue, v.Actions})
	if err != nil {
		return nil, err
	}
	// une los dos objetos: {...base, ...extra}
	out := append(base[:len(base)-1:len(base)-1], ',')
	return append(out, extra[1:]...), nil
}

type pageResponse struct {
	Items    []dispatchView `json:"items"`
	Total    int            `json:"total"`
	Page     int            `json:"page"`
	PageSize int            `json:"pageSize"`
	Pages    int            `json:"pages"`
}

type deleteResponse struct {
	Deleted int `json:"eliminados"`
}

// listDispatchesHandler godoc
// @Summary Listar despachos
// @Description Lista despachos con filtros, orden y paginación.
// @Tags despachos
// @Produce json
// @Param Authorization header string false "Bearer token"
// @Param estado query string false "entregados | agendados | pendientes | vencidos | urgentes | cancelados | pospuestos"
// @Param q query string false "Texto libre: nombre, medicamento o municipio"
// @Param eps query string false "EPS"
// @Param ciclo query string false "Mensual | Quincenal | Semanal"
// @Param paciente query string false "Identificación del paciente"
// @Param orden query string false "fecha | paciente | medicamento | eps | ciclo | estado"
// @Param dir query string false "asc | desc (default desc)"
// @Param page query int false "Página (desde 1)"
// @Param pageSize query int false "Tamaño de página (max 200)"
// @Success 200 {object} pageResponse
// @Failure 400 {string} string "invalid input"
// @Failure 502 {string} string "store unavailable"
// @Router /despachos [get]
func listDispatchesHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		page, _ := strconv.Atoi(q.Get("page"))
		size, _ := strconv.Atoi(q.Get("pageSize"))

		res, err := svc.List(r.Context(), ListFilter{
			Status:    strings.ToLower(strings.TrimSpace(q.Get("estado"))),
			Query:     q.Get("q"),
			Insurer:   strings.TrimSpace(q.Get("eps")),
			Cycle:     strings.TrimSpace(q.Get("ciclo")),
			PatientID: strings.TrimSpace(q.Get("paciente")),
			SortBy:    strings.ToLower(strings.TrimSpace(q.Get("orden"))),
			SortAsc:   strings.EqualFold(q.Get("dir"), "asc"),
			Page:      page,
			PageSize:  size,
		})
		if err != nil {
			writeError(w, err)
			return
		}

		today := svc.Today()
		out := pageResponse{
			Items:    make([]dispatchView, 0, len(res.Items)),
			Total:    res.Total,
			Page:     res.Page,
			PageSize: res.PageSize,
			Pages:    res.Pages,
		}
		for _, d := range res.Items {
			out.Items = append(out.Items, toView(d, today))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// kpisHandler godoc
// @Summary Indicadores de despachos
// @Tags despachos
// @Produce json
// @Param Authorization header string false "Bearer token"
// @Success 200 {object} Summary
// @Failure 502 {string} string "store unavailable"
// @Router /despachos/kpis [get]
func kpisHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := svc.Summary(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, s)
	}
}

// calendarHandler godoc
// @Summary Calendario mensual
// @Description Agrupa los despachos por fecha programada. Sin `mes` usa el mes actual.
// @Tags despachos
// @Produce json
// @Param Authorization header string false "Bearer token"
// @Param mes query string false "YYYY-MM"
// @Success 200 {array} CalendarDay
// @Failure 400 {string} string "invalid input"
// @Router /despachos/calendario [get]
func calendarHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		days, err := svc.Calendar(r.Context(), r.URL.Query().Get("mes"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, days)
	}
}

// getDispatchHandler godoc
// @Summary Obtener despacho
// @Tags despachos
// @Produce json
// @Param Authorization header string false "Bearer token"
// @Param dispatchID path string true "ID del despacho"
// @Success 200 {object} dispatchView
// @Failure 404 {string} string "despacho no encontrado"
// @Router /despachos/{dispatchID} [get]
func getDispatchHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d, err := svc.GetByID(r.Context(), chi.URLParam(r, "dispatchID"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toView(d, svc.Today()))
	}
}

// transitionHandler godoc
// @Summary Cambiar estado del despacho
// @Description Acciones: agendar (Pendiente), entregar y posponer (Agendado/Pospuesto), cancelar (cualquiera no final).
// @Description posponer y cancelar requieren `motivo`; posponer requiere `fecha`.
// @Tags despachos
// @Accept json
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Param dispatchID path string true "ID del despacho"
// @Param action path string true "agendar | entregar | posponer | cancelar"
// @Param payload body transitionRequest false "Datos de la acción"
// @Success 200 {object} dispatchView
// @Failure 400 {string} string "motivo: requerido"
// @Failure 401 {string} string "unauthorized"
// @Failure 404 {string} string "despacho no encontrado"
// @Failure 409 {string} string "transición no permitida"
// @Router /despachos/{dispatchID}/{action} [post]
func transitionHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := actorFrom(r)
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		action, ok := ParseAction(chi.URLParam(r, "action"))
		if !ok {
			http.Error(w, "acción desconocida", http.StatusNotFound)
			return
		}

		var req transitionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		d, err := svc.Transition(r.Context(), chi.URLParam(r, "dispatchID"), action, TransitionInput{
			Date:     req.Date,
			Note:     req.Note,
			Reason:   req.Reason,
			Modality: Modality(strings.TrimSpace(req.Modality)),
			Actor:    actor,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toView(d, svc.Today()))
	}
}

// importHandler godoc
// @Summary Importar prescripciones
// @Description Recibe el CSV (cuerpo text/csv o multipart campo `archivo`), genera la hoja de ruta y guarda los despachos nuevos.
// @Description Con `progreso=true` responde NDJSON: una línea por avance y al final el reporte.
// @Tags despachos
// @Accept text/csv
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Param progreso query bool false "Transmitir avance"
// @Success 200 {object} ImportReport
// @Failure 401 {string} string "unauthorized"
// @Failure 413 {string} string "archivo demasiado grande"
// @Failure 422 {string} string "No se encontró cabecera válida."
// @Failure 502 {string} string "store unavailable"
// @Router /despachos/importar [post]
func importHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := actorFrom(r)
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		data, err := readUpload(w, r)
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				http.Error(w, "archivo demasiado grande", http.StatusRequestEntityTooLarge)
				return
			}
			http.Error(w, "archivo requerido", http.StatusBadRequest)
			return
		}

		if stream, _ := strconv.ParseBool(r.URL.Query().Get("progreso")); stream {
			runStreamed(w, func(progress ProgressFunc) (any, error) {
				return svc.Import(r.Context(), actor, data, progress)
			})
			return
		}

		rep, err := svc.Import(r.Context(), actor, data, nil)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, rep)
	}
}

// generateHandler godoc
// @Summary Generar hoja de ruta
// @Description Genera los despachos de los pacientes activos del directorio. Los ya existentes se omiten.
// @Tags despachos
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Param progreso query bool false "Transmitir avance"
// @Success 200 {object} ImportReport
// @Failure 401 {string} string "unauthorized"
// @Router /despachos/generar [post]
func generateHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := actorFrom(r)
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		if stream, _ := strconv.ParseBool(r.URL.Query().Get("progreso")); stream {
			runStreamed(w, func(progress ProgressFunc) (any, error) {
				return svc.GenerateFromPatients(r.Context(), actor, progress)
			})
			return
		}

		rep, err := svc.GenerateFromPatients(r.Context(), actor, nil)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, rep)
	}
}

// deleteAllHandler godoc
// @Summary Borrar todos los despachos
// @Description Limpieza administrativa. Requiere `confirmar=true`.
// @Tags despachos
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Param confirmar query bool true "Confirmación explícita"
// @Success 200 {object} deleteResponse
// @Failure 400 {string} string "confirmar=true requerido"
// @Failure 401 {string} string "unauthorized"
// @Router /despachos [delete]
func deleteAllHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := actorFrom(r)
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		if confirm, _ := strconv.ParseBool(r.URL.Query().Get("confirmar")); !confirm {
			http.Error(w, "confirmar=true requerido", http.StatusBadRequest)
			return
		}

		n, err := svc.DeleteAll(r.Context(), actor, nil)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, deleteResponse{Deleted: n})
	}
}

// deleteByPatientHandler godoc
// @Summary Borrar despachos de un paciente
// @Tags despachos
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Param patientID path string true "Identificación del paciente"
// @Success 200 {object} deleteResponse
// @Failure 401 {string} string "unauthorized"
// @Router /pacientes/{patientID}/despachos [delete]
func deleteByPatientHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := actorFrom(r)
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		n, err := svc.DeleteByPatient(r.Context(), actor, chi.URLParam(r, "patientID"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, deleteResponse{Deleted: n})
	}
}

// runStreamed escribe una línea NDJSON por avance y al final el resultado o el error.
func runStreamed(w http.ResponseWriter, run func(ProgressFunc) (any, error)) {
	w.Header().Set("Content-Type", "application/x-ndjson")
	w.WriteHeader(http.StatusOK)
	enc := json.NewEncoder(w)
	flusher, _ := w.(http.Flusher)

	last := -1
	res, err := run(func(p int) {
		if p == last {
			return
		}
		last = p
		_ = enc.Encode(map[string]int{"progreso": p})
		if flusher != nil {
			flusher.Flush()
		}
	})
	if err != nil {
		_ = enc.Encode(map[string]any{"error": errorMessage(err), "reporte": res})
		return
	}
	_ = enc.Encode(map[string]any{"reporte": res})
}

func readUpload(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxImportBytes)

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		f, _, err := r.FormFile("archivo")
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return io.ReadAll(f)
	}

	data, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, errors.New("empty body")
	}
	return data, nil
}

// actorFrom usa el email del token; si no viene, el user id.
func actorFrom(r *http.Request) (string, bool) {
	claims, ok := middleware.GetClaims(r.Context())
	if !ok || strings.TrimSpace(claims.UserID) == "" {
		return "", false
	}
	if e := strings.TrimSpace(claims.Email); e != "" {
		return e, true
	}
	return claims.UserID, true
}

func toView(d Dispatch, today time.Time) dispatchView {
	actions := Allowed(d.State)
	if actions == nil {
		actions = []Action{}
	}
	return dispatchView{
		Dispatch:       d,
		Classification: Classify(d, today),
		Urgent:         !d.Confirmed() && IsUrgent(d.ScheduledDate, today),
		Overdue:        IsOverdue(d, today),
		Actions:        actions,
	}
}

func writeError(w http.ResponseWriter, err error) {
	var (
		ve *ValidationError
		te *InvalidTransitionError
		se *StoreError
	)
	switch {
	case errors.As(err, &ve):
		http.Error(w, ve.Error(), http.StatusBadRequest)
	case errors.As(err, &te):
		http.Error(w, te.Error(), http.StatusConflict)
	case errors.Is(err, ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, prescriptions.ErrNoHeader), errors.Is(err, prescriptions.ErrEmptyInput):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	case errors.As(err, &se):
		http.Error(w, "store unavailable", http.StatusBadGateway)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

// errorMessage es el texto seguro para mostrar dentro de una respuesta ya iniciada.
func errorMessage(err error) string {
	var se *StoreError
	if errors.As(err, &se) {
		return fmt.Sprintf("store unavailable (%s)", se.Op)
	}
	return err.Error()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
