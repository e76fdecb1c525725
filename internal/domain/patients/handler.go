package patients

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"oncology-dispatch/internal/middleware"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes monta /pacientes; nested agrega rutas de otros módulos bajo el mismo prefijo.
func RegisterRoutes(r chi.Router, svc *Service, nested ...func(chi.Router)) {
	r.Route("/pacientes", func(pr chi.Router) {
		pr.Get("/", listPatientsHandler(svc))
		pr.Get("/{patientID}", getPatientHandler(svc))
		pr.Put("/{patientID}", upsertPatientHandler(svc))
		for _, fn := range nested {
			fn(pr)
		}
	})
}

type upsertPatientRequest struct {
	FullName     string `json:"nombreCompleto"`
	Medication   string `json:"medicamento"`
	Dose         string `json:"dosis"`
	Insurer      string `json:"eps"`
	Municipality string `json:"municipio"`
	Department   string `json:"departamento"`
	Phone        string `json:"telefono"`
	Status       string `json:"estado"` // ej: "AC - ACTIVO"
}

// patientResponse representa un paciente del directorio.
type patientResponse struct {
	ID                 string         `json:"id"`
	FullName           string         `json:"nombreCompleto"`
	Medication         string         `json:"medicamento"`
	Dose               string         `json:"dosis"`
	Insurer            string         `json:"eps"`
	Municipality       string         `json:"municipio"`
	Department         string         `json:"departamento"`
	Phone              string         `json:"telefono"`
	Status             string         `json:"estado"`
	Active             bool           `json:"activo"`
	DeliveryHistory    map[string]int `json:"historialEntregas"`
	MonthsWithDelivery int            `json:"mesesConEntrega"`
	CreatedAt          time.Time      `json:"creadoEn"`
	UpdatedAt          time.Time      `json:"actualizadoEn"`
}

// listPatientsHandler godoc
// @Summary Listar pacientes
// @Description Lista el directorio de pacientes. Con `activos=true` solo devuelve pacientes en estado AC.
// @Tags pacientes
// @Produce json
// @Param Authorization header string false "Bearer token"
// @Param activos query bool false "Solo pacientes activos"
// @Success 200 {array} patientResponse
// @Failure 401 {string} string "unauthorized"
// @Failure 500 {string} string "internal error"
// @Router /pacientes [get]
func listPatientsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var (
			items []Patient
			err   error
		)
		if active, _ := strconv.ParseBool(r.URL.Query().Get("activos")); active {
			items, err = svc.ListActive(r.Context())
		} else {
			items, err = svc.List(r.Context())
		}
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		out := make([]patientResponse, 0, len(items))
		for _, p := range items {
			out = append(out, toPatientResponse(p))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// getPatientHandler godoc
// @Summary Obtener paciente
// @Tags pacientes
// @Produce json
// @Param Authorization header string false "Bearer token"
// @Param patientID path string true "Identificación del paciente"
// @Success 200 {object} patientResponse
// @Failure 404 {string} string "paciente no encontrado"
// @Router /pacientes/{patientID} [get]
func getPatientHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := svc.GetByID(r.Context(), chi.URLParam(r, "patientID"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toPatientResponse(p))
	}
}

// upsertPatientHandler godoc
// @Summary Crear o actualizar paciente
// @Description Crea el paciente si no existe; si existe, reemplaza sus datos y conserva el historial de entregas.
// @Tags pacientes
// @Accept json
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Param patientID path string true "Identificación del paciente"
// @Param payload body upsertPatientRequest true "Datos del paciente"
// @Success 200 {object} patientResponse
// @Failure 400 {string} string "invalid json / nombreCompleto requerido"
// @Failure 401 {string} string "unauthorized"
// @Router /pacientes/{patientID} [put]
func upsertPatientHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := middleware.GetClaims(r.Context()); !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req upsertPatientRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		p, err := svc.Upsert(r.Context(), UpsertInput{
			ID:           chi.URLParam(r, "patientID"),
			FullName:     req.FullName,
			Medication:   req.Medication,
			Dose:         req.Dose,
			Insurer:      req.Insurer,
			Municipality: req.Municipality,
			Department:   req.Department,
			Phone:        req.Phone,
			Status:       req.Status,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toPatientResponse(p))
	}
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func toPatientResponse(p Patient) patientResponse {
	hist := p.DeliveryHistory
	if hist == nil {
		hist = map[string]int{}
	}
	return patientResponse{
		ID:                 p.ID,
		FullName:           p.FullName,
		Medication:         p.Medication,
		Dose:               p.Dose,
		Insurer:            p.Insurer,
		Municipality:       p.Municipality,
		Department:         p.Department,
		Phone:              p.Phone,
		Status:             p.Status,
		Active:             p.Active(),
		DeliveryHistory:    hist,
		MonthsWithDelivery: p.MonthsWithDelivery(),
		CreatedAt:          p.CreatedAt,
		UpdatedAt:          p.UpdatedAt,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
