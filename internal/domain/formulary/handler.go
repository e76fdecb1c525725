package formulary

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, f *Formulary) {
	r.Get("/formulario", listMedicationsHandler(f))
	r.Get("/formulario/config", lookupHandler(f))
}

// listMedicationsHandler godoc
// @Summary Listar catálogo de medicamentos
// @Description Devuelve el catálogo de medicamentos oncológicos reconocidos por el importador.
// @Tags formulario
// @Produce json
// @Success 200 {array} Medication
// @Router /formulario [get]
func listMedicationsHandler(f *Formulary) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, f.Medications())
	}
}

// lookupHandler godoc
// @Summary Configuración de entrega de un medicamento
// @Description Resuelve intervalo (días) y ciclo para el nombre indicado; si no hay coincidencia devuelve el default mensual.
// @Tags formulario
// @Produce json
// @Param medicamento query string true "Nombre del medicamento"
// @Success 200 {object} TreatmentConfig
// @Failure 400 {string} string "medicamento requerido"
// @Router /formulario/config [get]
func lookupHandler(f *Formulary) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := r.URL.Query().Get("medicamento")
		if name == "" {
			http.Error(w, "medicamento requerido", http.StatusBadRequest)
			return
		}
		writeJSON(w, http.StatusOK, f.Lookup(name))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
