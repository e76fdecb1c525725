package formulary

// Medication es una entrada del catálogo de medicamentos oncológicos.
type Medication struct {
	Name                   string `json:"medicamento" yaml:"medicamento"`
	ATC                    string `json:"atc" yaml:"atc"`
	CommercialPresentation int    `json:"presentacionComercial" yaml:"presentacionComercial"`
	StandardDose           string `json:"dosisEstandar" yaml:"dosisEstandar"`
	AdministrationDays     int    `json:"diasAdministracion" yaml:"diasAdministracion"`
	RestDays               int    `json:"diasDescanso" yaml:"diasDescanso"`
	Total                  int    `json:"total" yaml:"total"`
	DeliveryFrequency      int    `json:"frecuenciaEntrega" yaml:"frecuenciaEntrega"`
}

// Ciclos descriptivos.
const (
	CycleMonthly  = "Mensual"
	CycleBiweekly = "Quincenal"
	CycleWeekly   = "Semanal"
)

// TreatmentConfig define la cadencia de reabastecimiento de un principio activo.
type TreatmentConfig struct {
	IntervalDays int    `json:"diasEntrega" yaml:"diasEntrega"`
	CycleLabel   string `json:"ciclo" yaml:"ciclo"`
}

// DefaultTreatment aplica a medicamentos sin configuración propia.
var DefaultTreatment = TreatmentConfig{IntervalDays: 30, CycleLabel: CycleMonthly}

// CycleForInterval deriva la etiqueta de ciclo a partir del intervalo en días.
func CycleForInterval(days int) string {
	switch {
	case days > 0 && days <= 7:
		return CycleWeekly
	case days > 7 && days <= 15:
		return CycleBiweekly
	default:
		return CycleMonthly
	}
}
