package formulary

// Catálogo base. Se puede reemplazar con FORMULARY_FILE o FORMULARY_URL.
var builtinMedications = []Medication{
	{Name: "ABEMACILIB X 150 MILIGRAMOS", ATC: "L01EF03", CommercialPresentation: 60, StandardDose: "300 MG X 30 DIAS", AdministrationDays: 30, Total: 30, DeliveryFrequency: 27},
	{Name: "ABEMACILIB X 100 MILIGRAMOS", ATC: "L01EF03", CommercialPresentation: 30, StandardDose: "100 MG X 30 DIAS", AdministrationDays: 30, Total: 30, DeliveryFrequency: 27},
	{Name: "ABIRATERONA ACETATO X 250 MILIGRAMOS", ATC: "L01EG02", CommercialPresentation: 120, StandardDose: "1000 MG X 30 DIAS", AdministrationDays: 30, Total: 30, DeliveryFrequency: 27},
	{Name: "ACIDO TRASRETINOICO (TRETINOINA) X 10 MILIGRAMOS", ATC: "L01XF01", CommercialPresentation: 100, StandardDose: "SEGÚN INDICACION", AdministrationDays: 30, Total: 30, DeliveryFrequency: 27},
	{Name: "AFATINIB X 30 MILIGRAMOS", ATC: "L01EB03", CommercialPresentation: 30, StandardDose: "30 MG X 30 DIAS", AdministrationDays: 30, Total: 30, DeliveryFrequency: 27},
	{Name: "AFATINIB X 40 MILIGRAMOS", ATC: "L01EB03", CommercialPresentation: 30, StandardDose: "30 MG X 30 DIAS", AdministrationDays: 30, Total: 30, DeliveryFrequency: 27},
	{Name: "ALECTINIB X 150 MILIGRAMOS", ATC: "L01ED03", CommercialPresentation: 112, StandardDose: "1200 MG X 28 DIAS", AdministrationDays: 28, Total: 28, DeliveryFrequency: 25},
	{Name: "ANASTROZOL X 1 MILIGRAMOS", ATC: "L02BG03", CommercialPresentation: 30, StandardDose: "1 MG X 30 DIAS", AdministrationDays: 30, Total: 30, DeliveryFrequency: 27},
	{Name: "APALUTAMIDA X 60 MILIGRAMOS", ATC: "L02BB05", CommercialPresentation: 120, StandardDose: "240 MG X 30 DIAS", AdministrationDays: 30, Total: 30, DeliveryFrequency: 27},
	{Name: "AXITINIB X 5 MILIGRAMOS", ATC: "L01EK01", CommercialPresentation: 60, StandardDose: "10 MG X 30 DIAS", AdministrationDays: 30, Total: 30, DeliveryFrequency: 27},
	{Name: "BOSUTINIB X 100 MILIGRAMOS", ATC: "L01EA04", CommercialPresentation: 28, StandardDose: "400 MG X 28 DIAS", AdministrationDays: 28, Total: 28, DeliveryFrequency: 25},
	{Name: "BOSUTINIB X 500 MILIGRAMOS", ATC: "L01EA04", CommercialPresentation: 30, StandardDose: "500 MG X 30 DIAS", AdministrationDays: 30, Total: 30, DeliveryFrequency: 27},
	{Name: "CABOZANTINIB X 20 MILIGRAMOS", ATC: "L01EX07", CommercialPresentation: 30, StandardDose: "60 MG X 30 DIAS", AdministrationDays: 30, Total: 30, DeliveryFrequency: 27},
	{Name: "CABOZANTINIB X 40 MILIGRAMOS", ATC: "L01EX07", CommercialPresentation: 30, StandardDose: "60 MG X 30 DIAS", AdministrationDays: 30, Total: 30, DeliveryFrequency: 27},
	{Name: "CABOZANTINIB X 60 MILIGRAMOS", ATC: "L01EX07", CommercialPresentation: 30, StandardDose: "60 MG X 30 DIAS", AdministrationDays: 30, Total: 30, DeliveryFrequency: 27},
}

var builtinTreatments = map[string]TreatmentConfig{
	// Oncológicos orales, ciclo mensual
	"IMATINIB":     {30, CycleMonthly},
	"NILOTINIB":    {30, CycleMonthly},
	"DASATINIB":    {30, CycleMonthly},
	"PONATINIB":    {30, CycleMonthly},
	"BOSUTINIB":    {30, CycleMonthly},
	"ERLOTINIB":    {30, CycleMonthly},
	"GEFITINIB":    {30, CycleMonthly},
	"OSIMERTINIB":  {30, CycleMonthly},
	"AFATINIB":     {30, CycleMonthly},
	"LAPATINIB":    {30, CycleMonthly},
	"IBRUTINIB":    {30, CycleMonthly},
	"RUXOLITINIB":  {30, CycleMonthly},
	"LENALIDOMIDA": {28, CycleMonthly},
	"POMALIDOMIDA": {28, CycleMonthly},
	"TALIDOMIDA":   {28, CycleMonthly},
	"EVEROLIMUS":   {30, CycleMonthly},
	"TEMSIROLIMUS": {30, CycleMonthly},
	"SUNITINIB":    {30, CycleMonthly},
	"SORAFENIB":    {30, CycleMonthly},
	"PAZOPANIB":    {30, CycleMonthly},
	"AXITINIB":     {30, CycleMonthly},
	"REGORAFENIB":  {28, CycleMonthly},
	"CABOZANTINIB": {30, CycleMonthly},
	"VENETOCLAX":   {28, CycleMonthly},
	"OLAPARIB":     {28, CycleMonthly},
	"NIRAPARIB":    {28, CycleMonthly},
	"RUCAPARIB":    {28, CycleMonthly},
	"ALECTINIB":    {30, CycleMonthly},
	"CRIZOTINIB":   {30, CycleMonthly},
	"CERITINIB":    {30, CycleMonthly},
	"BRIGATINIB":   {30, CycleMonthly},
	"LORLATINIB":   {30, CycleMonthly},
	"PALBOCICLIB":  {28, CycleMonthly},
	"RIBOCICLIB":   {28, CycleMonthly},
	"ABEMACICLIB":  {28, CycleMonthly},
	"NERATINIB":    {30, CycleMonthly},
	"LETROZOL":     {30, CycleMonthly},

	// Quimioterapia oral
	"CAPECITABINA": {14, CycleBiweekly},
	"TEMOZOLOMIDA": {28, CycleMonthly},
	"METOTREXATO":  {30, CycleMonthly},
	"HIDROXIUREA":  {30, CycleMonthly},
	"CLORAMBUCILO": {14, CycleBiweekly},
	"MELFALANO":    {28, CycleMonthly},
	"BUSULFANO":    {28, CycleMonthly},
	"LOMUSTINA":    {42, CycleMonthly},
	"PROCARBAZINA": {28, CycleMonthly},

	// Inmunomoduladores
	"AZATIOPRINA":  {30, CycleMonthly},
	"CICLOSPORINA": {30, CycleMonthly},
	"MICOFENOLATO": {30, CycleMonthly},
	"TACROLIMUS":   {30, CycleMonthly},
}

// Builtin devuelve el formulario con el catálogo base.
func Builtin() *Formulary {
	return New(builtinMedications, builtinTreatments)
}
