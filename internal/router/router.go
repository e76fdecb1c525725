package router

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"oncology-dispatch/internal/adapters/auth/jwtauth"
	mem "oncology-dispatch/internal/adapters/storage/memory"
	pg "oncology-dispatch/internal/adapters/storage/postgres"
	"oncology-dispatch/internal/domain/dispatches"
	"oncology-dispatch/internal/domain/formulary"
	"oncology-dispatch/internal/domain/patients"
	"oncology-dispatch/internal/middleware"
	"oncology-dispatch/internal/platform/logger"
	"oncology-dispatch/internal/platform/metrics"
	"oncology-dispatch/internal/platform/websocket"
	"oncology-dispatch/internal/ports/auth"
	"oncology-dispatch/internal/ports/events"

	_ "oncology-dispatch/docs"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"
)

type Options struct {
	AuthVerifier auth.AuthVerifier // puede ser nil (modo dev)
	Login        *jwtauth.Login    // nil: /auth/login responde 503

	// Opcional: si viene, usa Postgres. Si no, in-memory.
	DB *sql.DB

	Logger    logger.Logger
	Metrics   *metrics.Metrics
	Publisher events.Publisher
	Formulary *formulary.Formulary

	ServiceName   string
	Location      *time.Location
	HorizonMonths int
	BatchSize     int

	// Context acota la vida del pump de snapshots. nil => Background.
	Context context.Context
}

// Services son los servicios de dominio ya cableados a sus repos.
type Services struct {
	Patients   *patients.Service
	Dispatches *dispatches.Service
}

// NewServices arma repos y servicios según opts; lo usan el router y los comandos de la CLI.
func NewServices(opts Options) Services {
	var (
		patientRepo  patients.Repository
		dispatchRepo dispatches.Repository
	)
	if opts.DB != nil {
		patientRepo = pg.NewPatientsRepo(opts.DB)
		dispatchRepo = pg.NewDispatchesRepo(opts.DB)
	} else {
		patientRepo = mem.NewPatientRepo()
		dispatchRepo = mem.NewDispatchRepo()
	}

	f := opts.Formulary
	if f == nil {
		f = formulary.Builtin()
	}

	dopts := dispatches.Options{
		Formulary:     f,
		Publisher:     opts.Publisher,
		Logger:        opts.Logger,
		Location:      opts.Location,
		HorizonMonths: opts.HorizonMonths,
		BatchSize:     opts.BatchSize,
	}
	// un *Metrics nil dentro de la interfaz no es nil
	if opts.Metrics != nil {
		dopts.Metrics = opts.Metrics
	}

	patientsSvc := patients.NewService(patientRepo)
	dopts.Patients = patientsSvc

	return Services{
		Patients:   patientsSvc,
		Dispatches: dispatches.NewService(dispatchRepo, dopts),
	}
}

func NewRouter(opts Options) http.Handler {
	if opts.Logger == nil {
		opts.Logger = logger.Nop()
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.New()
	}
	if opts.Formulary == nil {
		opts.Formulary = formulary.Builtin()
	}
	if opts.ServiceName == "" {
		opts.ServiceName = "oncology-dispatch"
	}
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Tracing(opts.ServiceName))
	r.Use(middleware.AccessLog(opts.Logger, opts.Metrics))
	r.Use(middleware.Recover(opts.Logger))

	r.Use(middleware.AuthContext(opts.AuthVerifier))

	r.Get("/health", healthHandler(opts.DB))
	r.Handle("/metrics", opts.Metrics.Handler())
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	svcs := NewServices(opts)

	hub := websocket.NewHub(opts.Logger)
	hub.OnCount(opts.Metrics.SetSubscribers)
	go func() {
		if err := dispatches.PumpSnapshots(ctx, svcs.Dispatches, hub, opts.Logger); err != nil {
			opts.Logger.Error("snapshot pump stopped", map[string]any{"err": err.Error()})
		}
		hub.Close()
	}()

	// Rutas por módulo
	jwtauth.RegisterRoutes(r, opts.Login)
	formulary.RegisterRoutes(r, opts.Formulary)
	patients.RegisterRoutes(r, svcs.Patients, dispatches.PatientRoutes(svcs.Dispatches))
	dispatches.RegisterRoutes(r, svcs.Dispatches, hub)

	return r
}

func healthHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if db != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := db.PingContext(ctx); err != nil {
				http.Error(w, "db unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}
}
