// Package metrics expone los collectors de Prometheus del servicio de despachos.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sony/gobreaker"
)

// Metrics agrupa los collectors. Cada instancia tiene su propio registry.
type Metrics struct {
	registry *prometheus.Registry

	Transitions       *prometheus.CounterVec
	DispatchesWritten prometheus.Counter
	DispatchesGen     prometheus.Counter
	DispatchesDeleted prometheus.Counter
	ImportRows        *prometheus.CounterVec
	BatchDuration     prometheus.Histogram
	EventsPublished   *prometheus.CounterVec
	LiveSubscribers   prometheus.Gauge
	BreakerState      *prometheus.GaugeVec
	HTTPRequests      *prometheus.CounterVec
	HTTPDuration      *prometheus.HistogramVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dispatch_transitions_total",
			Help: "Transiciones de estado por acción y resultado",
		}, []string{"action", "outcome"}),
		DispatchesWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dispatches_written_total",
			Help: "Despachos nuevos guardados",
		}),
		DispatchesGen: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dispatches_generated_total",
			Help: "Despachos proyectados por la hoja de ruta (incluye existentes)",
		}),
		DispatchesDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dispatches_deleted_total",
			Help: "Despachos eliminados",
		}),
		ImportRows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "prescription_import_rows_total",
			Help: "Filas importadas por resultado",
		}, []string{"result"}),
		BatchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "dispatch_batch_duration_seconds",
			Help:    "Duración de cada lote de escritura",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		}),
		EventsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dispatch_events_published_total",
			Help: "Eventos enviados al broker por resultado",
		}, []string{"outcome"}),
		LiveSubscribers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "dispatch_live_subscribers",
			Help: "Clientes websocket conectados",
		}),
		BreakerState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Estado del circuit breaker (0=closed, 1=half-open, 2=open)",
		}, []string{"name"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Requests HTTP por ruta, método y status",
		}, []string{"route", "method", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duración de requests HTTP",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.Transitions,
		m.DispatchesWritten,
		m.DispatchesGen,
		m.DispatchesDeleted,
		m.ImportRows,
		m.BatchDuration,
		m.EventsPublished,
		m.LiveSubscribers,
		m.BreakerState,
		m.HTTPRequests,
		m.HTTPDuration,
	)
	return m
}

// Handler expone el registry propio en /metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Los métodos siguientes implementan dispatches.Metrics.

func (m *Metrics) ObserveTransition(action, outcome string) {
	m.Transitions.WithLabelValues(action, outcome).Inc()
}

func (m *Metrics) AddGenerated(n int) { m.DispatchesGen.Add(float64(n)) }
func (m *Metrics) AddWritten(n int)   { m.DispatchesWritten.Add(float64(n)) }
func (m *Metrics) AddDeleted(n int)   { m.DispatchesDeleted.Add(float64(n)) }

func (m *Metrics) ObserveImport(prescriptions, skipped, errors int) {
	m.ImportRows.WithLabelValues("ok").Add(float64(prescriptions))
	m.ImportRows.WithLabelValues("skipped").Add(float64(skipped))
	m.ImportRows.WithLabelValues("error").Add(float64(errors))
}

func (m *Metrics) ObserveBatch(d time.Duration) {
	m.BatchDuration.Observe(d.Seconds())
}

// ObservePublish cuenta eventos publicados o fallidos.
func (m *Metrics) ObservePublish(err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.EventsPublished.WithLabelValues(outcome).Inc()
}

func (m *Metrics) SetSubscribers(n int) { m.LiveSubscribers.Set(float64(n)) }

// BreakerChanged sirve como httpclient.StateChange.
func (m *Metrics) BreakerChanged(name string, _, to gobreaker.State) {
	v := 0.0
	switch to {
	case gobreaker.StateHalfOpen:
		v = 1
	case gobreaker.StateOpen:
		v = 2
	}
	m.BreakerState.WithLabelValues(name).Set(v)
}

func (m *Metrics) ObserveHTTP(route, method string, status int, d time.Duration) {
	m.HTTPRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(route, method).Observe(d.Seconds())
}
