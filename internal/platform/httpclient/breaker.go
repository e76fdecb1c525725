package httpclient

import (
	"errors"
	"time"

	"oncology-dispatch/internal/platform/logger"

	"github.com/sony/gobreaker"
)

// ErrCircuitOpen: el breaker está abierto y no se hizo la llamada.
var ErrCircuitOpen = errors.New("httpclient: circuit open")

type BreakerConfig struct {
	Name             string
	MaxRequests      uint32        // permitidas en half-open
	Interval         time.Duration // limpieza de contadores en closed
	Timeout          time.Duration // open -> half-open
	FailureThreshold uint32        // fallas consecutivas para abrir
}

func DefaultBreakerConfig(name string) BreakerConfig {
	return BreakerConfig{
		Name:             name,
		MaxRequests:      1,
		Interval:         60 * time.Second,
		Timeout:          30 * time.Second,
		FailureThreshold: 3,
	}
}

// Breaker envuelve gobreaker. Solo las fallas del upstream (red, 5xx, 429) abren el circuito.
type Breaker struct {
	cb  *gobreaker.CircuitBreaker
	log logger.Logger
}

// StateChange recibe cada cambio de estado (para métricas).
type StateChange func(name string, from, to gobreaker.State)

func NewBreaker(cfg BreakerConfig, log logger.Logger, onChange StateChange) *Breaker {
	if log == nil {
		log = logger.Nop()
	}
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 3
	}

	b := &Breaker{log: log}
	b.cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= cfg.FailureThreshold
		},
		IsSuccessful: upstreamHealthy,
		OnStateChange: func(name string, from, to gobreaker.State) {
			b.log.Warn("circuit breaker state changed", map[string]any{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			})
			if onChange != nil {
				onChange(name, from, to)
			}
		},
	})
	return b
}

// Do ejecuta fn a través del breaker.
func (b *Breaker) Do(fn func() error) error {
	_, err := b.cb.Execute(func() (any, error) {
		return nil, fn()
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return ErrCircuitOpen
	}
	return err
}

func (b *Breaker) State() gobreaker.State {
	return b.cb.State()
}

func upstreamHealthy(err error) bool {
	if err == nil {
		return true
	}
	var he *HTTPError
	if errors.As(err, &he) {
		return !he.Temporary()
	}
	return false
}
