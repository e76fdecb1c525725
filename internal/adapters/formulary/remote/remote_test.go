package remote

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"oncology-dispatch/internal/domain/formulary"
	"oncology-dispatch/internal/platform/httpclient"
)

func TestFetchCatalog_ReplacesFormulary(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Api-Key") != "k" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		_, _ = w.Write([]byte(`{"medicamentos":[{"medicamento":"sotorasib x 120 mg","atc":"L01XX73","frecuenciaEntrega":21}]}`))
	}))
	defer srv.Close()

	c, err := NewClient(Config{BaseURL: srv.URL, APIKey: "k"}, nil)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	f := formulary.Builtin()

	n, err := NewRefresher(c, f, nil).Refresh(context.Background())
	if err != nil || n != 1 {
		t.Fatalf("Refresh: n=%d err=%v", n, err)
	}
	if cfg := f.Lookup("SOTORASIB X 120 MG"); cfg.IntervalDays != 21 {
		t.Fatalf("expected remote cadence, got %+v", cfg)
	}
	// la tabla de tratamientos se conserva si el remoto no la manda
	if cfg := f.Lookup("CAPECITABINA 500 MG"); cfg.IntervalDays != 14 {
		t.Fatalf("expected builtin treatments kept, got %+v", cfg)
	}
}

func TestFetchCatalog_Errors(t *testing.T) {
	if _, err := (&Client{}).FetchCatalog(context.Background()); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c, _ := NewClient(Config{BaseURL: srv.URL}, nil)
	if _, err := c.FetchCatalog(context.Background()); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestRefresh_KeepsCatalogWhenUpstreamDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	cfg := httpclient.DefaultBreakerConfig("formulary")
	cfg.FailureThreshold = 1
	c, _ := NewClient(Config{BaseURL: srv.URL}, httpclient.NewBreaker(cfg, nil, nil))
	f := formulary.Builtin()
	before := len(f.Medications())

	r := NewRefresher(c, f, nil)
	if _, err := r.Refresh(context.Background()); !errors.Is(err, ErrUpstream) {
		t.Fatalf("expected ErrUpstream, got %v", err)
	}
	// segundo intento: breaker abierto
	_, err := r.Refresh(context.Background())
	if !errors.Is(err, ErrUpstream) {
		t.Fatalf("expected ErrUpstream wrapping open circuit, got %v", err)
	}
	if len(f.Medications()) != before {
		t.Fatalf("catalog must be kept on failure")
	}
}
