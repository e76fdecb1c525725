package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"

	"oncology-dispatch/internal/adapters/auth/jwtauth"
	"oncology-dispatch/internal/adapters/broker/redpanda"
	"oncology-dispatch/internal/adapters/formulary/remote"
	pg "oncology-dispatch/internal/adapters/storage/postgres"
	"oncology-dispatch/internal/config"
	"oncology-dispatch/internal/domain/formulary"
	"oncology-dispatch/internal/platform/httpclient"
	"oncology-dispatch/internal/platform/logger"
	"oncology-dispatch/internal/platform/metrics"
	"oncology-dispatch/internal/platform/tracing"
	"oncology-dispatch/internal/ports/events"
	"oncology-dispatch/internal/router"
)

const version = "1.0.0"

// app reúne las dependencias de proceso armadas desde la configuración.
type app struct {
	cfg       *config.Config
	log       *logger.ZapLogger
	metrics   *metrics.Metrics
	db        *sql.DB
	publisher events.Publisher
	formulary *formulary.Formulary
	refresher *remote.Refresher
	tokens    *jwtauth.Tokens
	tracing   *tracing.Provider

	closers []func()
}

func bootstrap(ctx context.Context, configFile string) (*app, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg: cfg,
		log: logger.New(logger.Options{
			Level:  logger.ParseLevel(cfg.LogLevel),
			Format: logger.ParseFormat(cfg.LogFormat),
			App:    cfg.AppName,
			Output: os.Stdout,
		}),
		metrics: metrics.New(),
	}
	a.closers = append(a.closers, func() { _ = a.log.Sync() })

	if err := a.initTracing(ctx); err != nil {
		a.close()
		return nil, err
	}
	if err := a.initDB(ctx); err != nil {
		a.close()
		return nil, err
	}
	if err := a.initPublisher(ctx); err != nil {
		a.close()
		return nil, err
	}
	if err := a.initFormulary(); err != nil {
		a.close()
		return nil, err
	}
	if err := a.initAuth(); err != nil {
		a.close()
		return nil, err
	}
	return a, nil
}

func (a *app) initTracing(ctx context.Context) error {
	tp, err := tracing.Init(ctx, tracing.Config{
		ServiceName:    a.cfg.AppName,
		ServiceVersion: version,
		Environment:    a.cfg.Env,
		OTLPEndpoint:   a.cfg.OTLPEndpoint,
		SampleRate:     a.cfg.OTELSampleRate,
	})
	if err != nil {
		return err
	}
	a.tracing = tp
	a.closers = append(a.closers, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			a.log.Warn("tracing shutdown failed", map[string]any{"err": err.Error()})
		}
	})
	return nil
}

func (a *app) initDB(ctx context.Context) error {
	if a.cfg.DBDSN == "" {
		a.log.Warn("DB_DSN not set, using in-memory store", nil)
		return nil
	}
	db, err := pg.Open(a.cfg.DBDSN)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	if err := pg.Migrate(ctx, db); err != nil {
		_ = db.Close()
		return err
	}
	a.db = db
	a.closers = append(a.closers, func() { _ = db.Close() })
	return nil
}

func (a *app) initPublisher(ctx context.Context) error {
	brokers := redpanda.ParseBrokers(a.cfg.KafkaBrokers)
	if len(brokers) == 0 {
		a.publisher = events.Nop{}
		return nil
	}

	if err := redpanda.EnsureTopic(ctx, brokers, redpanda.DefaultTopicConfig(a.cfg.KafkaTopic), a.log); err != nil {
		a.log.Warn("topic check failed", map[string]any{"err": err.Error()})
	}
	p, err := redpanda.NewPublisher(redpanda.Config{
		Brokers: brokers,
		Topic:   a.cfg.KafkaTopic,
	}, a.log, a.metrics.ObservePublish)
	if err != nil {
		return err
	}
	a.publisher = p
	a.closers = append(a.closers, p.Close)
	return nil
}

func (a *app) initFormulary() error {
	a.formulary = formulary.Builtin()
	if a.cfg.FormularyFile != "" {
		f, err := formulary.LoadFile(a.cfg.FormularyFile)
		if err != nil {
			return fmt.Errorf("formulary file: %w", err)
		}
		a.formulary = f
	}

	if a.cfg.FormularyURL == "" {
		return nil
	}
	breaker := httpclient.NewBreaker(httpclient.DefaultBreakerConfig("formulary"), a.log, a.metrics.BreakerChanged)
	client, err := remote.NewClient(remote.Config{
		BaseURL: a.cfg.FormularyURL,
		APIKey:  a.cfg.FormularyAPIKey,
	}, breaker)
	if err != nil {
		return fmt.Errorf("formulary client: %w", err)
	}
	a.refresher = remote.NewRefresher(client, a.formulary, a.log)
	return nil
}

func (a *app) initAuth() error {
	if a.cfg.AuthSigningKey == "" {
		a.log.Warn("AUTH_SIGNING_KEY not set, running in dev auth mode (X-Debug-User-ID)", nil)
		return nil
	}
	tokens, err := jwtauth.NewTokens(jwtauth.Config{
		SigningKey: a.cfg.AuthSigningKey,
		TTL:        a.cfg.AuthTokenTTL,
		Issuer:     a.cfg.AppName,
	})
	if err != nil {
		return err
	}
	a.tokens = tokens
	return nil
}

func (a *app) routerOptions(ctx context.Context) (router.Options, error) {
	loc, err := a.cfg.Location()
	if err != nil {
		return router.Options{}, err
	}
	opts := router.Options{
		DB:            a.db,
		Logger:        a.log,
		Metrics:       a.metrics,
		Publisher:     a.publisher,
		Formulary:     a.formulary,
		ServiceName:   a.cfg.AppName,
		Location:      loc,
		HorizonMonths: a.cfg.HorizonMonths,
		BatchSize:     a.cfg.BatchSize,
		Context:       ctx,
	}
	if a.tokens != nil {
		opts.AuthVerifier = a.tokens
		opts.Login = jwtauth.NewLogin(a.tokens, a.cfg.AdminEmail, a.cfg.AdminPasswordHash)
	}
	return opts, nil
}

// requireDB: los comandos batch operan sobre Postgres.
func (a *app) requireDB() error {
	if a.db == nil {
		return errors.New("DB_DSN es requerido para este comando")
	}
	return nil
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}
