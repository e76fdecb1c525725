package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"oncology-dispatch/internal/domain/dispatches"
	"oncology-dispatch/internal/router"

	"github.com/spf13/cobra"
)

func serveCmd(configFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Levantar la API HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(*configFile)
		},
	}
}

func runServer(configFile string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := bootstrap(ctx, configFile)
	if err != nil {
		return err
	}
	defer a.close()

	if a.refresher != nil {
		go a.refresher.Run(ctx, a.cfg.FormularyInterval)
	}

	opts, err := a.routerOptions(ctx)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              ":" + a.cfg.Port,
		Handler:           router.NewRouter(opts),
		ReadHeaderTimeout: 5 * time.Second,
		// cubre importaciones largas con progreso
		WriteTimeout: 5 * time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Info("starting server", map[string]any{"addr": srv.Addr, "env": a.cfg.Env})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
	}

	a.log.Info("shutting down server", nil)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	a.log.Info("server stopped", nil)
	return nil
}

func importCmd(configFile *string) *cobra.Command {
	var actor string
	cmd := &cobra.Command{
		Use:   "importar <archivo.csv>",
		Short: "Importar prescripciones desde un CSV y generar la hoja de ruta",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			return runBatch(cmd.Context(), *configFile, func(ctx context.Context, svc *dispatches.Service, progress dispatches.ProgressFunc) (any, error) {
				return svc.Import(ctx, actor, data, progress)
			})
		},
	}
	cmd.Flags().StringVar(&actor, "actor", "cli", "usuario registrado en el historial")
	return cmd
}

func generateCmd(configFile *string) *cobra.Command {
	var actor string
	cmd := &cobra.Command{
		Use:   "generar",
		Short: "Generar despachos para los pacientes activos del directorio",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(cmd.Context(), *configFile, func(ctx context.Context, svc *dispatches.Service, progress dispatches.ProgressFunc) (any, error) {
				return svc.GenerateFromPatients(ctx, actor, progress)
			})
		},
	}
	cmd.Flags().StringVar(&actor, "actor", "cli", "usuario registrado en el historial")
	return cmd
}

func clearCmd(configFile *string) *cobra.Command {
	var (
		actor   string
		confirm bool
	)
	cmd := &cobra.Command{
		Use:   "limpiar",
		Short: "Borrar todos los despachos",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !confirm {
				return errors.New("usar --confirmar para borrar todos los despachos")
			}
			return runBatch(cmd.Context(), *configFile, func(ctx context.Context, svc *dispatches.Service, progress dispatches.ProgressFunc) (any, error) {
				n, err := svc.DeleteAll(ctx, actor, progress)
				return map[string]int{"eliminados": n}, err
			})
		},
	}
	cmd.Flags().StringVar(&actor, "actor", "cli", "usuario registrado en el log")
	cmd.Flags().BoolVar(&confirm, "confirmar", false, "confirmar el borrado")
	return cmd
}

func migrateCmd(configFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrar",
		Short: "Aplicar el esquema de base de datos",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap(cmd.Context(), *configFile)
			if err != nil {
				return err
			}
			defer a.close()
			if err := a.requireDB(); err != nil {
				return err
			}
			// bootstrap aplica el esquema al abrir la base
			a.log.Info("schema applied", nil)
			return nil
		},
	}
}

type batchFunc func(ctx context.Context, svc *dispatches.Service, progress dispatches.ProgressFunc) (any, error)

func runBatch(ctx context.Context, configFile string, run batchFunc) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := bootstrap(ctx, configFile)
	if err != nil {
		return err
	}
	defer a.close()
	if err := a.requireDB(); err != nil {
		return err
	}

	if a.refresher != nil {
		if _, err := a.refresher.Refresh(ctx); err != nil {
			a.log.Warn("using local formulary", map[string]any{"err": err.Error()})
		}
	}

	opts, err := a.routerOptions(ctx)
	if err != nil {
		return err
	}
	svcs := router.NewServices(opts)

	res, err := run(ctx, svcs.Dispatches, func(p int) {
		a.log.Info("progress", map[string]any{"percent": p})
	})
	if err != nil {
		return err
	}
	a.log.Info("done", map[string]any{"result": res})
	return nil
}
