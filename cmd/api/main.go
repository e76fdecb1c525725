package main

import (
	"os"

	"github.com/spf13/cobra"
)

// @title Oncology Dispatch API
// @version 1.0
// @description Despachos de medicamentos oncológicos orales: importación, hoja de ruta y seguimiento.
// @BasePath /
func main() {
	var configFile string

	rootCmd := &cobra.Command{
		Use:          "oncology-dispatch",
		Short:        "Gestión de despachos de medicamentos oncológicos",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "archivo de configuración (.env por defecto)")

	rootCmd.AddCommand(serveCmd(&configFile))
	rootCmd.AddCommand(importCmd(&configFile))
	rootCmd.AddCommand(generateCmd(&configFile))
	rootCmd.AddCommand(clearCmd(&configFile))
	rootCmd.AddCommand(migrateCmd(&configFile))

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
