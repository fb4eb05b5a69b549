package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/totegamma/wbconstraints/internal/config"
	"github.com/totegamma/wbconstraints/internal/logger"
)

var (
	// Version is set at build time.
	Version = "dev"

	configPath string
	cfg        config.Config
	log        *zap.Logger
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "wbconstraints",
		Short:         "Constraint checking service for Wikibase entities",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = loadConfig(configPath, cmd.Flags().Changed("config"))
			if err != nil {
				return err
			}
			log, err = logger.New(cfg.Server.LogLevel, cfg.Server.LogFormat)
			if err != nil {
				return err
			}
			zap.ReplaceGlobals(log)
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if log != nil {
				_ = log.Sync()
			}
		},
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "path to the configuration file")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(importCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads path. A missing file is only an error when the path was
// given explicitly; otherwise the defaults are used.
func loadConfig(path string, explicit bool) (config.Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) && !explicit {
		return config.Default(), nil
	}
	return config.Load(path)
}
