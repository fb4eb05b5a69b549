package main

import (
	"encoding/json"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/totegamma/wbconstraints/internal/usecase"
)

var importCmd = &cobra.Command{
	Use:   "import FILE...",
	Short: "Load entities and constraints from JSON dumps",
	Long: `Each file holds {"entities": [...], "constraints": {"P31": [...]}}.
Saved entities get a new revision and their stored results are purged.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), cfg, log)
		if err != nil {
			return err
		}
		defer a.Close()

		for _, path := range args {
			raw, err := os.ReadFile(path)
			if err != nil {
				return errors.Wrapf(err, "failed to read %s", path)
			}
			var dump usecase.Dump
			if err := json.Unmarshal(raw, &dump); err != nil {
				return errors.Wrapf(err, "failed to decode %s", path)
			}
			report, err := a.importer.Import(cmd.Context(), dump)
			if err != nil {
				return errors.Wrapf(err, "failed to import %s", path)
			}
			log.Info("imported",
				zap.String("file", path),
				zap.Int("entities", report.Entities),
				zap.Int("properties", report.Properties),
			)
		}
		return nil
	},
}
