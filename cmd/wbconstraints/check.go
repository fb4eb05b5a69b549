package main

import (
	"encoding/json"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/totegamma/wbconstraints"
	"github.com/totegamma/wbconstraints/checker"
	"github.com/totegamma/wbconstraints/internal/usecase"
)

var (
	checkStatuses    []string
	checkConstraints []string
)

var checkCmd = &cobra.Command{
	Use:   "check ID...",
	Short: "Check entities and print the results as JSON lines",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ids := make([]wbconstraints.EntityID, 0, len(args))
		for _, raw := range args {
			id, err := wbconstraints.ParseEntityID(raw)
			if err != nil {
				return err
			}
			ids = append(ids, id)
		}

		statuses := usecase.CachedStatuses
		if len(checkStatuses) > 0 {
			statuses = nil
			for _, s := range checkStatuses {
				status, ok := checker.ParseStatus(s)
				if !ok {
					return errors.Errorf("unknown status %q", s)
				}
				statuses = append(statuses, status)
			}
		}

		var constraintIDs []string
		if cmd.Flags().Changed("constraint") {
			constraintIDs = checkConstraints
		}

		a, err := newApp(cmd.Context(), cfg, log)
		if err != nil {
			return err
		}
		defer a.Close()

		results, err := a.results.GetResults(cmd.Context(), ids, nil, constraintIDs, statuses)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		for _, r := range results.Results {
			if r.IsNull() {
				continue
			}
			if err := enc.Encode(checker.SerializeResult(r)); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	checkCmd.Flags().StringSliceVar(&checkStatuses, "status", nil, "statuses to report (default: violation, warning, suggestion, bad-parameters)")
	checkCmd.Flags().StringSliceVar(&checkConstraints, "constraint", nil, "only evaluate these constraint ids")
}
