package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/outage-alert-service/internal/config"
	"github.com/couchcryptid/outage-alert-service/internal/domain"
	"github.com/couchcryptid/outage-alert-service/internal/engine"
	"github.com/couchcryptid/outage-alert-service/internal/observability"
)

func newRunCmd() *cobra.Command {
	var (
		taskID int64
		kinds  []string
		groups []string
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute a task once and print its report",
		Long: `Runs a stored task (--task) or an ad-hoc task built from --kinds.
Ad-hoc runs notify --groups, or every active group when none are given,
and do not record a last run.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if (taskID > 0) == (len(kinds) > 0) {
				return fmt.Errorf("exactly one of --task or --kinds is required")
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
			a, err := newApp(cmd.Context(), cfg, logger, observability.NewMetrics())
			if err != nil {
				return err
			}
			defer a.close()

			var rep engine.Report
			if taskID > 0 {
				rep, err = a.engine.RunTaskByID(cmd.Context(), taskID)
				if err != nil {
					return err
				}
			} else {
				rep = a.engine.ExecuteTask(cmd.Context(), domain.Task{
					Name:         "ad-hoc",
					Kinds:        kinds,
					TargetGroups: groups,
					IsActive:     true,
				})
			}

			out, err := json.MarshalIndent(rep, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			if rep.Outcome == engine.OutcomeFailed {
				return fmt.Errorf("run %s failed: %s", rep.RunID, rep.Error)
			}
			return nil
		},
	}
	cmd.Flags().Int64Var(&taskID, "task", 0, "stored task id")
	cmd.Flags().StringSliceVar(&kinds, "kinds", nil, "task kinds for an ad-hoc run")
	cmd.Flags().StringSliceVar(&groups, "groups", nil, "target group ids for an ad-hoc run")
	return cmd
}
