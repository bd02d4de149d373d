package main

import (
	"github.com/spf13/cobra"

	"github.com/worldnewsmap/newsgeo/internal/monitoring"
)

var statusDays int

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show record status counts and triggered alerts",
	RunE: func(cmd *cobra.Command, _ []string) error {
		env, err := initApp(cmd.Context(), "status")
		if err != nil {
			return err
		}
		defer env.Close()

		days := statusDays
		if days <= 0 {
			days = cfg.Monitoring.LookbackDays
		}

		snap, err := monitoring.NewCollector(env.Records, env.Cache).Collect(cmd.Context(), days)
		if err != nil {
			return err
		}
		alerts := monitoring.NewAlerter(cfg.Monitoring).Evaluate(snap)

		return printJSON(cmd.OutOrStdout(), map[string]any{
			"snapshot": snap,
			"alerts":   alerts,
		})
	},
}

func init() {
	statusCmd.Flags().IntVar(&statusDays, "days", 0, "lookback window in days (default from config)")
	rootCmd.AddCommand(statusCmd)
}
