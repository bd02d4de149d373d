package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/worldnewsmap/newsgeo/internal/pipeline"
)

var (
	geocodeDate  string
	geocodeDays  int
	geocodeForce bool
)

var geocodeCmd = &cobra.Command{
	Use:   "geocode",
	Short: "Resolve coordinates for news records",
	Long:  "Runs the coordinate stage over the records of one date, or over today and the previous days when --date is not given.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initApp(ctx, "geocode")
		if err != nil {
			return err
		}
		defer env.Close()

		driver := pipeline.NewDriver(env.Records, env.Handler, env.Engine,
			pipeline.WithForceRefresh(geocodeForce),
			pipeline.WithDescriptionMaxLength(cfg.Pipeline.LogDescriptionMaxLength),
			pipeline.WithObserver(env.Metrics),
		)

		if geocodeDate != "" {
			sum, err := driver.Process(ctx, geocodeDate)
			if sum != nil {
				if perr := printJSON(cmd.OutOrStdout(), sum); perr != nil {
					return perr
				}
			}
			return err
		}

		days := geocodeDays
		if days <= 0 {
			days = cfg.Pipeline.Days
		}
		sums, err := driver.ProcessDays(ctx, days)
		if perr := printJSON(cmd.OutOrStdout(), sums); perr != nil {
			return perr
		}
		return err
	},
}

func init() {
	geocodeCmd.Flags().StringVar(&geocodeDate, "date", "", "process a single date (YYYY-MM-DD)")
	geocodeCmd.Flags().IntVar(&geocodeDays, "days", 0, "number of recent dates to process (default from config)")
	geocodeCmd.Flags().BoolVar(&geocodeForce, "force", false, "re-resolve finished records and bypass the cache")
	rootCmd.AddCommand(geocodeCmd)
}
