package main

import (
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/worldnewsmap/newsgeo/internal/model"
	"github.com/worldnewsmap/newsgeo/internal/pipeline"
)

var (
	resolveFlags poiFlags
	resolveForce bool
)

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Resolve one POI and print its coordinate",
	RunE: func(cmd *cobra.Command, _ []string) error {
		poi := resolveFlags.poi()
		if !model.IsMeaningful(poi) {
			return eris.New("resolve: at least one of --country, --state, --city, --institution is required")
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initApp(ctx, "resolve")
		if err != nil {
			return err
		}
		defer env.Close()

		driver := pipeline.NewDriver(nil, env.Handler, env.Engine, pipeline.WithForceRefresh(resolveForce))
		records := []model.Record{{Status: model.StatusPoiFetched, POI: poi}}
		if sum := driver.ProcessRecords(ctx, records); sum.Interrupted > 0 {
			return eris.Wrap(ctx.Err(), "resolve: interrupted")
		}

		return printJSON(cmd.OutOrStdout(), map[string]any{
			"poi":        poi,
			"coordinate": records[0].Coordinate,
			"status":     records[0].Status,
		})
	},
}

func init() {
	resolveFlags.bind(resolveCmd)
	resolveCmd.Flags().BoolVar(&resolveForce, "force", false, "bypass the cache and overwrite the cached coordinate")
	rootCmd.AddCommand(resolveCmd)
}
