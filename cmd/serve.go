package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/worldnewsmap/newsgeo/internal/monitoring"
	"github.com/worldnewsmap/newsgeo/internal/server"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API and the alert checker",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initApp(ctx, "serve")
		if err != nil {
			return err
		}
		defer env.Close()

		srv := server.New(server.Deps{
			Engine:     env.Engine,
			Handler:    env.Handler,
			Records:    env.Records,
			Metrics:    env.Metrics,
			Gatherer:   env.Registry,
			ResolveRPS: cfg.Server.ResolveRPS,
		})
		checker := monitoring.NewChecker(
			monitoring.NewCollector(env.Records, env.Cache),
			monitoring.NewAlerter(cfg.Monitoring),
			cfg.Monitoring,
		)

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			return srv.Run(gctx, resolvePort(servePort, cfg.Server.Port))
		})
		g.Go(func() error {
			checker.Run(gctx)
			return nil
		})
		return g.Wait()
	},
}

// resolvePort prefers the flag value over the configured port.
func resolvePort(flagPort, cfgPort int) int {
	if flagPort != 0 {
		return flagPort
	}
	return cfgPort
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
