package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/worldnewsmap/newsgeo/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "newsgeo",
	Short: "Geocode news records into map coordinates",
	Long:  "Resolves the place descriptors of news records to coordinates through a cascading Nominatim lookup backed by a persistent coordinate cache.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
