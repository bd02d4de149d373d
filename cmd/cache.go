package main

import (
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/worldnewsmap/newsgeo/internal/cache"
	"github.com/worldnewsmap/newsgeo/internal/model"
	"github.com/worldnewsmap/newsgeo/internal/store"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and maintain the coordinate cache",
}

type cacheStats struct {
	Driver         string     `json:"driver"`
	Entries        int        `json:"entries"`
	ExpirationDays int        `json:"expiration_days"`
	Oldest         *time.Time `json:"oldest,omitempty"`
	Newest         *time.Time `json:"newest,omitempty"`
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache size and age",
	RunE: func(cmd *cobra.Command, _ []string) error {
		env, err := initApp(cmd.Context(), "cache")
		if err != nil {
			return err
		}
		defer env.Close()

		st := cacheStats{
			Driver:         cfg.Cache.Driver,
			Entries:        env.Cache.Len(),
			ExpirationDays: cache.ExpirationDays(cfg.Cache.ExpirationDays),
		}
		for _, e := range env.Cache.Entries() {
			ts := e.Timestamp
			if st.Oldest == nil || ts.Before(*st.Oldest) {
				st.Oldest = &ts
			}
			if st.Newest == nil || ts.After(*st.Newest) {
				st.Newest = &ts
			}
		}
		return printJSON(cmd.OutOrStdout(), st)
	},
}

var cacheCleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Drop expired and invalid entries",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := cfg.Validate("cache"); err != nil {
			return err
		}

		backend, err := store.OpenCacheBackend(cmd.Context(), cfg.Cache)
		if err != nil {
			return err
		}
		c := cache.New(backend, cfg.Cache.ExpirationDays)
		defer c.Close() //nolint:errcheck

		if err := c.Load(cmd.Context()); err != nil {
			return err
		}
		removed, err := c.Clean(cmd.Context())
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), map[string]int{
			"removed":   removed,
			"remaining": c.Len(),
		})
	},
}

var cacheLookupFlags poiFlags

var cacheLookupCmd = &cobra.Command{
	Use:   "lookup",
	Short: "Print the cached coordinate for a POI",
	RunE: func(cmd *cobra.Command, _ []string) error {
		poi := cacheLookupFlags.poi()
		if !model.IsMeaningful(poi) {
			return eris.New("cache lookup: at least one of --country, --state, --city, --institution is required")
		}

		env, err := initApp(cmd.Context(), "cache")
		if err != nil {
			return err
		}
		defer env.Close()

		c, ok := env.Cache.Select(poi)
		if !ok {
			return eris.Errorf("cache lookup: %s is not cached", poi)
		}
		return printJSON(cmd.OutOrStdout(), map[string]any{"poi": poi, "coordinate": c})
	},
}

var cacheDeleteFlags poiFlags

var cacheDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Remove the cached coordinate for a POI",
	RunE: func(cmd *cobra.Command, _ []string) error {
		poi := cacheDeleteFlags.poi()
		if !model.IsMeaningful(poi) {
			return eris.New("cache delete: at least one of --country, --state, --city, --institution is required")
		}

		env, err := initApp(cmd.Context(), "cache")
		if err != nil {
			return err
		}
		defer env.Close()

		deleted, err := env.Cache.Delete(cmd.Context(), poi)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), map[string]any{"poi": poi, "deleted": deleted})
	},
}

func init() {
	cacheLookupFlags.bind(cacheLookupCmd)
	cacheDeleteFlags.bind(cacheDeleteCmd)

	cacheCmd.AddCommand(cacheStatsCmd, cacheCleanCmd, cacheLookupCmd, cacheDeleteCmd)
	rootCmd.AddCommand(cacheCmd)
}
