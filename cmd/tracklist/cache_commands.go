package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"tracklist/internal/idcache"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the identification result cache",
	}

	cacheCmd.AddCommand(newCacheStatsCommand(ctx))
	cacheCmd.AddCommand(newCachePruneCommand(ctx))
	cacheCmd.AddCommand(newCacheClearCommand(ctx))

	return cacheCmd
}

func newCacheStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show cache entry counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCacheStore(ctx, func(store idcache.Store) error {
				stats, err := store.Stats(cmd.Context(), time.Now())
				if err != nil {
					return fmt.Errorf("read cache stats: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), stats.Describe())
				return nil
			})
		},
	}
}

func newCachePruneCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "prune",
		Short: "Remove expired cache entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCacheStore(ctx, func(store idcache.Store) error {
				removed, err := store.Prune(cmd.Context(), time.Now())
				if err != nil {
					return fmt.Errorf("prune cache: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d expired entries\n", removed)
				return nil
			})
		},
	}
}

func newCacheClearCommand(ctx *commandContext) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove every cache entry",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errors.New("pass --yes to confirm clearing the cache")
			}
			return withCacheStore(ctx, func(store idcache.Store) error {
				removed, err := store.Clear(cmd.Context())
				if err != nil {
					return fmt.Errorf("clear cache: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d entries\n", removed)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm destructive clear")
	return cmd
}

// withCacheStore opens the configured persistent store, runs fn, and closes
// it. Memory-backed caches hold nothing between runs, so only the sqlite
// backend is addressable here.
func withCacheStore(ctx *commandContext, fn func(idcache.Store) error) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	if !cfg.Cache.Enabled {
		return errors.New("cache is disabled in configuration")
	}
	if cfg.Cache.Backend != "sqlite" {
		return fmt.Errorf("cache backend %q has no persistent state to manage", cfg.Cache.Backend)
	}

	store, err := idcache.OpenSQLite(cfg.Cache.Dir)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}
