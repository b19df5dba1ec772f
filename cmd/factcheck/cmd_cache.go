package main

import (
	"fmt"
	"path/filepath"

	"github.com/maxradov/propacondom-app/internal/cache"
	"github.com/spf13/cobra"
)

func newCacheCommand(g *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the local report cache",
		Long: `Manage the local report cache.

Completed reports are stored on disk, keyed by backend URL and analysis id, so
reopening an analysis does not hit the service. Entries are dropped whenever
claims of the analysis are verified.`,
	}

	cmd.AddCommand(newCacheClearCommand(g))

	return cmd
}

func newCacheClearCommand(g *globalOptions) *cobra.Command {
	var cacheDir string

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Clear the report cache",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cacheDir == "" {
				cfg, err := g.loadConfig()
				if err != nil {
					return err
				}
				cacheDir = cfg.Cache.Dir
			}
			absDir, err := filepath.Abs(cacheDir)
			if err != nil {
				return fmt.Errorf("resolving cache directory: %w", err)
			}

			if err := cache.New(absDir).Clear(); err != nil {
				return fmt.Errorf("clearing cache: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Cache cleared: %s\n", absDir) //nolint:errcheck
			return nil
		},
	}

	cmd.Flags().StringVar(&cacheDir, "cache-dir", "", "Cache directory to clear (default from config)")

	return cmd
}
