package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// cacheCmd groups cache introspection subcommands.
var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Cache utilities",
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print cache hit/miss and occupancy statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp()
		if err != nil {
			return err
		}
		defer a.Close()

		s := a.service.CacheStats()
		fmt.Fprintf(cmd.OutOrStdout(),
			"hits=%d misses=%d hit_rate=%.1f%% entries=%d size_bytes=%d\n",
			s.Hits, s.Misses, s.HitRate, s.EntryCount, s.TotalSizeBytes)
		if !s.OldestEntryAt.IsZero() {
			fmt.Fprintf(cmd.OutOrStdout(), "oldest=%s newest=%s\n",
				s.OldestEntryAt.Format("15:04:05"), s.NewestEntryAt.Format("15:04:05"))
		}
		return nil
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Drop every cached entry",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp()
		if err != nil {
			return err
		}
		defer a.Close()

		a.service.ClearCache()
		fmt.Fprintln(cmd.OutOrStdout(), "cache cleared")
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}
