package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var cleanupDryRun bool

// cleanupCmd runs (or previews) the age-based archive/purge pass.
var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Archive old posts and purge expired ones",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp()
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if cleanupDryRun {
			stats, err := a.store.GetCleanupStats(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(),
				"total=%d active=%d archived=%d\nwould archive=%d would delete=%d\n",
				stats.TotalPosts, stats.ActivePosts, stats.ArchivedPosts,
				stats.PostsToArchive, stats.PostsToDelete)
			if !stats.OldestPublishDate.IsZero() {
				fmt.Fprintf(cmd.OutOrStdout(), "oldest=%s newest=%s\n",
					stats.OldestPublishDate.Format("2006-01-02"),
					stats.NewestPublishDate.Format("2006-01-02"))
			}
			return nil
		}

		res := a.store.PerformCleanup(ctx)
		fmt.Fprintf(cmd.OutOrStdout(), "archived=%d deleted=%d remaining=%d\n",
			res.ArchivedCount, res.DeletedCount, res.RemainingCount)
		if !res.Success {
			return fmt.Errorf("cleanup failed: %v", res.Errors)
		}
		// The stored collection changed; cached listings are stale now.
		a.service.InvalidatePosts()
		return nil
	},
}

func init() {
	cleanupCmd.Flags().BoolVar(&cleanupDryRun, "dry-run", false, "report what would happen without mutating anything")
	rootCmd.AddCommand(cleanupCmd)
}
