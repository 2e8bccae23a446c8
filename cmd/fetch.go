package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// fetchCmd runs one aggregation cycle and prints a summary.
var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch all configured feeds once",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp()
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()

		posts, err := a.service.Refresh(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "fetched %d active posts from %d feeds\n", len(posts), len(a.feeds))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(fetchCmd)
}
