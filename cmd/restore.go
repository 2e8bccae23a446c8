package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// restoreCmd is the only path that reverts archived posts to active.
var restoreCmd = &cobra.Command{
	Use:   "restore [id...]",
	Short: "Restore archived posts to the active listing",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp()
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		restored, err := a.store.RestoreArchived(ctx, args...)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "restored %d posts\n", restored)
		if restored > 0 {
			a.service.InvalidatePosts()
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(restoreCmd)
}
