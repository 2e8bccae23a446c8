package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var exportOut string

// backupCmd groups export/import of the stored collection.
var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Export or import the stored post collection",
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the stored collection as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp()
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		data, err := a.store.Export(ctx)
		if err != nil {
			return err
		}
		if exportOut == "" {
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		}
		if err := os.WriteFile(exportOut, data, 0o644); err != nil {
			return fmt.Errorf("writing backup: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "exported to %s\n", exportOut)
		return nil
	},
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Replace the stored collection from a JSON backup",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp()
		if err != nil {
			return err
		}
		defer a.Close()

		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("reading backup: %w", err)
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := a.store.Import(ctx, data); err != nil {
			return err
		}
		a.service.InvalidatePosts()
		fmt.Fprintln(cmd.OutOrStdout(), "import complete")
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportOut, "out", "", "output file (default: stdout)")
	backupCmd.AddCommand(exportCmd)
	backupCmd.AddCommand(importCmd)
	rootCmd.AddCommand(backupCmd)
}
