package cmd

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"blogfeed/internal/config"
	"blogfeed/worker"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the aggregation, cleanup, and cache-sweep workers",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp()
		if err != nil {
			return err
		}
		defer a.Close()

		ws := []worker.Worker{
			&worker.RefreshWorker{
				Service:  a.service,
				Interval: config.Duration(a.cfg.RefreshInterval, 0),
			},
			&worker.CleanupWorker{
				Store:    a.store,
				Interval: config.Duration(a.cfg.Lifecycle.CleanupInterval, 0),
			},
			worker.Func(func(ctx context.Context) error {
				a.sweeper.StartSweeper(ctx)
				return nil
			}),
		}

		slog.Info("starting workers", "feeds", len(a.feeds))
		mgr := worker.NewManager(ws...)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		// Signal handling for systemd
		sigc := make(chan os.Signal, 1)
		signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
		go func() {
			s := <-sigc
			log.Printf("received signal: %s, shutting down", s)
			cancel()
		}()

		return mgr.Start(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
