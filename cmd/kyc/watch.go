package main

import (
	"context"
	"errors"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/kyc-extractor/internal/async"
	"github.com/joseph-ayodele/kyc-extractor/internal/ingest"
)

var (
	watchOut         string
	watchWorkers     int
	watchDebounce    time.Duration
	watchInitialScan bool
)

var watchCmd = &cobra.Command{
	Use:   "watch DIR...",
	Short: "Extract files as they land in the watched directories",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		out := watchOut
		if out == "" {
			out = filepath.Join(filepath.Dir(filepath.Clean(args[0])), "kyc-output")
		}
		ing := ingest.NewIngestor(newProcessor(), out, logger)
		q := async.NewWorkerQueue(func(ctx context.Context, job async.Job) error {
			_, err := ing.IngestPath(ctx, job.Path)
			return err
		}, logger, async.WithWorkers(watchWorkers))
		defer q.Shutdown(context.Background())

		err := ingest.Watch(ctx, ingest.WatchConfig{
			Roots:       args,
			InitialScan: watchInitialScan,
			Debounce:    watchDebounce,
		}, q, logger)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	},
}

func init() {
	watchCmd.Flags().StringVar(&watchOut, "out", "", "output directory for JSON results")
	watchCmd.Flags().IntVar(&watchWorkers, "workers", 2, "concurrent extractions")
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", 500*time.Millisecond, "quiet period before a changed file is picked up")
	watchCmd.Flags().BoolVar(&watchInitialScan, "initial-scan", false, "also process files already present")
}
