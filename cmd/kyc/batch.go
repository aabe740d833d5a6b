package main

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/kyc-extractor/internal/ingest"
)

var (
	batchOut        string
	batchExts       []string
	batchSkipHidden bool
)

var batchCmd = &cobra.Command{
	Use:   "batch DIR",
	Short: "Extract every supported file under DIR into JSON documents",
	Long: `Walks DIR recursively and runs each PDF or image through the pipeline.
One <name>.json is written per file into --out (default: DIR/../kyc-output).
Files with identical content are processed once.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := args[0]
		out := batchOut
		if out == "" {
			out = filepath.Join(filepath.Dir(filepath.Clean(dir)), "kyc-output")
		}
		ing := ingest.NewIngestor(newProcessor(), out, logger)
		results, stats, err := ing.IngestDirectory(cmd.Context(), dir, batchExts, batchSkipHidden)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(map[string]any{"stats": stats, "files": results}); err != nil {
			return err
		}
		if stats.Failed > 0 {
			return fmt.Errorf("%d of %d files failed", stats.Failed, stats.Matched)
		}
		return nil
	},
}

func init() {
	batchCmd.Flags().StringVar(&batchOut, "out", "", "output directory for JSON results")
	batchCmd.Flags().StringSliceVar(&batchExts, "ext", nil, "extensions to include (default: pdf,jpg,jpeg,png)")
	batchCmd.Flags().BoolVar(&batchSkipHidden, "skip-hidden", true, "skip dot files and directories")
}
