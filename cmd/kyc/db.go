package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/kyc-extractor/internal/export"
	repo "github.com/joseph-ayodele/kyc-extractor/internal/repository"
)

var (
	exportOut  string
	exportFrom string
	exportTo   string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the candidates table to an XLSX workbook",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		from, err := parseDay(exportFrom)
		if err != nil {
			return fmt.Errorf("invalid --from date, use YYYY-MM-DD: %w", err)
		}
		to, err := parseDay(exportTo)
		if err != nil {
			return fmt.Errorf("invalid --to date, use YYYY-MM-DD: %w", err)
		}

		db, err := openDB(ctx)
		if err != nil {
			return err
		}
		defer db.Close()

		svc := export.NewService(repo.NewCandidateRepository(db, logger), logger)
		data, err := svc.ExportCandidatesXLSX(ctx, from, to)
		if err != nil {
			return err
		}
		if dir := filepath.Dir(exportOut); dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return err
			}
		}
		if err := os.WriteFile(exportOut, data, 0o644); err != nil {
			return err
		}
		logger.Info("export written", "path", exportOut, "bytes", len(data))
		return nil
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the candidates table if it does not exist",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB(cmd.Context())
		if err != nil {
			return err
		}
		db.Close()
		logger.Info("migration complete", "driver", cfg.Database.Driver)
		return nil
	},
}

var dbHealthCmd = &cobra.Command{
	Use:   "dbhealth",
	Short: "Ping the database and report the candidate count",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		db, err := openDB(ctx)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := db.HealthCheck(ctx, time.Second); err != nil {
			return fmt.Errorf("DB health: FAIL (%w)", err)
		}
		all, err := repo.NewCandidateRepository(db, logger).List(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "DB health: OK\ncandidates: %d\n", len(all))
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportOut, "out", "candidates.xlsx", "output XLSX path")
	exportCmd.Flags().StringVar(&exportFrom, "from", "", "first updated day, YYYY-MM-DD")
	exportCmd.Flags().StringVar(&exportTo, "to", "", "last updated day, YYYY-MM-DD")
}

func parseDay(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
