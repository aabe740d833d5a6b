package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/kyc-extractor/internal/cards"
	"github.com/joseph-ayodele/kyc-extractor/internal/common"
	"github.com/joseph-ayodele/kyc-extractor/internal/gateway"
	"github.com/joseph-ayodele/kyc-extractor/internal/pages"
	"github.com/joseph-ayodele/kyc-extractor/internal/pipeline"
	repo "github.com/joseph-ayodele/kyc-extractor/internal/repository"
)

var (
	cfgFile string
	inmem   bool
	verbose bool

	cfg    *common.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "kyc",
	Short: "Extract structured data from identity and financial documents",
	Long: `kyc classifies uploaded documents (Aadhaar, PAN, credence forms,
pay slips, exam results) and extracts their fields with a vision model.

Commands run against the same configuration as the kycd server:
kyc.yaml in the working directory, .env, and environment variables.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if cfg, err = common.LoadConfig(cfgFile); err != nil {
			return err
		}
		if inmem {
			cfg.Database.Driver = repo.DriverSQLite
			cfg.Database.DSN = ""
		}
		level := cfg.Log.SlogLevel()
		if verbose {
			level = slog.LevelDebug
		}
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
		slog.SetDefault(logger)
		return cfg.Validate()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./kyc.yaml)")
	rootCmd.PersistentFlags().BoolVar(&inmem, "inmem", false, "use an in-memory SQLite database")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(extractCmd, batchCmd, watchCmd, aadhaarCmd, panCmd, exportCmd, migrateCmd, dbHealthCmd)
}

func newGateway() *gateway.Client {
	return gateway.NewClient(gateway.Config{
		Endpoint: cfg.Gateway.Endpoint,
		Model:    cfg.Gateway.Model,
		Timeout:  cfg.Gateway.Timeout,
	}, logger)
}

func newProcessor() *pipeline.Processor {
	loader := pages.NewLoader(pages.Config{
		Pdftoppm:      cfg.PDF.Pdftoppm,
		DPI:           cfg.PDF.DPI,
		MaxPages:      cfg.PDF.MaxPages,
		ScratchDir:    cfg.Pipeline.ScratchDir,
		HeicConverter: cfg.PDF.HeicConverter,
	}, logger)
	return pipeline.NewProcessor(pipeline.Config{
		ScratchDir: cfg.Pipeline.ScratchDir,
		Attempts:   cfg.Pipeline.Attempts,
		PageDelay:  cfg.Pipeline.PageDelay,
		PhotoDir:   cfg.Pipeline.PhotoDir,
	}, newGateway(), logger, pipeline.WithLoader(loader))
}

func newCardService() *cards.Service {
	return cards.NewService(cards.NewModelExtractor(newGateway(), logger), logger)
}

// openDB opens the configured store and makes sure the candidates table exists.
func openDB(ctx context.Context) (*repo.DB, error) {
	db, err := repo.Open(ctx, repo.Config{
		Driver:           cfg.Database.Driver,
		DSN:              cfg.Database.DSN,
		MaxConns:         cfg.Database.MaxConns,
		MinConns:         cfg.Database.MinConns,
		MaxConnLifetime:  cfg.Database.MaxConnLifetime,
		MaxConnIdleTime:  cfg.Database.MaxConnIdleTime,
		DialTimeout:      cfg.Database.DialTimeout,
		StatementTimeout: cfg.Database.StatementTimeout,
		ConnectAttempts:  cfg.Database.ConnectAttempts,
	}, logger)
	if err != nil {
		return nil, err
	}
	if err := repo.Migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}
