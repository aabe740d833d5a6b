package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"

	"github.com/joseph-ayodele/kyc-extractor/internal/api"
	"github.com/joseph-ayodele/kyc-extractor/internal/cards"
	"github.com/joseph-ayodele/kyc-extractor/internal/common"
	"github.com/joseph-ayodele/kyc-extractor/internal/export"
	"github.com/joseph-ayodele/kyc-extractor/internal/gateway"
	"github.com/joseph-ayodele/kyc-extractor/internal/metrics"
	"github.com/joseph-ayodele/kyc-extractor/internal/pages"
	"github.com/joseph-ayodele/kyc-extractor/internal/pipeline"
	repo "github.com/joseph-ayodele/kyc-extractor/internal/repository"
)

func main() {
	cfgFile := flag.String("config", "", "config file (default: ./kyc.yaml)")
	flag.Parse()

	cfg, err := common.LoadConfig(*cfgFile)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.Log.SlogLevel(),
	}))
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid config", "error", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("kycd stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *common.Config, logger *slog.Logger) error {
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
		return err
	}
	defer db.Close()

	if err := db.HealthCheck(ctx, 5*time.Second); err != nil {
		return err
	}
	if err := repo.Migrate(ctx, db); err != nil {
		return err
	}

	metrics.Init()

	gw := gateway.NewClient(gateway.Config{
		Endpoint: cfg.Gateway.Endpoint,
		Model:    cfg.Gateway.Model,
		Timeout:  cfg.Gateway.Timeout,
	}, logger)

	loader := pages.NewLoader(pages.Config{
		Pdftoppm:      cfg.PDF.Pdftoppm,
		DPI:           cfg.PDF.DPI,
		MaxPages:      cfg.PDF.MaxPages,
		ScratchDir:    cfg.Pipeline.ScratchDir,
		HeicConverter: cfg.PDF.HeicConverter,
	}, logger)
	processor := pipeline.NewProcessor(pipeline.Config{
		ScratchDir: cfg.Pipeline.ScratchDir,
		Attempts:   cfg.Pipeline.Attempts,
		PageDelay:  cfg.Pipeline.PageDelay,
		PhotoDir:   cfg.Pipeline.PhotoDir,
	}, gw, logger, pipeline.WithLoader(loader))

	candidates := repo.NewCandidateRepository(db, logger)
	app := api.New(api.Config{BodyLimit: cfg.Server.BodyLimit}, api.Deps{
		Pipeline:   processor,
		Cards:      cards.NewService(cards.NewModelExtractor(gw, logger), logger),
		Candidates: candidates,
		Exporter:   export.NewService(candidates, logger),
		DB:         db,
		Logger:     logger,
	})

	// gRPC carries only the health service for orchestrator probes.
	grpcServer := grpc.NewServer()
	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)

	lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
	if err != nil {
		logger.Error("failed to listen on address", "addr", cfg.Server.GRPCAddr, "error", err)
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("kycd http listening", "addr", cfg.Server.HTTPAddr)
		return app.Listen(cfg.Server.HTTPAddr)
	})
	g.Go(func() error {
		logger.Info("kycd grpc health listening", "addr", cfg.Server.GRPCAddr)
		if err := grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		healthServer.Shutdown()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err := app.ShutdownWithContext(shutdownCtx)
		grpcServer.GracefulStop()
		return err
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
