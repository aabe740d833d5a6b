// Package api exposes the extraction pipeline, the card readers and the candidate
// store over HTTP.
package api

import (
	"context"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/kyc-extractor/internal/common"
	"github.com/joseph-ayodele/kyc-extractor/internal/entity"
	"github.com/joseph-ayodele/kyc-extractor/internal/metrics"
	"github.com/joseph-ayodele/kyc-extractor/internal/pipeline"
	"github.com/joseph-ayodele/kyc-extractor/internal/repository"
)

const requestIDKey = "requestid"

// Extractor runs classify-and-extract on a raw upload.
type Extractor interface {
	ProcessUpload(ctx context.Context, filename string, data []byte) (pipeline.ExtractionResult, error)
}

// CardReader reads Aadhaar and PAN card images into reviewable records.
type CardReader interface {
	ExtractAadhaar(ctx context.Context, front, back []byte) (*entity.AadhaarDetails, error)
	ExtractPan(ctx context.Context, image []byte) (*entity.PanDetails, error)
}

type Exporter interface {
	ExportCandidatesXLSX(ctx context.Context, from, to *time.Time) ([]byte, error)
}

type Pinger interface {
	HealthCheck(ctx context.Context, timeout time.Duration) error
}

type Config struct {
	BodyLimit    int // bytes, default 32 MiB
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Deps are the collaborators behind the routes. Any may be nil; its routes then answer 503.
type Deps struct {
	Pipeline   Extractor
	Cards      CardReader
	Candidates repository.CandidateRepository
	Exporter   Exporter
	DB         Pinger
	Logger     *slog.Logger
}

type Server struct {
	deps   Deps
	logger *slog.Logger
}

// New builds the fiber app with every route mounted under /api/v1.
func New(cfg Config, deps Deps) *fiber.App {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if cfg.BodyLimit <= 0 {
		cfg.BodyLimit = 32 << 20
	}
	s := &Server{deps: deps, logger: deps.Logger}

	app := fiber.New(fiber.Config{
		AppName:               "kyc-extractor",
		BodyLimit:             cfg.BodyLimit,
		ReadTimeout:           cfg.ReadTimeout,
		WriteTimeout:          cfg.WriteTimeout,
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	app.Use(requestid.New(requestid.Config{
		Generator:  uuid.NewString,
		ContextKey: requestIDKey,
	}))
	app.Use(logger.New(logger.Config{
		Format: "${time} ${locals:requestid} ${status} ${method} ${path} ${latency}\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept",
		AllowMethods: "GET, POST, OPTIONS",
	}))
	app.Use(s.withRequestContext)

	api := app.Group("/api/v1")

	api.Post("/ocr", s.handleOCR)
	api.Post("/upload_aadhaar", s.handleUploadAadhaar)
	api.Post("/upload_pan", s.handleUploadPan)
	api.Post("/save_aadhaar", s.handleSaveAadhaar)
	api.Post("/save_pan", s.handleSavePan)
	api.Get("/candidates", s.handleListCandidates)
	api.Get("/candidates/export", s.handleExportCandidates)

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Unix(),
		})
	})
	api.Get("/ready", s.handleReady)
	api.Get("/metrics", metrics.MetricsHandler())

	return app
}

// withRequestContext puts the request id on the user context so the pipeline logs it.
func (s *Server) withRequestContext(c *fiber.Ctx) error {
	rid, _ := c.Locals(requestIDKey).(string)
	c.SetUserContext(common.WithRequestID(c.UserContext(), rid))
	return c.Next()
}

func (s *Server) handleReady(c *fiber.Ctx) error {
	if s.deps.DB == nil {
		return c.JSON(fiber.Map{"status": "ready"})
	}
	if err := s.deps.DB.HealthCheck(c.UserContext(), time.Second); err != nil {
		s.logger.Warn("api.ready.db_unavailable", "error", err)
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"status": "not ready",
			"error":  err.Error(),
		})
	}
	return c.JSON(fiber.Map{"status": "ready"})
}

func unavailable(c *fiber.Ctx, what string) error {
	return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
		"error": what + " is not configured",
	})
}
