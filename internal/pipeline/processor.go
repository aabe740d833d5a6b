// Package pipeline classifies an upload and runs the extraction plan for its document type.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/kyc-extractor/constants"
	"github.com/joseph-ayodele/kyc-extractor/internal/classify"
	"github.com/joseph-ayodele/kyc-extractor/internal/common"
	"github.com/joseph-ayodele/kyc-extractor/internal/gateway"
	"github.com/joseph-ayodele/kyc-extractor/internal/imaging"
	"github.com/joseph-ayodele/kyc-extractor/internal/metrics"
	"github.com/joseph-ayodele/kyc-extractor/internal/pages"
	"github.com/joseph-ayodele/kyc-extractor/internal/parser"
)

const unknownMessage = "Invalid document type"

type Config struct {
	ScratchDir string        // parent dir for per-request temp files
	Attempts   int           // card attempts, default 3
	PageDelay  time.Duration // pause after each Result page call, default 1s
	PhotoDir   string        // when set, the Credence photo is also written here
}

// Classifier names the document type from page 1.
type Classifier interface {
	Classify(ctx context.Context, firstPage []byte) constants.DocumentType
}

// Processor coordinates classification, the per-type gateway calls, and parsing.
type Processor struct {
	cfg        Config
	gw         gateway.Invoker
	classifier Classifier
	loader     *pages.Loader
	cards      parser.Parser
	sections   parser.Parser
	json       parser.Parser
	sleep      func(ctx context.Context, d time.Duration) error
	logger     *slog.Logger
}

type Option func(*Processor)

// WithParser replaces the parser used for card answers.
func WithParser(p parser.Parser) Option {
	return func(pr *Processor) { pr.cards = p }
}

func WithClassifier(c Classifier) Option {
	return func(pr *Processor) { pr.classifier = c }
}

func WithLoader(l *pages.Loader) Option {
	return func(pr *Processor) { pr.loader = l }
}

// WithSleep replaces the inter-call pause, for tests.
func WithSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(pr *Processor) { pr.sleep = fn }
}

func NewProcessor(cfg Config, gw gateway.Invoker, logger *slog.Logger, opts ...Option) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Attempts <= 0 {
		cfg.Attempts = 3
	}
	if cfg.PageDelay < 0 {
		cfg.PageDelay = 0
	} else if cfg.PageDelay == 0 {
		cfg.PageDelay = time.Second
	}
	p := &Processor{
		cfg:        cfg,
		gw:         gw,
		classifier: classify.NewClassifier(gw, logger),
		cards:      parser.LabelParser{},
		sections:   parser.SectionParser{},
		json:       parser.JSONParser{},
		sleep:      sleepCtx,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.loader == nil {
		p.loader = pages.NewLoader(pages.Config{ScratchDir: cfg.ScratchDir}, logger)
	}
	return p
}

// ProcessUpload decodes raw upload bytes into pages and runs ClassifyAndExtract.
func (p *Processor) ProcessUpload(ctx context.Context, filename string, data []byte) (ExtractionResult, error) {
	pgs, err := p.loader.Load(ctx, filename, data)
	if err != nil {
		p.logger.Error("pipeline.load.failed", "request_id", common.RequestIDFromContext(ctx), "file", filename, "error", err)
		return nil, err
	}
	return p.ClassifyAndExtract(ctx, UploadedDocument{Filename: filename, Pages: pgs})
}

// ClassifyAndExtract classifies page 1 and runs the plan for that type.
// Unknown documents get an UnknownResult and a nil error; no extraction call is made.
// Any gateway failure aborts the remaining calls.
func (p *Processor) ClassifyAndExtract(ctx context.Context, doc UploadedDocument) (ExtractionResult, error) {
	if len(doc.Pages) == 0 {
		return nil, common.NewInputError("No file provided")
	}
	start := time.Now()
	rid := common.RequestIDFromContext(ctx)
	metrics.PagesProcessed.Observe(float64(len(doc.Pages)))

	docType := p.classifier.Classify(ctx, doc.Pages[0].PNG)
	p.logger.Info("pipeline.extract.start",
		"request_id", rid,
		"file", doc.Filename,
		"document_type", docType,
		"pages", len(doc.Pages),
	)

	var (
		res ExtractionResult
		err error
	)
	switch docType {
	case constants.AadhaarCard, constants.PanCard:
		res, err = p.extractCard(ctx, docType, doc.Pages)
	case constants.CredenceDocument:
		res, err = p.extractCredence(ctx, doc.Pages)
	case constants.PaySlip:
		res, err = p.extractPaged(ctx, docType, paySlipPrompt, doc.Pages, false)
	case constants.Result:
		res, err = p.extractPaged(ctx, docType, resultPrompt, doc.Pages, true)
	default:
		res = &UnknownResult{Message: unknownMessage}
	}

	if err != nil {
		metrics.ExtractionsTotal.WithLabelValues(string(docType), "failed").Inc()
		p.logger.Error("pipeline.extract.failed",
			"request_id", rid,
			"document_type", docType,
			"error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, err
	}
	metrics.ExtractionsTotal.WithLabelValues(string(docType), "ok").Inc()
	p.logger.Info("pipeline.extract.ok",
		"request_id", rid,
		"document_type", docType,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return res, nil
}

// extractCard sends every page with the same prompt Attempts times and merges the answers.
func (p *Processor) extractCard(ctx context.Context, docType constants.DocumentType, pgs []pages.Page) (*CardResult, error) {
	images := pageImages(pgs)
	labels := parser.LabelMap(constants.GenericLabels)

	var attempts []map[string]string
	for i := 1; i <= p.cfg.Attempts; i++ {
		text, err := p.gw.Invoke(ctx, gateway.Request{Prompt: cardPrompt, Images: images})
		if err != nil {
			p.logger.Error("pipeline.attempt.failed", "request_id", common.RequestIDFromContext(ctx), "attempt", i, "error", err)
			return nil, fmt.Errorf("attempt %d: %w", i, err)
		}
		fields := p.cards.Parse(text, labels)
		if !usable(fields, constants.GenericFields) {
			p.logger.Warn("pipeline.attempt.empty", "request_id", common.RequestIDFromContext(ctx), "attempt", i)
			continue
		}
		attempts = append(attempts, fields)
	}

	return &CardResult{
		Type:           docType,
		Fields:         Merge(attempts, constants.GenericFields),
		UsableAttempts: len(attempts),
	}, nil
}

func (p *Processor) extractCredence(ctx context.Context, pgs []pages.Page) (*CredenceResult, error) {
	res := &CredenceResult{Photo: p.cropPhoto(ctx, pgs[0].PNG)}
	for _, pg := range pgs {
		text, err := p.gw.Invoke(ctx, gateway.Request{Prompt: credencePrompt, Images: [][]byte{pg.PNG}})
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", pg.Index, err)
		}
		res.Pages = append(res.Pages, PageResult{
			Page:   pg.Index,
			Data:   text,
			Fields: p.sections.Parse(text, nil),
		})
	}
	return res, nil
}

// extractPaged makes one call per page, in order. Pages are never merged.
func (p *Processor) extractPaged(ctx context.Context, docType constants.DocumentType, prompt string, pgs []pages.Page, pace bool) (*PagedResult, error) {
	res := &PagedResult{Type: docType}
	for _, pg := range pgs {
		text, err := p.gw.Invoke(ctx, gateway.Request{Prompt: prompt, Images: [][]byte{pg.PNG}})
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", pg.Index, err)
		}
		res.Pages = append(res.Pages, PageResult{
			Page:   pg.Index,
			Data:   text,
			Fields: p.json.Parse(text, nil),
		})
		if pace {
			if err := p.sleep(ctx, p.cfg.PageDelay); err != nil {
				return nil, fmt.Errorf("page %d: %w", pg.Index, err)
			}
		}
	}
	return res, nil
}

// cropPhoto cuts the candidate photo from page 1. A failed crop is logged and skipped.
func (p *Processor) cropPhoto(ctx context.Context, page []byte) *Photo {
	rid := common.RequestIDFromContext(ctx)
	png, err := imaging.CropPNG(page, imaging.CandidatePhotoBox)
	if err != nil {
		p.logger.Warn("pipeline.photo.crop_failed", "request_id", rid, "error", err)
		return nil
	}
	photo := &Photo{PNG: png}
	if p.cfg.PhotoDir == "" {
		return photo
	}
	if err := os.MkdirAll(p.cfg.PhotoDir, 0o755); err != nil {
		p.logger.Warn("pipeline.photo.save_failed", "request_id", rid, "error", err)
		return photo
	}
	path := filepath.Join(p.cfg.PhotoDir, "candidate_photo_"+uuid.NewString()+".png")
	if err := os.WriteFile(path, png, 0o644); err != nil {
		p.logger.Warn("pipeline.photo.save_failed", "request_id", rid, "error", err)
		return photo
	}
	photo.Path = path
	return photo
}

func pageImages(pgs []pages.Page) [][]byte {
	out := make([][]byte, len(pgs))
	for i, pg := range pgs {
		out[i] = pg.PNG
	}
	return out
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
