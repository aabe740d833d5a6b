// Package pages turns an upload (image or PDF) into ordered PNG pages.
package pages

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/joseph-ayodele/kyc-extractor/constants"
	"github.com/joseph-ayodele/kyc-extractor/internal/common"
	"github.com/joseph-ayodele/kyc-extractor/internal/imaging"
)

type Config struct {
	Pdftoppm      string // binary name or absolute path; if empty -> "pdftoppm"
	DPI           int    // rasterization DPI, default 200
	MaxPages      int    // 0 = no limit
	ScratchDir    string // parent of the per-call temp dirs, default os.TempDir()
	HeicConverter string // magick | heif-convert | sips; empty rejects HEIC uploads
}

// Page is one rendered page; Index is 1-based.
type Page struct {
	Index int
	PNG   []byte
}

// Loader decodes uploads into pages.
type Loader struct {
	cfg        Config
	runner     Runner
	countPages func(path string) (int, error)
	logger     *slog.Logger
}

func NewLoader(cfg Config, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = "pdftoppm"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 200
	}
	return &Loader{
		cfg:        cfg,
		runner:     execRunner{logger: logger},
		countPages: api.PageCountFile,
		logger:     logger,
	}
}

// WithRunner replaces the command runner, for tests.
func (l *Loader) WithRunner(r Runner) *Loader {
	l.runner = r
	return l
}

// Load returns the pages of an upload in order. filename only supplies the extension.
// Every temp file is removed before Load returns.
func (l *Loader) Load(ctx context.Context, filename string, data []byte) ([]Page, error) {
	if len(data) == 0 {
		return nil, common.NewInputError("No file provided")
	}
	ext := constants.NormalizeExt(filepath.Ext(filename))
	switch constants.MapExtToFormat(ext) {
	case constants.IMAGE:
		png, err := imaging.ToPNG(data)
		if err != nil {
			l.logger.Warn("pages.image.decode_failed", "filename", filename, "error", err)
			return nil, common.NewAppError(common.CodeInput, "could not decode image", fmt.Errorf("%w: %v", common.ErrInvalidInput, err))
		}
		return []Page{{Index: 1, PNG: png}}, nil
	case constants.PDF:
		return l.loadPDF(ctx, data)
	case constants.HEIC:
		return l.loadHEIC(ctx, ext, data)
	default:
		l.logger.Warn("pages.unsupported_extension", "filename", filename, "extension", ext)
		return nil, common.NewInputError(fmt.Sprintf("unsupported file type %q", ext))
	}
}

func (l *Loader) loadPDF(ctx context.Context, data []byte) ([]Page, error) {
	start := time.Now()
	tmpDir, cleanup, err := l.scratch()
	if err != nil {
		return nil, err
	}
	defer cleanup()

	in := filepath.Join(tmpDir, "upload.pdf")
	if err := os.WriteFile(in, data, 0o600); err != nil {
		return nil, fmt.Errorf("write upload: %w", err)
	}

	count, err := l.countPages(in)
	if err != nil {
		l.logger.Warn("pages.pdf.invalid", "error", err)
		return nil, common.NewAppError(common.CodeInput, "invalid PDF", fmt.Errorf("%w: %v", common.ErrInvalidInput, err))
	}
	if count == 0 {
		return nil, common.NewInputError("PDF has no pages")
	}

	prefix := filepath.Join(tmpDir, "page")
	args := []string{"-r", strconv.Itoa(l.cfg.DPI), "-png"}
	if l.cfg.MaxPages > 0 {
		args = append(args, "-l", strconv.Itoa(l.cfg.MaxPages))
	}
	args = append(args, in, prefix)
	if _, errb, err := l.runner.Run(ctx, l.cfg.Pdftoppm, args...); err != nil {
		return nil, fmt.Errorf("rasterize pdf: %w: %s", err, truncate(string(errb), 512))
	}

	// pdftoppm zero-pads page numbers to a common width, so a lexical sort is page order
	matches, _ := filepath.Glob(prefix + "-*.png")
	sort.Strings(matches)
	if len(matches) == 0 {
		return nil, fmt.Errorf("rasterize pdf: no pages rendered")
	}

	pages := make([]Page, 0, len(matches))
	for i, path := range matches {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read page %d: %w", i+1, err)
		}
		pages = append(pages, Page{Index: i + 1, PNG: b})
	}

	if len(pages) != count && (l.cfg.MaxPages == 0 || len(pages) < l.cfg.MaxPages) {
		l.logger.Warn("pages.pdf.count_mismatch", "declared", count, "rendered", len(pages))
	}
	l.logger.Info("pages.pdf.ok",
		"pages", len(pages),
		"dpi", l.cfg.DPI,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return pages, nil
}

// scratch creates a private temp dir under ScratchDir and returns its remover.
func (l *Loader) scratch() (string, func(), error) {
	parent := l.cfg.ScratchDir
	if parent != "" {
		if err := os.MkdirAll(parent, 0o755); err != nil {
			return "", nil, fmt.Errorf("create scratch dir: %w", err)
		}
	}
	dir, err := os.MkdirTemp(parent, "kyc-pages-*")
	if err != nil {
		return "", nil, fmt.Errorf("create temp dir: %w", err)
	}
	return dir, func() {
		if err := os.RemoveAll(dir); err != nil {
			l.logger.Warn("pages.scratch.cleanup_failed", "dir", dir, "error", err)
		}
	}, nil
}
