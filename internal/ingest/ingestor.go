package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Ingestor feeds local files through the pipeline and writes one JSON document per file
// into OutDir. Files whose content was already processed by this Ingestor are skipped.
type Ingestor struct {
	proc        Processor
	outDir      string
	allowedExts map[string]struct{}
	logger      *slog.Logger

	mu   sync.Mutex
	seen map[string]string // sha256 -> output path
}

func NewIngestor(proc Processor, outDir string, logger *slog.Logger) *Ingestor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ingestor{
		proc:        proc,
		outDir:      outDir,
		allowedExts: defaultExts,
		logger:      logger,
		seen:        map[string]string{},
	}
}

// IngestPath processes a single file.
func (i *Ingestor) IngestPath(ctx context.Context, path string) (FileResult, error) {
	out := FileResult{Path: path}
	start := time.Now()

	abs, err := filepath.Abs(path)
	if err != nil {
		return out, fmt.Errorf("abs path: %w", err)
	}
	out.Path = abs
	if !allowed(abs, i.allowedExts) {
		return out, fmt.Errorf("unsupported or missing extension: %q", filepath.Ext(abs))
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		i.logger.Error("ingest.read.failed", "path", abs, "error", err)
		return out, fmt.Errorf("read: %w", err)
	}
	sum := sha256.Sum256(data)
	out.HashHex = hex.EncodeToString(sum[:])

	i.mu.Lock()
	prev, dup := i.seen[out.HashHex]
	i.mu.Unlock()
	if dup {
		out.Output, out.Deduplicated = prev, true
		i.logger.Info("ingest.file.deduplicated", "path", abs, "output", prev)
		return out, nil
	}

	res, err := i.proc.ProcessUpload(ctx, filepath.Base(abs), data)
	if err != nil {
		i.logger.Error("ingest.extract.failed", "path", abs, "error", err)
		return out, err
	}
	out.DocumentType = string(res.DocumentType())

	doc := Document{
		Source:       abs,
		SHA256:       out.HashHex,
		DocumentType: out.DocumentType,
		ProcessedAt:  time.Now().UTC().Format(time.RFC3339),
		Result:       res,
	}
	if out.Output, err = i.write(abs, doc); err != nil {
		return out, err
	}

	i.mu.Lock()
	i.seen[out.HashHex] = out.Output
	i.mu.Unlock()

	i.logger.Info("ingest.file.ok",
		"path", abs,
		"document_type", out.DocumentType,
		"output", out.Output,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out, nil
}

func (i *Ingestor) write(src string, doc Document) (string, error) {
	if err := os.MkdirAll(i.outDir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	base := strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))
	dst := filepath.Join(i.outDir, base+".json")

	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode result: %w", err)
	}
	if err := os.WriteFile(dst, b, 0o644); err != nil {
		return "", fmt.Errorf("write result: %w", err)
	}
	return dst, nil
}
