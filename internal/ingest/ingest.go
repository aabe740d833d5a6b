package ingest

import (
	"context"

	"github.com/joseph-ayodele/kyc-extractor/internal/pipeline"
)

// Processor runs classify-and-extract on a raw upload.
type Processor interface {
	ProcessUpload(ctx context.Context, filename string, data []byte) (pipeline.ExtractionResult, error)
}

// FileResult is the per-file ingest outcome.
type FileResult struct {
	Path         string `json:"path"`
	Output       string `json:"output,omitempty"`
	DocumentType string `json:"document_type,omitempty"`
	HashHex      string `json:"sha256,omitempty"`
	Deduplicated bool   `json:"deduplicated,omitempty"`
	Err          string `json:"error,omitempty"`
}

// DirStats summarizes a directory ingest.
type DirStats struct {
	Scanned      uint32 `json:"scanned"`
	Matched      uint32 `json:"matched"`
	Succeeded    uint32 `json:"succeeded"`
	Deduplicated uint32 `json:"deduplicated"`
	Failed       uint32 `json:"failed"`
}

// Document is what gets written to <name>.json for every processed file.
type Document struct {
	Source       string                    `json:"source"`
	SHA256       string                    `json:"sha256"`
	DocumentType string                    `json:"documentType"`
	ProcessedAt  string                    `json:"processedAt"`
	Result       pipeline.ExtractionResult `json:"result"`
}
