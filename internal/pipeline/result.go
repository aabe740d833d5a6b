package pipeline

import (
	"github.com/joseph-ayodele/kyc-extractor/constants"
	"github.com/joseph-ayodele/kyc-extractor/internal/pages"
)

// UploadedDocument is one request's pages, page 1 first.
type UploadedDocument struct {
	Filename string
	Pages    []pages.Page
}

// ExtractionResult is one of CardResult, CredenceResult, PagedResult or UnknownResult.
type ExtractionResult interface {
	DocumentType() constants.DocumentType
	isExtractionResult()
}

// CardResult is the merged field map for an Aadhaar or PAN card.
type CardResult struct {
	Type   constants.DocumentType `json:"documentType"`
	Fields map[string]string      `json:"fields"`
	// UsableAttempts counts attempts that read at least one field.
	UsableAttempts int `json:"usableAttempts"`
}

// PageResult is one page's model answer. Fields is a best-effort parse of Data.
type PageResult struct {
	Page   int               `json:"page"`
	Data   string            `json:"data"`
	Fields map[string]string `json:"fields,omitempty"`
}

// Photo is the candidate photo cropped from page 1 of a Credence form.
// Path is set only when the orchestrator is configured to keep it on disk.
type Photo struct {
	PNG  []byte `json:"-"`
	Path string `json:"path,omitempty"`
}

// CredenceResult keeps each page separately plus the cropped photo.
type CredenceResult struct {
	Pages []PageResult `json:"extractedData"`
	Photo *Photo       `json:"photo,omitempty"`
}

// PagedResult is a PaySlip or Result document, one entry per page, never merged.
type PagedResult struct {
	Type  constants.DocumentType `json:"documentType"`
	Pages []PageResult           `json:"extractedData"`
}

// UnknownResult means the classifier could not name the document; no extraction ran.
type UnknownResult struct {
	Message string `json:"message"`
}

func (r *CardResult) DocumentType() constants.DocumentType     { return r.Type }
func (r *CredenceResult) DocumentType() constants.DocumentType { return constants.CredenceDocument }
func (r *PagedResult) DocumentType() constants.DocumentType    { return r.Type }
func (r *UnknownResult) DocumentType() constants.DocumentType  { return constants.Unknown }

func (*CardResult) isExtractionResult()     {}
func (*CredenceResult) isExtractionResult() {}
func (*PagedResult) isExtractionResult()    {}
func (*UnknownResult) isExtractionResult()  {}
