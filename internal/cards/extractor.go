// Package cards reads Aadhaar and PAN cards field by field and assembles the
// reviewable record, rejecting any record with a field it could not read.
package cards

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/joseph-ayodele/kyc-extractor/constants"
	"github.com/joseph-ayodele/kyc-extractor/internal/common"
	"github.com/joseph-ayodele/kyc-extractor/internal/gateway"
	"github.com/joseph-ayodele/kyc-extractor/internal/parser"
	"github.com/joseph-ayodele/kyc-extractor/internal/schema"
)

// Extractor reads the fixed field sets off a single card image.
type Extractor interface {
	// ExtractFront returns "Full Name", "Gender", "Date/Year of Birth" and "Aadhaar Number".
	ExtractFront(ctx context.Context, image []byte) (map[string]string, error)
	// ExtractBack returns "Address".
	ExtractBack(ctx context.Context, image []byte) (map[string]string, error)
	// ExtractPan returns "Full Name", "Parent's Name", "Date of Birth" and "PAN Number".
	ExtractPan(ctx context.Context, image []byte) (map[string]string, error)
}

var (
	frontKeys = []string{constants.FrontFullName, constants.FrontGender, constants.FrontDateOfBirth, constants.FrontAadhaarNo}
	backKeys  = []string{constants.BackAddress}
	panKeys   = []string{constants.PanFullName, constants.PanParentName, constants.PanDateOfBirth, constants.PanNumber}
)

type contract struct {
	name   string
	prompt string
	keys   []string
	schema *jsonschema.Schema
}

var (
	frontContract = contract{
		name: "aadhaar_front",
		prompt: `Read the front of this Aadhaar card. Reply with one JSON object and nothing else:
{"Full Name": "...", "Gender": "...", "Date/Year of Birth": "DD/MM/YYYY", "Aadhaar Number": "XXXX XXXX XXXX"}
Use an empty string for anything you cannot read.`,
		keys:   frontKeys,
		schema: schema.MustCompile(schema.StringObject(frontKeys...)),
	}
	backContract = contract{
		name: "aadhaar_back",
		prompt: `Read the back of this Aadhaar card. Reply with one JSON object and nothing else:
{"Address": "..."}
Copy the address exactly as printed, including any C/O line. Use an empty string if you cannot read it.`,
		keys:   backKeys,
		schema: schema.MustCompile(schema.StringObject(backKeys...)),
	}
	panContract = contract{
		name: "pan",
		prompt: `Read this PAN card. Reply with one JSON object and nothing else:
{"Full Name": "...", "Parent's Name": "...", "Date of Birth": "DD/MM/YYYY", "PAN Number": "..."}
Use an empty string for anything you cannot read.`,
		keys:   panKeys,
		schema: schema.MustCompile(schema.StringObject(panKeys...)),
	}
)

// ModelExtractor implements Extractor with one vision model call per image.
type ModelExtractor struct {
	gw     gateway.Invoker
	logger *slog.Logger
}

func NewModelExtractor(gw gateway.Invoker, logger *slog.Logger) *ModelExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &ModelExtractor{gw: gw, logger: logger}
}

func (m *ModelExtractor) ExtractFront(ctx context.Context, image []byte) (map[string]string, error) {
	return m.extract(ctx, frontContract, image)
}

func (m *ModelExtractor) ExtractBack(ctx context.Context, image []byte) (map[string]string, error) {
	return m.extract(ctx, backContract, image)
}

func (m *ModelExtractor) ExtractPan(ctx context.Context, image []byte) (map[string]string, error) {
	return m.extract(ctx, panContract, image)
}

func (m *ModelExtractor) extract(ctx context.Context, c contract, image []byte) (map[string]string, error) {
	start := time.Now()
	rid := common.RequestIDFromContext(ctx)

	text, err := m.gw.Invoke(ctx, gateway.Request{Prompt: c.prompt, Images: [][]byte{image}})
	if err != nil {
		return nil, err
	}
	raw, ok := parser.FirstObject(text)
	if !ok {
		m.logger.Warn("cards.extract.no_json", "request_id", rid, "card", c.name)
		return nil, common.NewParseError("Error parsing JSON response", errors.New("answer has no JSON object"))
	}
	if err := schema.Validate(c.schema, raw); err != nil {
		m.logger.Warn("cards.extract.schema_mismatch", "request_id", rid, "card", c.name, "error", err)
		return nil, common.NewParseError("Error parsing JSON response", err)
	}

	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, common.NewParseError("Error parsing JSON response", err)
	}
	out := make(map[string]string, len(c.keys))
	for _, k := range c.keys {
		out[k], _ = obj[k].(string)
	}
	m.logger.Debug("cards.extract.ok",
		"request_id", rid,
		"card", c.name,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out, nil
}
