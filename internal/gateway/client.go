package gateway

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/kyc-extractor/internal/common"
	"github.com/joseph-ayodele/kyc-extractor/internal/metrics"
	"github.com/joseph-ayodele/kyc-extractor/internal/schema"
)

// envelopeSchema is the success body of the generate endpoint.
var envelopeSchema = schema.MustCompile(schema.StringObject("response"))

type generateRequest struct {
	Model       string   `json:"model"`
	Prompt      string   `json:"prompt"`
	Images      []string `json:"images"`
	Temperature float64  `json:"temperature"`
	Stream      bool     `json:"stream"`
}

type generateResponse struct {
	Response string `json:"response"`
}

// Invoke sends one prompt with its images and returns the model's text.
// Errors are *common.GatewayError for transport or status failures and a
// PARSE_ERROR AppError when the body is not the expected envelope. Nothing is retried.
func (c *Client) Invoke(ctx context.Context, req Request) (string, error) {
	if len(req.Images) == 0 {
		return "", common.NewInputError("at least one image is required")
	}
	if req.Options.Stream {
		return "", common.NewInputError("streaming responses are not supported")
	}

	rid := uuid.New().String()
	start := time.Now()

	images := make([]string, len(req.Images))
	for i, img := range req.Images {
		images[i] = base64.StdEncoding.EncodeToString(img)
	}

	c.logger.Info("gateway.invoke.start",
		"req_id", rid,
		"request_id", common.RequestIDFromContext(ctx),
		"model", c.cfg.Model,
		"images", len(images),
		"prompt_len", len(req.Prompt),
	)

	body := generateRequest{
		Model:       c.cfg.Model,
		Prompt:      req.Prompt,
		Images:      images,
		Temperature: req.Options.Temperature,
		Stream:      false,
	}

	raw, status, err := sendJSON(ctx, c.http, c.cfg.Endpoint, body, rid, c.logger)
	if err != nil {
		observe("transport_error", start)
		return "", &common.GatewayError{Status: status, Cause: err}
	}
	if status != http.StatusOK {
		observe("status_error", start)
		c.logger.Error("gateway.invoke.status_error",
			"req_id", rid, "status", status, "body", truncate(string(raw), 2<<10),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return "", &common.GatewayError{Status: status, Body: string(raw)}
	}

	if err := schema.Validate(envelopeSchema, raw); err != nil {
		observe("parse_error", start)
		c.logger.Error("gateway.invoke.decode_error",
			"req_id", rid, "error", err, "raw_bytes", len(raw),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return "", common.NewParseError("Error parsing JSON response", err)
	}
	var out generateResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		observe("parse_error", start)
		return "", common.NewParseError("Error parsing JSON response", err)
	}

	observe("ok", start)
	c.logger.Info("gateway.invoke.ok",
		"req_id", rid,
		"response_len", len(out.Response),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out.Response, nil
}

func observe(outcome string, start time.Time) {
	metrics.GatewayRequests.WithLabelValues(outcome).Inc()
	metrics.GatewayDuration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "...(truncated)"
}
