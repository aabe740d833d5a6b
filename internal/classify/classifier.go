// Package classify decides which kind of document an upload is from its first page.
package classify

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/joseph-ayodele/kyc-extractor/constants"
	"github.com/joseph-ayodele/kyc-extractor/internal/common"
	"github.com/joseph-ayodele/kyc-extractor/internal/gateway"
	"github.com/joseph-ayodele/kyc-extractor/internal/metrics"
)

const Prompt = `Analyze the provided image and classify it as one of the following:
- 'Aadhaar Card' (if Aadhaar-related words like "Aadhaar", "Unique Identification", "UIDAI" are present; they may be lower case).
- 'PAN Card' (if words like "Income Tax Department", "Permanent Account Number", "Govt. of India" appear; they may be lower case).
- 'Credence' (if the word 'Credence' is found in the text of the first page).
If 'Credence' appears anywhere on the first page, return 'Credence' without considering other document types; it may be lower case.
- 'Pay Slip' (if words like 'Pay Slip', 'Salary Statement', 'Net Pay Amount' appear on the document).
- 'Result' (if words like 'Marks', 'Grade', 'Hall Ticket Number', 'Roll No', 'University' appear on the document).
Always return only one of these five options.`

type rule struct {
	keywords []string
	docType  constants.DocumentType
}

// rules are checked in order; the first keyword hit wins. Credence comes first
// because Credence forms quote Aadhaar and PAN vocabulary.
var rules = []rule{
	{[]string{"credence"}, constants.CredenceDocument},
	{[]string{"aadhaar"}, constants.AadhaarCard},
	{[]string{"pan"}, constants.PanCard},
	{[]string{"pay slip", "payslip", "salary statement"}, constants.PaySlip},
	{[]string{"marks", "grades", "roll number", "student's name", "academic performance", "university"}, constants.Result},
}

// Match maps free-form classifier output to a DocumentType. It never returns "".
func Match(text string) constants.DocumentType {
	lower := strings.ToLower(text)
	for _, r := range rules {
		for _, kw := range r.keywords {
			if strings.Contains(lower, kw) {
				return r.docType
			}
		}
	}
	return constants.Unknown
}

type Classifier struct {
	gw     gateway.Invoker
	logger *slog.Logger
}

func NewClassifier(gw gateway.Invoker, logger *slog.Logger) *Classifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Classifier{gw: gw, logger: logger}
}

// Classify sends only the first page to the model. Any failure degrades to Unknown.
func (c *Classifier) Classify(ctx context.Context, firstPage []byte) constants.DocumentType {
	start := time.Now()
	rid := common.RequestIDFromContext(ctx)
	if len(firstPage) == 0 {
		c.logger.Warn("classify.empty_page", "request_id", rid)
		metrics.DocumentsClassified.WithLabelValues(string(constants.Unknown)).Inc()
		return constants.Unknown
	}

	text, err := c.gw.Invoke(ctx, gateway.Request{
		Prompt: Prompt,
		Images: [][]byte{firstPage},
	})
	if err != nil {
		c.logger.Error("classify.gateway_error",
			"request_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		metrics.DocumentsClassified.WithLabelValues(string(constants.Unknown)).Inc()
		return constants.Unknown
	}

	docType := Match(strings.TrimSpace(text))
	metrics.DocumentsClassified.WithLabelValues(string(docType)).Inc()
	c.logger.Info("classify.ok",
		"request_id", rid,
		"document_type", docType,
		"answer", truncate(text, 120),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return docType
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
