package metrics

import (
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	GatewayRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kyc_gateway_requests_total",
			Help: "Vision model calls by outcome",
		},
		[]string{"outcome"},
	)

	GatewayDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "kyc_gateway_request_duration_seconds",
			Help:    "Vision model call latency in seconds",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 40, 80},
		},
		[]string{"outcome"},
	)

	DocumentsClassified = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kyc_documents_classified_total",
			Help: "Documents classified by type",
		},
		[]string{"document_type"},
	)

	ExtractionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kyc_extractions_total",
			Help: "Extraction requests by document type and status",
		},
		[]string{"document_type", "status"},
	)

	PagesProcessed = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "kyc_document_pages",
			Help:    "Pages per processed document",
			Buckets: []float64{1, 2, 3, 5, 8, 13, 21},
		},
	)

	CandidateUpserts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kyc_candidate_upserts_total",
			Help: "Candidate store writes by key and outcome",
		},
		[]string{"key", "outcome"},
	)
)

var initOnce sync.Once

// Init registers all collectors with the default registry. Safe to call more than once.
func Init() {
	initOnce.Do(func() {
		prometheus.MustRegister(GatewayRequests)
		prometheus.MustRegister(GatewayDuration)
		prometheus.MustRegister(DocumentsClassified)
		prometheus.MustRegister(ExtractionsTotal)
		prometheus.MustRegister(PagesProcessed)
		prometheus.MustRegister(CandidateUpserts)
	})
}

func MetricsHandler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
