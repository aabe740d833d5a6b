package gateway

import (
	"log/slog"
	"net/http"
	"time"
)

// Config for the gateway client.
type Config struct {
	Endpoint string        // full generate URL, e.g. http://host:11434/api/generate
	Model    string        // default "llama3.2-vision"
	Timeout  time.Duration // 0 leaves the deadline to the caller's context
}

type Client struct {
	cfg    Config
	http   *http.Client
	logger *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.Endpoint == "" {
		cfg.Endpoint = "http://localhost:11434/api/generate"
	}
	if cfg.Model == "" {
		cfg.Model = "llama3.2-vision"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

// WithHTTPClient swaps the transport, mostly for tests.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	if hc != nil {
		c.http = hc
	}
	return c
}
