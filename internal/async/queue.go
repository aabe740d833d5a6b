package async

import (
	"context"
	"time"
)

// Job is one file waiting for extraction.
type Job struct {
	Path        string
	SubmittedAt time.Time
	TraceID     string
}

type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	Shutdown(ctx context.Context)
}

// Handler processes one job. Its error is logged, never retried.
type Handler func(ctx context.Context, job Job) error
