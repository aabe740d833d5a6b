package gateway

import "context"

// Options are the sampling knobs sent with every call.
// Temperature stays at 0 for every call the pipeline makes.
type Options struct {
	Temperature float64
	Stream      bool
}

// Request is one prompt plus the page images it refers to (raw bytes, not base64).
type Request struct {
	Prompt  string
	Images  [][]byte
	Options Options
}

// Invoker sends a request to the vision model and returns its raw text answer.
type Invoker interface {
	Invoke(ctx context.Context, req Request) (string, error)
}
