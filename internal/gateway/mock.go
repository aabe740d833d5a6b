package gateway

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/joseph-ayodele/kyc-extractor/internal/common"
)

// MockClient is an Invoker for testing.
type MockClient struct {
	// Responses are returned in call order; the last one repeats.
	Responses []string
	// Respond, when set, wins over Responses. call is 1-based.
	Respond func(call int, req Request) (string, error)
	// FailAfter makes every call after the Nth fail with FailStatus (0 = never).
	FailAfter  int
	FailStatus int

	requestCount atomic.Int64

	mu       sync.Mutex
	requests []Request
}

// NewMockClient returns a mock that answers every call with text.
func NewMockClient(text ...string) *MockClient {
	return &MockClient{Responses: text, FailStatus: http.StatusInternalServerError}
}

func (m *MockClient) Invoke(ctx context.Context, req Request) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", &common.GatewayError{Cause: err}
	}
	call := int(m.requestCount.Add(1))

	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()

	if m.FailAfter > 0 && call > m.FailAfter {
		status := m.FailStatus
		if status == 0 {
			status = http.StatusInternalServerError
		}
		return "", &common.GatewayError{Status: status, Body: "mock failure"}
	}
	if m.Respond != nil {
		return m.Respond(call, req)
	}
	if len(m.Responses) == 0 {
		return "", nil
	}
	if call > len(m.Responses) {
		return m.Responses[len(m.Responses)-1], nil
	}
	return m.Responses[call-1], nil
}

// Calls returns how many times Invoke ran.
func (m *MockClient) Calls() int {
	return int(m.requestCount.Load())
}

// Requests returns a copy of every request received, in order.
func (m *MockClient) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Request, len(m.requests))
	copy(out, m.requests)
	return out
}
