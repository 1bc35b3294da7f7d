package model

import (
	"context"
	"sync"
)

// MockProvider returns a predefined sequence of responses for testing.
// When the sequence is exhausted it falls back to the Func handler if
// set, otherwise repeats the last response.
type MockProvider struct {
	responses []string
	index     int
	calls     []Request

	// Func, when set, handles requests after the canned responses run
	// out (or all requests, if no responses were given).
	Func func(req Request) (string, error)

	mu sync.Mutex
}

// NewMockProvider creates a mock provider with the given responses.
func NewMockProvider(responses ...string) *MockProvider {
	return &MockProvider{responses: responses}
}

// Name returns the provider name.
func (p *MockProvider) Name() string {
	return "mock"
}

// Generate returns the next canned response.
func (p *MockProvider) Generate(_ context.Context, req Request) (Response, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.calls = append(p.calls, req)

	if p.index >= len(p.responses) {
		if p.Func != nil {
			text, err := p.Func(req)
			if err != nil {
				return Response{}, err
			}
			return Response{Text: text, Model: "mock"}, nil
		}
		if len(p.responses) == 0 {
			return Response{Text: "", Model: "mock"}, nil
		}
		return Response{Text: p.responses[len(p.responses)-1], Model: "mock"}, nil
	}

	text := p.responses[p.index]
	p.index++
	return Response{Text: text, Model: "mock"}, nil
}

// Calls returns a copy of every request seen so far.
func (p *MockProvider) Calls() []Request {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Request, len(p.calls))
	copy(out, p.calls)
	return out
}

// CallCount returns the number of requests seen.
func (p *MockProvider) CallCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.calls)
}

// Reset rewinds the response sequence and clears recorded calls.
func (p *MockProvider) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.index = 0
	p.calls = nil
}
