package application

import (
	"context"
	"sync"

	"github.com/felixgeelhaar/plansearch-go/domain/event"
)

// stubExtractor returns fixed constraints without touching the provider.
type stubExtractor struct {
	constraints []string
	err         error
}

func (s *stubExtractor) Extract(_ context.Context, _ string) ([]string, error) {
	return s.constraints, s.err
}

// stubVerifier maps plan text to a fixed score. Unknown plans score zero.
type stubVerifier struct {
	scores   map[string]float64
	feedback map[string]string
	err      error

	mu    sync.Mutex
	calls []string
}

func (s *stubVerifier) Verify(_ context.Context, _ string, _ []string, planText string) (string, float64, error) {
	s.mu.Lock()
	s.calls = append(s.calls, planText)
	s.mu.Unlock()

	if s.err != nil {
		return "", 0, s.err
	}
	fb := "feedback for " + planText
	if s.feedback != nil {
		if f, ok := s.feedback[planText]; ok {
			fb = f
		}
	}
	return fb, s.scores[planText], nil
}

func (s *stubVerifier) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

// stubSelector returns canned strategy recommendations.
type stubSelector struct {
	choose string
	next   []string

	mu        sync.Mutex
	nextIndex int
}

func (s *stubSelector) ChooseAlgorithm(_ context.Context, _ string, _ []string, fallback string) (string, error) {
	if s.choose == "" {
		return fallback, nil
	}
	return s.choose, nil
}

func (s *stubSelector) NextAlgorithm(_ context.Context, _, current, _ string, _ float64, _ []string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.nextIndex >= len(s.next) {
		return current, nil
	}
	name := s.next[s.nextIndex]
	s.nextIndex++
	return name, nil
}

// collectingObserver records every event it receives.
type collectingObserver struct {
	mu     sync.Mutex
	events []event.Event
}

func (o *collectingObserver) Update(e event.Event) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = append(o.events, e)
}

func (o *collectingObserver) all() []event.Event {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]event.Event, len(o.events))
	copy(out, o.events)
	return out
}

func (o *collectingObserver) withEvent(name string) []event.Event {
	var out []event.Event
	for _, e := range o.all() {
		if e.Lifecycle() == name {
			out = append(out, e)
		}
	}
	return out
}
