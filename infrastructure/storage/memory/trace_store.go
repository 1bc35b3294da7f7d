// Package memory provides in-memory storage backends: the default run
// trace store and verification cache.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/felixgeelhaar/plansearch-go/domain/event"
	"github.com/felixgeelhaar/plansearch-go/trace"
)

// TraceStore is an in-memory implementation of trace.Store.
type TraceStore struct {
	mu      sync.RWMutex
	entries map[string][]trace.Entry
}

// NewTraceStore creates an empty in-memory trace store.
func NewTraceStore() *TraceStore {
	return &TraceStore{entries: make(map[string][]trace.Entry)}
}

// Append journals an event for a run.
func (s *TraceStore) Append(ctx context.Context, runID string, e event.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if runID == "" {
		return fmt.Errorf("append: empty run ID")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	seq := uint64(len(s.entries[runID]) + 1)
	s.entries[runID] = append(s.entries[runID], trace.Entry{
		RunID: runID,
		Seq:   seq,
		Time:  time.Now(),
		Event: e.Clone(),
	})
	return nil
}

// Load returns a run's entries in sequence order.
func (s *TraceStore) Load(ctx context.Context, runID string) ([]trace.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, ok := s.entries[runID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", trace.ErrRunNotFound, runID)
	}

	out := make([]trace.Entry, len(entries))
	copy(out, entries)
	return out, nil
}

// Runs lists all run IDs in the store, sorted for determinism.
func (s *TraceStore) Runs(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, 0, len(s.entries))
	for id := range s.entries {
		out = append(out, id)
	}
	sort.Strings(out)
	return out, nil
}

// Close implements trace.Store; it is a no-op for the memory backend.
func (s *TraceStore) Close() error {
	return nil
}
