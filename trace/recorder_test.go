package trace

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/felixgeelhaar/plansearch-go/domain/event"
)

// fakeStore records appends and can fail on demand.
type fakeStore struct {
	mu      sync.Mutex
	entries []Entry
	fail    error
}

func (s *fakeStore) Append(_ context.Context, runID string, e event.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return s.fail
	}
	s.entries = append(s.entries, Entry{RunID: runID, Seq: uint64(len(s.entries) + 1), Event: e})
	return nil
}

func (s *fakeStore) Load(_ context.Context, runID string) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Entry
	for _, e := range s.entries {
		if e.RunID == runID {
			out = append(out, e)
		}
	}
	if len(out) == 0 {
		return nil, ErrRunNotFound
	}
	return out, nil
}

func (s *fakeStore) Runs(context.Context) ([]string, error) { return nil, nil }
func (s *fakeStore) Close() error                           { return nil }

func TestRecorderJournalsEvents(t *testing.T) {
	store := &fakeStore{}
	rec := NewRecorder(store, "run-42")

	if rec.RunID() != "run-42" {
		t.Errorf("RunID = %q", rec.RunID())
	}

	rec.Update(event.New("BestOfN", event.AlgorithmStart))
	rec.Update(event.New("BestOfN", event.AlgorithmComplete))

	entries, err := store.Load(context.Background(), "run-42")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}
	if entries[0].Event.Lifecycle() != event.AlgorithmStart {
		t.Errorf("first entry = %q", entries[0].Event.Lifecycle())
	}
}

func TestRecorderSwallowsAppendFailures(t *testing.T) {
	store := &fakeStore{fail: errors.New("disk full")}
	rec := NewRecorder(store, "run-1")

	// Update must not panic or propagate; a broken journal cannot fail
	// the search.
	rec.Update(event.New("REBASE", event.AlgorithmStart))
}
