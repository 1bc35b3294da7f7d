package badger

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/felixgeelhaar/plansearch-go/domain/event"
	"github.com/felixgeelhaar/plansearch-go/trace"
)

func newTestStore(t *testing.T) *TraceStore {
	t.Helper()
	store, err := NewTraceStore(Config{InMemory: true})
	if err != nil {
		t.Fatalf("NewTraceStore failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestTraceStoreAppendLoadOrdering(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	lifecycles := []string{
		event.AlgorithmStart,
		event.PlanGenerated,
		event.PlanGenerated,
		event.BestPlanSelected,
		event.AlgorithmComplete,
	}
	for _, lc := range lifecycles {
		if err := store.Append(ctx, "run-1", event.New("BestOfN", lc)); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}

	entries, err := store.Load(ctx, "run-1")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(entries) != len(lifecycles) {
		t.Fatalf("entries = %d, want %d", len(entries), len(lifecycles))
	}
	for i, entry := range entries {
		if entry.Seq != uint64(i+1) {
			t.Errorf("entry %d seq = %d", i, entry.Seq)
		}
		if entry.Event.Lifecycle() != lifecycles[i] {
			t.Errorf("entry %d = %q, want %q", i, entry.Event.Lifecycle(), lifecycles[i])
		}
	}
}

func TestTraceStoreEventPayloadSurvivesRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	e := event.New("REBASE", event.PlanGenerated).
		With("iteration", 2.0).
		With("score", 73.5).
		With("plan", "refined plan text")
	if err := store.Append(ctx, "run-1", e); err != nil {
		t.Fatal(err)
	}

	entries, err := store.Load(ctx, "run-1")
	if err != nil {
		t.Fatal(err)
	}
	got := map[string]any(entries[0].Event)
	want := map[string]any(e)
	if !reflect.DeepEqual(got, want) {
		t.Errorf("round-tripped event = %v, want %v", got, want)
	}
}

func TestTraceStoreIsolatesRuns(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	store.Append(ctx, "run-a", event.New("BestOfN", event.AlgorithmStart))
	store.Append(ctx, "run-b", event.New("REBASE", event.AlgorithmStart))
	store.Append(ctx, "run-a", event.New("BestOfN", event.AlgorithmComplete))

	entries, err := store.Load(ctx, "run-a")
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Errorf("run-a entries = %d, want 2", len(entries))
	}

	runs, err := store.Runs(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(runs, []string{"run-a", "run-b"}) {
		t.Errorf("Runs = %v", runs)
	}
}

func TestTraceStoreUnknownRun(t *testing.T) {
	store := newTestStore(t)
	if _, err := store.Load(context.Background(), "absent"); !errors.Is(err, trace.ErrRunNotFound) {
		t.Errorf("err = %v, want ErrRunNotFound", err)
	}
}
