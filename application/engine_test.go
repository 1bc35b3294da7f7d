package application

import (
	"context"
	"testing"

	"github.com/felixgeelhaar/plansearch-go/domain/event"
	"github.com/felixgeelhaar/plansearch-go/infrastructure/model"
	"github.com/felixgeelhaar/plansearch-go/infrastructure/storage/memory"
)

func newTestEngine(t *testing.T, cfg EngineConfig, responses ...string) *Engine {
	t.Helper()
	scores := map[string]float64{}
	for i, r := range responses {
		scores[r] = float64(10 * (i + 1))
	}
	cfg.Deps.Provider = model.NewMockProvider(responses...)
	cfg.Deps.Extractor = &stubExtractor{}
	cfg.Deps.Verifier = &stubVerifier{scores: scores}
	engine, err := NewEngine(cfg)
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}
	return engine
}

func TestEngine_SolveUsesDefaultKind(t *testing.T) {
	engine := newTestEngine(t, EngineConfig{
		DefaultKind: KindBestOfN,
		BestOfN:     BestOfNConfig{NumPlans: 2},
	}, "plan-0", "plan-1")

	result, err := engine.Solve(context.Background(), "problem")
	if err != nil {
		t.Fatalf("Solve failed: %v", err)
	}

	if result.Algorithm != KindBestOfN {
		t.Errorf("Algorithm = %q, want %q", result.Algorithm, KindBestOfN)
	}
	if result.RunID == "" {
		t.Error("RunID empty")
	}
	if result.Result.BestPlan != "plan-1" {
		t.Errorf("BestPlan = %q, want plan-1", result.Result.BestPlan)
	}
}

func TestEngine_UnknownKind(t *testing.T) {
	engine := newTestEngine(t, EngineConfig{}, "plan-0")

	if _, err := engine.SolveWith(context.Background(), "problem", "simulated_annealing"); err == nil {
		t.Fatal("SolveWith with unknown kind succeeded, want error")
	}
	if _, err := NewEngine(EngineConfig{
		Deps:        Deps{Provider: model.NewMockProvider()},
		DefaultKind: "simulated_annealing",
	}); err == nil {
		t.Fatal("NewEngine with unknown default kind succeeded, want error")
	}
}

func TestEngine_JournalsRunToTraceStore(t *testing.T) {
	store := memory.NewTraceStore()
	engine := newTestEngine(t, EngineConfig{
		TraceStore: store,
		BestOfN:    BestOfNConfig{NumPlans: 2},
	}, "plan-0", "plan-1")

	ctx := context.Background()
	result, err := engine.Solve(ctx, "problem")
	if err != nil {
		t.Fatalf("Solve failed: %v", err)
	}

	entries, err := store.Load(ctx, result.RunID)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(entries) == 0 {
		t.Fatal("no journal entries recorded")
	}
	if entries[0].Event.Lifecycle() != event.AlgorithmStart {
		t.Errorf("first entry = %q, want algorithm_start", entries[0].Event.Lifecycle())
	}
	last := entries[len(entries)-1]
	if last.Event.Lifecycle() != event.AlgorithmComplete {
		t.Errorf("last entry = %q, want algorithm_complete", last.Event.Lifecycle())
	}
	for i, e := range entries {
		if e.Seq != uint64(i+1) {
			t.Errorf("entry %d has seq %d", i, e.Seq)
		}
	}
}

func TestEngine_SolveStream(t *testing.T) {
	engine := newTestEngine(t, EngineConfig{
		BestOfN: BestOfNConfig{NumPlans: 2},
	}, "plan-0", "plan-1")

	events, outcome, err := engine.SolveStream(context.Background(), "problem", KindBestOfN)
	if err != nil {
		t.Fatalf("SolveStream failed: %v", err)
	}

	var lifecycles []string
	for e := range events {
		lifecycles = append(lifecycles, e.Lifecycle())
	}
	out := <-outcome
	if out.Err != nil {
		t.Fatalf("outcome error: %v", out.Err)
	}

	if len(lifecycles) == 0 {
		t.Fatal("no events streamed")
	}
	if lifecycles[0] != event.AlgorithmStart {
		t.Errorf("first streamed event = %q, want algorithm_start", lifecycles[0])
	}
	if lifecycles[len(lifecycles)-1] != event.AlgorithmComplete {
		t.Errorf("last streamed event = %q, want algorithm_complete", lifecycles[len(lifecycles)-1])
	}
	if out.Result.Result.BestScore != 20 {
		t.Errorf("BestScore = %v, want 20", out.Result.Result.BestScore)
	}
}

func TestEngine_ObserversSeeEveryRun(t *testing.T) {
	obs := &collectingObserver{}
	engine := newTestEngine(t, EngineConfig{
		BestOfN:   BestOfNConfig{NumPlans: 1},
		Observers: []event.Observer{obs},
	}, "plan-0")

	if _, err := engine.Solve(context.Background(), "problem"); err != nil {
		t.Fatalf("Solve failed: %v", err)
	}
	if len(obs.withEvent(event.AlgorithmStart)) != 1 {
		t.Errorf("observer saw %d start events, want 1", len(obs.withEvent(event.AlgorithmStart)))
	}
}

func TestEngine_RequiresProvider(t *testing.T) {
	if _, err := NewEngine(EngineConfig{}); err == nil {
		t.Fatal("NewEngine without provider succeeded, want error")
	}
}
