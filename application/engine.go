package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/plansearch-go/domain/event"
	"github.com/felixgeelhaar/plansearch-go/domain/plan"
	"github.com/felixgeelhaar/plansearch-go/infrastructure/logging"
	"github.com/felixgeelhaar/plansearch-go/trace"
)

// Algorithm kinds accepted by the engine.
const (
	KindBestOfN       = "best_of_n"
	KindTreeOfThought = "tree_of_thought"
	KindREBASE        = "rebase"
	KindMixture       = "mixture"
)

// Kinds lists the algorithm kinds the engine can construct.
func Kinds() []string {
	return []string{KindBestOfN, KindTreeOfThought, KindREBASE, KindMixture}
}

// EngineConfig assembles the engine's collaborators and per-strategy
// defaults.
type EngineConfig struct {
	// Deps are the collaborators shared by every constructed algorithm.
	Deps Deps

	// Selector recommends strategies for the mixture. Optional.
	Selector Selector

	// TraceStore, when set, journals every run's events under its run ID.
	TraceStore trace.Store

	// DefaultKind is the algorithm used by Solve. Default best_of_n.
	DefaultKind string

	// Per-strategy configuration.
	BestOfN       BestOfNConfig
	TreeOfThought TreeOfThoughtConfig
	REBASE        REBASEConfig
	Mixture       MixtureConfig

	// Observers are subscribed to every run.
	Observers []event.Observer
}

// Engine is the public facade of the plan-search core. It constructs
// algorithms on demand, assigns run IDs, wires observers and trace
// journaling, and records run telemetry.
type Engine struct {
	cfg EngineConfig
}

// NewEngine creates an engine.
func NewEngine(cfg EngineConfig) (*Engine, error) {
	deps, err := cfg.Deps.withDefaults()
	if err != nil {
		return nil, err
	}
	cfg.Deps = deps
	if cfg.DefaultKind == "" {
		cfg.DefaultKind = KindBestOfN
	}
	if _, err := (&Engine{cfg: cfg}).NewAlgorithm(cfg.DefaultKind); err != nil {
		return nil, err
	}
	return &Engine{cfg: cfg}, nil
}

// NewAlgorithm constructs a fresh algorithm of the given kind. Every
// call returns an independent instance; in particular each mixture owns
// its own bandit state.
func (e *Engine) NewAlgorithm(kind string) (Algorithm, error) {
	switch kind {
	case KindBestOfN:
		return NewBestOfN(e.cfg.Deps, e.cfg.BestOfN)
	case KindTreeOfThought:
		return NewTreeOfThought(e.cfg.Deps, e.cfg.TreeOfThought)
	case KindREBASE:
		return NewREBASE(e.cfg.Deps, e.cfg.REBASE)
	case KindMixture:
		return NewMixture(e.cfg.Deps, e.cfg.Mixture, e.cfg.Selector)
	default:
		return nil, fmt.Errorf("unknown algorithm kind %q", kind)
	}
}

// SolveResult is the outcome of one engine run.
type SolveResult struct {
	// RunID identifies the run in logs and the trace store.
	RunID string

	// Algorithm is the kind that produced the result.
	Algorithm string

	// Result is the best plan, score and run trace.
	Result plan.Result
}

// Solve runs the default algorithm kind on the problem.
func (e *Engine) Solve(ctx context.Context, problem string) (SolveResult, error) {
	return e.SolveWith(ctx, problem, e.cfg.DefaultKind)
}

// SolveWith runs the given algorithm kind on the problem.
func (e *Engine) SolveWith(ctx context.Context, problem, kind string) (SolveResult, error) {
	algo, err := e.NewAlgorithm(kind)
	if err != nil {
		return SolveResult{}, err
	}
	return e.run(ctx, algo, problem, kind, nil)
}

// SolveOutcome is the terminal value of a streaming run.
type SolveOutcome struct {
	Result SolveResult
	Err    error
}

// SolveStream runs the given kind while streaming its events. The event
// channel closes when the run finishes; the outcome channel then yields
// exactly one value. Slow consumers do not stall the run: events beyond
// the buffer are dropped with a log line.
func (e *Engine) SolveStream(ctx context.Context, problem, kind string) (<-chan event.Event, <-chan SolveOutcome, error) {
	algo, err := e.NewAlgorithm(kind)
	if err != nil {
		return nil, nil, err
	}

	events := make(chan event.Event, 256)
	outcome := make(chan SolveOutcome, 1)

	tap := &channelObserver{ch: events}

	go func() {
		defer close(outcome)
		defer close(events)
		result, err := e.run(ctx, algo, problem, kind, tap)
		outcome <- SolveOutcome{Result: result, Err: err}
	}()

	return events, outcome, nil
}

// channelObserver bridges events onto a channel without blocking the
// publisher.
type channelObserver struct {
	ch chan event.Event
}

// Update implements event.Observer.
func (c *channelObserver) Update(e event.Event) {
	select {
	case c.ch <- e:
	default:
		logging.Debug().
			Add(logging.EventType(e.Lifecycle())).
			Msg("event stream buffer full, dropping event")
	}
}

// run wires observers and telemetry around one algorithm run.
func (e *Engine) run(ctx context.Context, algo Algorithm, problem, kind string, extra event.Observer) (SolveResult, error) {
	runID := uuid.NewString()

	for _, o := range e.cfg.Observers {
		algo.AddObserver(o)
	}
	if e.cfg.TraceStore != nil {
		algo.AddObserver(trace.NewRecorder(e.cfg.TraceStore, runID))
	}
	if extra != nil {
		algo.AddObserver(extra)
	}

	metrics := e.cfg.Deps.Metrics
	metrics.IncrementActiveRuns(ctx)
	defer metrics.DecrementActiveRuns(ctx)

	logging.Info().
		Add(logging.RunID(runID)).
		Add(logging.Algorithm(algo.Name())).
		Msg("starting search run")

	start := time.Now()
	result, err := algo.Run(ctx, problem)
	metrics.RecordRunDuration(ctx, algo.Name(), time.Since(start), err == nil)

	if err != nil {
		metrics.RecordError(ctx, "run_failed", map[string]string{"algorithm": algo.Name()})
		logging.Error().
			Add(logging.RunID(runID)).
			Add(logging.Algorithm(algo.Name())).
			Add(logging.Err(err)).
			Msg("search run failed")
		return SolveResult{RunID: runID, Algorithm: kind}, err
	}

	logging.Info().
		Add(logging.RunID(runID)).
		Add(logging.Algorithm(algo.Name())).
		Add(logging.Score(result.BestScore)).
		Msg("search run complete")

	return SolveResult{RunID: runID, Algorithm: kind, Result: result}, nil
}
