// Package application provides the search strategies of the plan-search
// engine and the engine facade that orchestrates them.
package application

import (
	"context"
	"fmt"
	"strings"

	"github.com/felixgeelhaar/plansearch-go/domain/event"
	"github.com/felixgeelhaar/plansearch-go/domain/plan"
	"github.com/felixgeelhaar/plansearch-go/infrastructure/agents"
	"github.com/felixgeelhaar/plansearch-go/infrastructure/logging"
	"github.com/felixgeelhaar/plansearch-go/infrastructure/model"
	"github.com/felixgeelhaar/plansearch-go/infrastructure/prompt"
	"github.com/felixgeelhaar/plansearch-go/infrastructure/telemetry"
)

// Algorithm is the uniform contract of every search strategy. Run
// explores the plan space for the problem and returns the best plan
// found, its score, and the full run trace in the result metadata.
// Failures surface as a single *plan.ExecutionError.
type Algorithm interface {
	// Run searches for the best plan for the problem.
	Run(ctx context.Context, problem string) (plan.Result, error)

	// Name returns the algorithm type name used in events and metadata.
	Name() string

	// AddObserver subscribes an observer to the algorithm's events.
	AddObserver(o event.Observer)

	// RemoveObserver unsubscribes an observer.
	RemoveObserver(o event.Observer)
}

// ConstraintExtractor turns a problem statement into an ordered list of
// constraint strings.
type ConstraintExtractor interface {
	Extract(ctx context.Context, problem string) ([]string, error)
}

// Verifier scores a candidate plan against the problem and its
// constraints, returning feedback text and a numeric score. The score
// convention is per call site; the agents package documents its ranges.
type Verifier interface {
	Verify(ctx context.Context, problem string, constraints []string, planText string) (string, float64, error)
}

// Selector recommends strategies for the meta-controller.
type Selector interface {
	ChooseAlgorithm(ctx context.Context, problem string, names []string, fallback string) (string, error)
	NextAlgorithm(ctx context.Context, problem, current, bestPlan string, bestScore float64, names []string) (string, error)
}

// Deps bundles the collaborators shared by all strategies. Provider is
// required; everything else defaults to the LLM-backed agents built on
// that provider.
type Deps struct {
	// Provider generates text from prompts.
	Provider model.Provider

	// Extractor extracts constraints. Defaults to agents.ConstraintAgent.
	Extractor ConstraintExtractor

	// Verifier scores plans. Defaults to agents.VerificationAgent.
	Verifier Verifier

	// Prompts renders the prompt templates. Defaults to the built-ins.
	Prompts *prompt.Registry

	// Metrics records run telemetry. Defaults to a no-op provider.
	Metrics telemetry.Metrics

	// Temperature is the base sampling temperature for generation.
	Temperature float64
}

// withDefaults validates the deps and fills in default collaborators.
func (d Deps) withDefaults() (Deps, error) {
	if d.Provider == nil {
		return d, fmt.Errorf("provider is required")
	}
	if d.Prompts == nil {
		d.Prompts = prompt.NewRegistry()
	}
	if d.Extractor == nil {
		d.Extractor = agents.NewConstraintAgent(d.Provider, d.Prompts)
	}
	if d.Verifier == nil {
		d.Verifier = agents.NewVerificationAgent(d.Provider, d.Prompts)
	}
	if d.Metrics == nil {
		d.Metrics = &telemetry.NoopMetricsProvider{}
	}
	if d.Temperature == 0 {
		d.Temperature = 0.7
	}
	return d, nil
}

// base carries the state and helpers shared by the concrete strategies.
type base struct {
	event.Observable

	name string
	deps Deps
}

func newBase(name string, deps Deps) (*base, error) {
	deps, err := deps.withDefaults()
	if err != nil {
		return nil, err
	}
	return &base{name: name, deps: deps}, nil
}

// Name returns the algorithm type name.
func (b *base) Name() string {
	return b.name
}

// publish notifies observers. Publishers hand ownership of the event to
// the observers; they never mutate it afterwards.
func (b *base) publish(e event.Event) {
	b.Notify(e)
}

// fail wraps err into the algorithm's single failure surface, attaching
// whatever partial metadata the run recorded so far.
func (b *base) fail(step string, metadata map[string]any, err error) error {
	return plan.NewExecutionError(b.name, step, metadata, err)
}

// checkProblem rejects empty problem statements before any external call.
func checkProblem(problem string) error {
	if strings.TrimSpace(problem) == "" {
		return fmt.Errorf("%w: empty problem statement", plan.ErrInvalidInput)
	}
	return nil
}

// extractConstraints runs the constraint extractor and logs the outcome.
func (b *base) extractConstraints(ctx context.Context, problem string) ([]string, error) {
	constraints, err := b.deps.Extractor.Extract(ctx, problem)
	if err != nil {
		return nil, err
	}
	logging.Debug().
		Add(logging.Algorithm(b.name)).
		Add(logging.Step("constraint_extraction")).
		Msg(fmt.Sprintf("extracted %d constraints", len(constraints)))
	return constraints, nil
}

// generatePlan produces one full candidate plan at the given temperature.
func (b *base) generatePlan(ctx context.Context, problem string, constraints []string, temperature float64) (string, error) {
	userPrompt, err := b.deps.Prompts.Render(prompt.PlanGeneration, map[string]any{
		"Problem":     problem,
		"Constraints": prompt.FormatConstraints(constraints),
	})
	if err != nil {
		return "", err
	}
	resp, err := b.deps.Provider.Generate(ctx, model.Request{
		Prompt:      userPrompt,
		Temperature: temperature,
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.Text), nil
}

// verifyPlan scores a candidate via the verifier (0-100 convention).
func (b *base) verifyPlan(ctx context.Context, problem string, constraints []string, planText string) (string, float64, error) {
	feedback, score, err := b.deps.Verifier.Verify(ctx, problem, constraints, planText)
	if err != nil {
		return "", 0, err
	}
	b.deps.Metrics.RecordVerification(ctx, b.name, score)
	return feedback, score, nil
}
