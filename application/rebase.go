package application

import (
	"context"
	"strings"

	"github.com/felixgeelhaar/plansearch-go/domain/event"
	"github.com/felixgeelhaar/plansearch-go/domain/plan"
	"github.com/felixgeelhaar/plansearch-go/infrastructure/logging"
	"github.com/felixgeelhaar/plansearch-go/infrastructure/model"
	"github.com/felixgeelhaar/plansearch-go/infrastructure/prompt"
)

// AlgorithmREBASE is the algorithm type name of REBASE.
const AlgorithmREBASE = "REBASE"

// REBASEConfig configures iterative refinement.
type REBASEConfig struct {
	// MaxIterations bounds the number of refinement rounds. Default 5.
	MaxIterations int

	// ImprovementThreshold is the minimum score delta a refinement must
	// exceed to be adopted. A refinement scoring at or below
	// current+threshold stops the loop and the current plan stays final.
	ImprovementThreshold float64
}

func (c REBASEConfig) withDefaults() REBASEConfig {
	if c.MaxIterations <= 0 {
		c.MaxIterations = 5
	}
	return c
}

// REBASE generates one initial plan and repeatedly refines it with the
// verifier's feedback as extra prompt context, stopping once the score
// improvement saturates. Scores use the 0-100 convention throughout.
type REBASE struct {
	*base
	cfg REBASEConfig
}

// NewREBASE creates a REBASE strategy.
func NewREBASE(deps Deps, cfg REBASEConfig) (*REBASE, error) {
	b, err := newBase(AlgorithmREBASE, deps)
	if err != nil {
		return nil, err
	}
	return &REBASE{base: b, cfg: cfg.withDefaults()}, nil
}

// Run implements Algorithm.
func (a *REBASE) Run(ctx context.Context, problem string) (plan.Result, error) {
	if err := checkProblem(problem); err != nil {
		return plan.Result{}, a.fail("validate", nil, err)
	}

	a.publish(event.New(a.name, event.AlgorithmStart).
		With("problem", problem).
		With("max_iterations", a.cfg.MaxIterations).
		With("improvement_threshold", a.cfg.ImprovementThreshold))

	metadata := map[string]any{
		"algorithm":             a.name,
		"max_iterations":        a.cfg.MaxIterations,
		"improvement_threshold": a.cfg.ImprovementThreshold,
	}

	constraints, err := a.extractConstraints(ctx, problem)
	if err != nil {
		return plan.Result{}, a.fail("constraint_extraction", metadata, err)
	}
	metadata["constraints"] = constraints

	var iterations []plan.Iteration

	record := func(it plan.Iteration) {
		iterations = append(iterations, it)
		a.publish(event.New(a.name, event.PlanGenerated).
			With("iteration", len(iterations)-1).
			With("plan", it.Plan).
			With("score", it.Score).
			With("feedback", it.Feedback))
	}

	initial, err := a.generatePlan(ctx, problem, constraints, a.deps.Temperature)
	if err != nil {
		metadata["iterations"] = iterations
		return plan.Result{}, a.fail("initial_generation", metadata, err)
	}
	feedback, score, err := a.verifyPlan(ctx, problem, constraints, initial)
	if err != nil {
		metadata["iterations"] = iterations
		return plan.Result{}, a.fail("verification", metadata, err)
	}

	current := plan.Iteration{Plan: initial, Score: score, Feedback: feedback}
	record(current)

	stopReason := "max_iterations"
	for i := 0; i < a.cfg.MaxIterations; i++ {
		refined, err := a.refine(ctx, problem, constraints, current)
		if err != nil {
			metadata["iterations"] = iterations
			return plan.Result{}, a.fail("refinement", metadata, err)
		}
		refinedFeedback, refinedScore, err := a.verifyPlan(ctx, problem, constraints, refined)
		if err != nil {
			metadata["iterations"] = iterations
			return plan.Result{}, a.fail("verification", metadata, err)
		}

		// Rejected refinements are recorded too, for traceability.
		record(plan.Iteration{Plan: refined, Score: refinedScore, Feedback: refinedFeedback})

		if refinedScore <= current.Score+a.cfg.ImprovementThreshold {
			logging.Debug().
				Add(logging.Algorithm(a.name)).
				Add(logging.Iteration(i + 1)).
				Add(logging.Score(refinedScore)).
				Msg("refinement did not improve enough, keeping current plan")
			stopReason = "saturated"
			break
		}

		current = plan.Iteration{Plan: refined, Score: refinedScore, Feedback: refinedFeedback}
	}

	metadata["iterations"] = iterations
	metadata["stop_reason"] = stopReason

	a.publish(event.New(a.name, event.BestPlanSelected).
		With("plan", current.Plan).
		With("score", current.Score))

	a.publish(event.New(a.name, event.AlgorithmComplete).
		With("best_score", current.Score).
		With("iterations", len(iterations)))

	return plan.Result{BestPlan: current.Plan, BestScore: current.Score, Metadata: metadata}, nil
}

// refine asks the model to improve the current plan using its feedback.
func (a *REBASE) refine(ctx context.Context, problem string, constraints []string, current plan.Iteration) (string, error) {
	userPrompt, err := a.deps.Prompts.Render(prompt.PlanRefinement, map[string]any{
		"Problem":     problem,
		"Constraints": prompt.FormatConstraints(constraints),
		"Plan":        current.Plan,
		"Feedback":    current.Feedback,
	})
	if err != nil {
		return "", err
	}
	resp, err := a.deps.Provider.Generate(ctx, model.Request{
		Prompt:      userPrompt,
		Temperature: a.deps.Temperature,
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.Text), nil
}
