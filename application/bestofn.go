package application

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/felixgeelhaar/plansearch-go/domain/event"
	"github.com/felixgeelhaar/plansearch-go/domain/plan"
	"github.com/felixgeelhaar/plansearch-go/infrastructure/logging"
	"github.com/felixgeelhaar/plansearch-go/infrastructure/model"
	"github.com/felixgeelhaar/plansearch-go/infrastructure/prompt"
)

// AlgorithmBestOfN is the algorithm type name of BestOfN.
const AlgorithmBestOfN = "BestOfN"

// SamplingStrategy selects how BestOfN candidates relate to each other.
type SamplingStrategy string

const (
	// SamplingBasic generates each candidate independently.
	SamplingBasic SamplingStrategy = "basic"

	// SamplingDiverse rejects candidates too similar to earlier ones.
	SamplingDiverse SamplingStrategy = "diverse"

	// SamplingAdaptive steers each candidate using the best and worst
	// feedback seen so far.
	SamplingAdaptive SamplingStrategy = "adaptive"
)

// BestOfNConfig configures the BestOfN strategy.
type BestOfNConfig struct {
	// NumPlans is the number of candidates to generate. Default 3.
	NumPlans int

	// Sampling is the candidate sampling strategy. Default basic.
	Sampling SamplingStrategy

	// Parallel generates independent candidates concurrently. Only the
	// basic strategy runs in parallel; diverse and adaptive depend on
	// all prior candidates and stay sequential regardless.
	Parallel bool

	// MinSimilarity is the Jaccard similarity above which a diverse
	// candidate is regenerated. Default 0.9.
	MinSimilarity float64

	// MaxRetries bounds regeneration attempts per diverse candidate.
	// Default 3.
	MaxRetries int

	// MaxWorkers bounds the parallel worker pool. Default 4.
	MaxWorkers int
}

func (c BestOfNConfig) withDefaults() BestOfNConfig {
	if c.NumPlans <= 0 {
		c.NumPlans = 3
	}
	if c.Sampling == "" {
		c.Sampling = SamplingBasic
	}
	if c.MinSimilarity <= 0 {
		c.MinSimilarity = 0.9
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	if c.MaxWorkers <= 0 {
		c.MaxWorkers = 4
	}
	return c
}

// BestOfN generates N candidate plans and returns the highest-scoring
// one. Ties resolve to the first candidate reaching the maximum score.
type BestOfN struct {
	*base
	cfg BestOfNConfig
}

// NewBestOfN creates a BestOfN strategy.
func NewBestOfN(deps Deps, cfg BestOfNConfig) (*BestOfN, error) {
	b, err := newBase(AlgorithmBestOfN, deps)
	if err != nil {
		return nil, err
	}
	return &BestOfN{base: b, cfg: cfg.withDefaults()}, nil
}

// Run implements Algorithm.
func (a *BestOfN) Run(ctx context.Context, problem string) (plan.Result, error) {
	if err := checkProblem(problem); err != nil {
		return plan.Result{}, a.fail("validate", nil, err)
	}

	a.publish(event.New(a.name, event.AlgorithmStart).
		With("problem", problem).
		With("num_plans", a.cfg.NumPlans).
		With("sampling", string(a.cfg.Sampling)))

	metadata := map[string]any{
		"algorithm": a.name,
		"num_plans": a.cfg.NumPlans,
		"sampling":  string(a.cfg.Sampling),
		"parallel":  a.cfg.Parallel,
	}

	constraints, err := a.extractConstraints(ctx, problem)
	if err != nil {
		return plan.Result{}, a.fail("constraint_extraction", metadata, err)
	}
	metadata["constraints"] = constraints

	var candidates []plan.Candidate
	switch a.cfg.Sampling {
	case SamplingDiverse:
		candidates, err = a.generateDiverse(ctx, problem, constraints)
	case SamplingAdaptive:
		candidates, err = a.generateAdaptive(ctx, problem, constraints)
	default:
		if a.cfg.Parallel {
			candidates, err = a.generateParallel(ctx, problem, constraints)
		} else {
			candidates, err = a.generateBasic(ctx, problem, constraints)
		}
	}
	if err != nil {
		metadata["candidates"] = candidates
		return plan.Result{}, a.fail("candidate_generation", metadata, err)
	}
	metadata["candidates"] = candidates

	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.Score > best.Score {
			best = c
		}
	}

	a.publish(event.New(a.name, event.BestPlanSelected).
		With("plan_id", best.Index).
		With("plan", best.Plan).
		With("score", best.Score).
		With("is_selected", true))

	a.publish(event.New(a.name, event.AlgorithmComplete).
		With("best_score", best.Score))

	return plan.Result{BestPlan: best.Plan, BestScore: best.Score, Metadata: metadata}, nil
}

// makeCandidate verifies one generated plan and publishes its progress
// event.
func (a *BestOfN) makeCandidate(ctx context.Context, problem string, constraints []string, index int, planText string) (plan.Candidate, error) {
	feedback, score, err := a.verifyPlan(ctx, problem, constraints, planText)
	if err != nil {
		return plan.Candidate{}, err
	}
	c := plan.Candidate{Index: index, Plan: planText, Score: score, Feedback: feedback}

	a.publish(event.New(a.name, event.PlanGenerated).
		With("plan_id", c.Index).
		With("plan", c.Plan).
		With("score", c.Score).
		With("is_selected", false))

	return c, nil
}

// generateBasic produces candidates sequentially and independently.
func (a *BestOfN) generateBasic(ctx context.Context, problem string, constraints []string) ([]plan.Candidate, error) {
	candidates := make([]plan.Candidate, 0, a.cfg.NumPlans)
	for i := 0; i < a.cfg.NumPlans; i++ {
		text, err := a.generatePlan(ctx, problem, constraints, a.deps.Temperature)
		if err != nil {
			return candidates, err
		}
		c, err := a.makeCandidate(ctx, problem, constraints, i, text)
		if err != nil {
			return candidates, err
		}
		candidates = append(candidates, c)
	}
	return candidates, nil
}

// generateParallel produces independent candidates with a bounded
// worker pool. Results land in a slice indexed by submission order so
// tie-breaking stays deterministic.
func (a *BestOfN) generateParallel(ctx context.Context, problem string, constraints []string) ([]plan.Candidate, error) {
	n := a.cfg.NumPlans
	results := make([]plan.Candidate, n)
	errs := make([]error, n)

	sem := make(chan struct{}, a.cfg.MaxWorkers)
	var wg sync.WaitGroup

	for i := 0; i < n; i++ {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()

			text, err := a.generatePlan(ctx, problem, constraints, a.deps.Temperature)
			if err != nil {
				errs[i] = err
				return
			}
			c, err := a.makeCandidate(ctx, problem, constraints, i, text)
			if err != nil {
				errs[i] = err
				return
			}
			results[i] = c
		}(i)
	}
	wg.Wait()

	completed := make([]plan.Candidate, 0, n)
	for i := 0; i < n; i++ {
		if errs[i] != nil {
			return completed, errs[i]
		}
		completed = append(completed, results[i])
	}
	return completed, nil
}

// generateDiverse regenerates each candidate until it is sufficiently
// dissimilar from all prior ones, bounded by MaxRetries. Exhausted
// retries accept the last attempt.
func (a *BestOfN) generateDiverse(ctx context.Context, problem string, constraints []string) ([]plan.Candidate, error) {
	candidates := make([]plan.Candidate, 0, a.cfg.NumPlans)
	priorTokens := make([]map[string]struct{}, 0, a.cfg.NumPlans)

	for i := 0; i < a.cfg.NumPlans; i++ {
		// Widen exploration as prior candidates accumulate.
		temperature := a.deps.Temperature + 0.1*float64(i)
		if temperature > 1.5 {
			temperature = 1.5
		}

		var text string
		var tokens map[string]struct{}
		for attempt := 0; ; attempt++ {
			var err error
			text, err = a.generatePlan(ctx, problem, constraints, temperature)
			if err != nil {
				return candidates, err
			}
			tokens = tokenSet(text)

			if i == 0 || attempt >= a.cfg.MaxRetries || maxSimilarity(tokens, priorTokens) < a.cfg.MinSimilarity {
				break
			}
			logging.Debug().
				Add(logging.Algorithm(a.name)).
				Add(logging.Step("diverse_retry")).
				Msg(fmt.Sprintf("candidate %d too similar, retrying (attempt %d)", i, attempt+1))
		}

		c, err := a.makeCandidate(ctx, problem, constraints, i, text)
		if err != nil {
			return candidates, err
		}
		candidates = append(candidates, c)
		priorTokens = append(priorTokens, tokens)
	}
	return candidates, nil
}

// generateAdaptive contrasts the best and worst prior feedback in the
// prompt and cools the temperature when scores trend upward.
func (a *BestOfN) generateAdaptive(ctx context.Context, problem string, constraints []string) ([]plan.Candidate, error) {
	candidates := make([]plan.Candidate, 0, a.cfg.NumPlans)
	temperature := a.deps.Temperature

	for i := 0; i < a.cfg.NumPlans; i++ {
		var text string
		var err error
		if i == 0 {
			text, err = a.generatePlan(ctx, problem, constraints, temperature)
		} else {
			best, worst := bestAndWorst(candidates)
			text, err = a.generateContrasted(ctx, problem, constraints, best, worst, temperature)
		}
		if err != nil {
			return candidates, err
		}

		c, err := a.makeCandidate(ctx, problem, constraints, i, text)
		if err != nil {
			return candidates, err
		}
		candidates = append(candidates, c)

		// Converge while improving, explore while not.
		if n := len(candidates); n >= 2 {
			if candidates[n-1].Score > candidates[n-2].Score {
				temperature -= 0.1
				if temperature < 0.1 {
					temperature = 0.1
				}
			} else {
				temperature += 0.1
				if temperature > 1.5 {
					temperature = 1.5
				}
			}
		}
	}
	return candidates, nil
}

func (a *BestOfN) generateContrasted(ctx context.Context, problem string, constraints []string, best, worst plan.Candidate, temperature float64) (string, error) {
	userPrompt, err := a.deps.Prompts.Render(prompt.AdaptiveGeneration, map[string]any{
		"Problem":       problem,
		"Constraints":   prompt.FormatConstraints(constraints),
		"BestScore":     best.Score,
		"BestFeedback":  best.Feedback,
		"WorstScore":    worst.Score,
		"WorstFeedback": worst.Feedback,
	})
	if err != nil {
		return "", err
	}
	resp, err := a.deps.Provider.Generate(ctx, model.Request{
		Prompt:      userPrompt,
		Temperature: temperature,
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.Text), nil
}

// bestAndWorst returns the stable best and worst of the candidates.
func bestAndWorst(candidates []plan.Candidate) (best, worst plan.Candidate) {
	best, worst = candidates[0], candidates[0]
	for _, c := range candidates[1:] {
		if c.Score > best.Score {
			best = c
		}
		if c.Score < worst.Score {
			worst = c
		}
	}
	return best, worst
}

// tokenSet lowercases and splits the text into its unique tokens.
func tokenSet(text string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, tok := range strings.Fields(strings.ToLower(text)) {
		out[tok] = struct{}{}
	}
	return out
}

// jaccard computes |a∩b| / |a∪b|. Two empty sets count as identical.
func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1
	}
	inter := 0
	for tok := range a {
		if _, ok := b[tok]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	return float64(inter) / float64(union)
}

// maxSimilarity returns the highest Jaccard similarity of tokens against
// any prior token set.
func maxSimilarity(tokens map[string]struct{}, priors []map[string]struct{}) float64 {
	max := 0.0
	for _, p := range priors {
		if s := jaccard(tokens, p); s > max {
			max = s
		}
	}
	return max
}
