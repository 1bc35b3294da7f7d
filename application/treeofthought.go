package application

import (
	"context"
	"sort"
	"strconv"
	"strings"

	"github.com/felixgeelhaar/plansearch-go/domain/event"
	"github.com/felixgeelhaar/plansearch-go/domain/plan"
	"github.com/felixgeelhaar/plansearch-go/infrastructure/agents"
	"github.com/felixgeelhaar/plansearch-go/infrastructure/logging"
	"github.com/felixgeelhaar/plansearch-go/infrastructure/model"
	"github.com/felixgeelhaar/plansearch-go/infrastructure/prompt"
)

// AlgorithmTreeOfThought is the algorithm type name of TreeOfThought.
const AlgorithmTreeOfThought = "TreeOfThought"

// TreeOfThoughtConfig configures the beam search.
type TreeOfThoughtConfig struct {
	// BranchFactor is the number of children per expansion. Default 3.
	BranchFactor int

	// BeamWidth is the number of survivors kept per level. Default 2.
	BeamWidth int

	// MaxDepth bounds the search depth. Default 5.
	MaxDepth int
}

func (c TreeOfThoughtConfig) withDefaults() TreeOfThoughtConfig {
	if c.BranchFactor <= 0 {
		c.BranchFactor = 3
	}
	if c.BeamWidth <= 0 {
		c.BeamWidth = 2
	}
	if c.MaxDepth <= 0 {
		c.MaxDepth = 5
	}
	return c
}

// TreeOfThought explores partial plans as a tree, expanding the most
// promising paths with beam search. Children are scored with a cheap
// step-reward estimate in -100..100; completed plans are scored with
// the full verifier in 0..100.
type TreeOfThought struct {
	*base
	cfg TreeOfThoughtConfig
}

// NewTreeOfThought creates a TreeOfThought strategy.
func NewTreeOfThought(deps Deps, cfg TreeOfThoughtConfig) (*TreeOfThought, error) {
	b, err := newBase(AlgorithmTreeOfThought, deps)
	if err != nil {
		return nil, err
	}
	return &TreeOfThought{base: b, cfg: cfg.withDefaults()}, nil
}

// terminal is a completed plan found during the search.
type terminal struct {
	Node     int     `json:"node"`
	Plan     string  `json:"plan"`
	Score    float64 `json:"score"`
	Feedback string  `json:"feedback"`
}

// Run implements Algorithm.
func (a *TreeOfThought) Run(ctx context.Context, problem string) (plan.Result, error) {
	if err := checkProblem(problem); err != nil {
		return plan.Result{}, a.fail("validate", nil, err)
	}

	a.publish(event.New(a.name, event.AlgorithmStart).
		With("problem", problem).
		With("branching_factor", a.cfg.BranchFactor).
		With("beam_width", a.cfg.BeamWidth).
		With("max_depth", a.cfg.MaxDepth))

	metadata := map[string]any{
		"algorithm":        a.name,
		"branching_factor": a.cfg.BranchFactor,
		"beam_width":       a.cfg.BeamWidth,
		"max_depth":        a.cfg.MaxDepth,
	}

	constraints, err := a.extractConstraints(ctx, problem)
	if err != nil {
		return plan.Result{}, a.fail("constraint_extraction", metadata, err)
	}
	metadata["constraints"] = constraints

	arena := plan.NewArena()
	root := arena.Add(plan.Node{Parent: -1})
	beam := []int{root}

	var terminals []terminal
	depthReached := 0

	for depth := 1; depth <= a.cfg.MaxDepth; depth++ {
		depthReached = depth
		var next []int

		for _, idx := range beam {
			node := arena.Node(idx)

			if len(node.Steps) > 0 {
				complete, err := a.checkComplete(ctx, problem, node.Steps)
				if err != nil {
					a.attachNodes(metadata, arena, terminals, depthReached)
					return plan.Result{}, a.fail("completion_check", metadata, err)
				}
				if complete {
					planText := strings.Join(node.Steps, "\n")
					feedback, score, err := a.verifyPlan(ctx, problem, constraints, planText)
					if err != nil {
						a.attachNodes(metadata, arena, terminals, depthReached)
						return plan.Result{}, a.fail("verification", metadata, err)
					}
					terminals = append(terminals, terminal{Node: idx, Plan: planText, Score: score, Feedback: feedback})
					continue
				}
			}

			children, err := a.expand(ctx, problem, constraints, arena, idx, depth)
			if err != nil {
				a.attachNodes(metadata, arena, terminals, depthReached)
				return plan.Result{}, a.fail("expansion", metadata, err)
			}
			next = append(next, children...)
		}

		// Prefer completed plans over continued search.
		if len(terminals) > 0 {
			break
		}
		if len(next) == 0 {
			break
		}

		// Keep the top beam_width nodes, stable and descending.
		sort.SliceStable(next, func(i, j int) bool {
			return arena.Node(next[i]).Score > arena.Node(next[j]).Score
		})
		if len(next) > a.cfg.BeamWidth {
			next = next[:a.cfg.BeamWidth]
		}
		beam = next
	}

	a.attachNodes(metadata, arena, terminals, depthReached)

	best, err := a.selectBest(arena, beam, terminals)
	if err != nil {
		return plan.Result{}, a.fail("selection", metadata, err)
	}

	a.publish(event.New(a.name, event.BestPlanSelected).
		With("plan", best.Plan).
		With("score", best.Score).
		With("complete", best.Complete))

	a.publish(event.New(a.name, event.AlgorithmComplete).
		With("best_score", best.Score))

	return plan.Result{BestPlan: best.Plan, BestScore: best.Score, Metadata: metadata}, nil
}

// bestResult is the selected outcome of the search.
type bestResult struct {
	Plan     string
	Score    float64
	Complete bool
}

// selectBest prefers the stable-best terminal; with no terminal it falls
// back to the highest-scoring node of the final beam, so the search
// returns a best-effort answer rather than failing.
func (a *TreeOfThought) selectBest(arena *plan.Arena, beam []int, terminals []terminal) (bestResult, error) {
	if len(terminals) > 0 {
		best := terminals[0]
		for _, t := range terminals[1:] {
			if t.Score > best.Score {
				best = t
			}
		}
		return bestResult{Plan: best.Plan, Score: best.Score, Complete: true}, nil
	}

	if len(beam) == 0 {
		return bestResult{}, plan.ErrNoCandidates
	}

	bestIdx := beam[0]
	for _, idx := range beam[1:] {
		if arena.Node(idx).Score > arena.Node(bestIdx).Score {
			bestIdx = idx
		}
	}
	node := arena.Node(bestIdx)
	logging.Warn().
		Add(logging.Algorithm(a.name)).
		Add(logging.Depth(node.Depth)).
		Add(logging.Score(node.Score)).
		Msg("no complete plan found, returning best incomplete node with its step-reward score")
	// The returned score keeps the step-reward convention (-100..100).
	return bestResult{Plan: strings.Join(node.Steps, "\n"), Score: node.Score}, nil
}

// expand generates branch_factor children of the node, scoring each with
// the step-reward prompt, and publishes the batch to observers.
func (a *TreeOfThought) expand(ctx context.Context, problem string, constraints []string, arena *plan.Arena, parent, depth int) ([]int, error) {
	parentNode := arena.Node(parent)
	children := make([]int, 0, a.cfg.BranchFactor)
	batch := make([]map[string]any, 0, a.cfg.BranchFactor)

	for i := 0; i < a.cfg.BranchFactor; i++ {
		// Vary temperature per child for sibling diversity.
		temperature := a.deps.Temperature + 0.2*float64(i)
		if temperature > 1.5 {
			temperature = 1.5
		}

		step, err := a.nextStep(ctx, problem, parentNode.Steps, temperature)
		if err != nil {
			return children, err
		}

		steps := make([]string, 0, len(parentNode.Steps)+1)
		steps = append(steps, parentNode.Steps...)
		steps = append(steps, step)

		score, feedback, err := a.stepReward(ctx, problem, constraints, steps)
		if err != nil {
			return children, err
		}

		idx := arena.Add(plan.Node{
			Steps:    steps,
			Score:    score,
			Depth:    depth,
			Parent:   parent,
			Feedback: feedback,
		})
		children = append(children, idx)

		batch = append(batch, map[string]any{
			"id":        nodeID(idx),
			"parent_id": nodeID(parent),
			"steps":     steps,
			"score":     score,
			"depth":     depth,
			"complete":  false,
		})
	}

	a.publish(event.New(a.name, event.PlanGenerated).
		With("depth", depth).
		With("new_nodes", batch))

	return children, nil
}

func nodeID(idx int) string {
	if idx == 0 {
		return "root"
	}
	return "node_" + strconv.Itoa(idx)
}

// nextStep asks the model for the single next plan step.
func (a *TreeOfThought) nextStep(ctx context.Context, problem string, steps []string, temperature float64) (string, error) {
	userPrompt, err := a.deps.Prompts.Render(prompt.NextStep, map[string]any{
		"Problem": problem,
		"Steps":   strings.Join(steps, "\n"),
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

// stepReward scores a partial plan with the cheap -100..100 estimate.
// A missing score line falls back per the documented parsing rules with
// a neutral default of 0.
func (a *TreeOfThought) stepReward(ctx context.Context, problem string, constraints []string, steps []string) (float64, string, error) {
	userPrompt, err := a.deps.Prompts.Render(prompt.StepReward, map[string]any{
		"Problem":     problem,
		"Plan":        strings.Join(steps, "\n"),
		"Constraints": prompt.FormatConstraints(constraints),
	})
	if err != nil {
		return 0, "", err
	}
	resp, err := a.deps.Provider.Generate(ctx, model.Request{Prompt: userPrompt})
	if err != nil {
		return 0, "", err
	}

	score, method := agents.ParseScore(resp.Text, 0)
	if method != agents.ParsedScoreLine {
		logging.Warn().
			Add(logging.Algorithm(a.name)).
			Add(logging.Score(score)).
			Add(logging.Step(string(method))).
			Msg("step-reward response had no Score line, using fallback")
	}
	return score, resp.Text, nil
}

// checkComplete asks the binary completion classifier whether the steps
// already form a full solution.
func (a *TreeOfThought) checkComplete(ctx context.Context, problem string, steps []string) (bool, error) {
	userPrompt, err := a.deps.Prompts.Render(prompt.CompletionCheck, map[string]any{
		"Problem": problem,
		"Steps":   strings.Join(steps, "\n"),
	})
	if err != nil {
		return false, err
	}
	resp, err := a.deps.Provider.Generate(ctx, model.Request{Prompt: userPrompt})
	if err != nil {
		return false, err
	}
	return strings.HasPrefix(strings.TrimSpace(resp.Text), "1"), nil
}

// attachNodes records the explored tree in the run metadata.
func (a *TreeOfThought) attachNodes(metadata map[string]any, arena *plan.Arena, terminals []terminal, depth int) {
	metadata["nodes"] = arena.Nodes()
	metadata["terminals"] = terminals
	metadata["depth_reached"] = depth
}
