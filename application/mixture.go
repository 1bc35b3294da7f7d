package application

import (
	"context"

	"github.com/felixgeelhaar/plansearch-go/domain/bandit"
	"github.com/felixgeelhaar/plansearch-go/domain/event"
	"github.com/felixgeelhaar/plansearch-go/domain/plan"
	"github.com/felixgeelhaar/plansearch-go/infrastructure/agents"
	"github.com/felixgeelhaar/plansearch-go/infrastructure/logging"
)

// AlgorithmMixture is the algorithm type name of MixtureOfAlgorithms.
const AlgorithmMixture = "MixtureOfAlgorithms"

// Display names of the child strategies, used for selection prompts and
// bandit arms.
const (
	NameBestOfN       = "Best of N"
	NameTreeOfThought = "Tree of Thought"
	NameREBASE        = "REBASE"
)

// Mixture lifecycle tags beyond the common set.
const (
	EventAlgorithmSelected = "algorithm_selected"
	EventAlgorithmSwitch   = "algorithm_switch"
)

// MixtureConfig configures the meta-controller.
type MixtureConfig struct {
	// MaxSwitches bounds strategy switches after the initial run.
	// Default 3.
	MaxSwitches int

	// GoodEnoughScore stops the search early once reached. Default 80.
	GoodEnoughScore float64

	// ExplorationWeight tunes the bandit's exploration bonus. Default 1.
	ExplorationWeight float64

	// BestOfN, TreeOfThought and REBASE configure the child strategies.
	BestOfN       BestOfNConfig
	TreeOfThought TreeOfThoughtConfig
	REBASE        REBASEConfig
}

func (c MixtureConfig) withDefaults() MixtureConfig {
	if c.MaxSwitches <= 0 {
		c.MaxSwitches = 3
	}
	if c.GoodEnoughScore <= 0 {
		c.GoodEnoughScore = 80
	}
	if c.ExplorationWeight <= 0 {
		c.ExplorationWeight = 1
	}
	return c
}

// Mixture picks among the three base strategies per problem, switching
// across a bounded number of rounds. Child events are forwarded to the
// mixture's own observers tagged as delegated, so subscribers see
// nested progress without references to child instances. Arm statistics
// live on the instance; they never leak across separately constructed
// mixtures.
type Mixture struct {
	*base
	cfg      MixtureConfig
	selector Selector
	names    []string
	children map[string]Algorithm
	bandit   *bandit.UCB
}

// forwarder re-publishes a child's events through the mixture.
type forwarder struct {
	m *Mixture
}

// Update implements event.Observer. The original event stays untouched;
// observers of the child itself never see the delegated tag.
func (f *forwarder) Update(e event.Event) {
	f.m.publish(e.Clone().With("delegated", true))
}

// NewMixture creates the meta-controller with freshly constructed child
// strategies sharing the mixture's collaborators. A nil selector
// defaults to the LLM-backed selection agent.
func NewMixture(deps Deps, cfg MixtureConfig, selector Selector) (*Mixture, error) {
	b, err := newBase(AlgorithmMixture, deps)
	if err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults()

	if selector == nil {
		selector = agents.NewSelectionAgent(b.deps.Provider, b.deps.Prompts)
	}

	bestOfN, err := NewBestOfN(b.deps, cfg.BestOfN)
	if err != nil {
		return nil, err
	}
	tot, err := NewTreeOfThought(b.deps, cfg.TreeOfThought)
	if err != nil {
		return nil, err
	}
	rebase, err := NewREBASE(b.deps, cfg.REBASE)
	if err != nil {
		return nil, err
	}

	m := &Mixture{
		base:     b,
		cfg:      cfg,
		selector: selector,
		names:    []string{NameBestOfN, NameTreeOfThought, NameREBASE},
		children: map[string]Algorithm{
			NameBestOfN:       bestOfN,
			NameTreeOfThought: tot,
			NameREBASE:        rebase,
		},
		bandit: bandit.New([]string{NameBestOfN, NameTreeOfThought, NameREBASE}, cfg.ExplorationWeight),
	}

	fw := &forwarder{m: m}
	for _, name := range m.names {
		m.children[name].AddObserver(fw)
	}

	return m, nil
}

// roundRecord captures one child run in the metadata trace.
type roundRecord struct {
	Round     int     `json:"round"`
	Algorithm string  `json:"algorithm"`
	Score     float64 `json:"score"`
}

// Run implements Algorithm.
func (m *Mixture) Run(ctx context.Context, problem string) (plan.Result, error) {
	if err := checkProblem(problem); err != nil {
		return plan.Result{}, m.fail("validate", nil, err)
	}

	m.publish(event.New(m.name, event.AlgorithmStart).
		With("problem", problem).
		With("max_switches", m.cfg.MaxSwitches))

	metadata := map[string]any{
		"algorithm":    m.name,
		"max_switches": m.cfg.MaxSwitches,
	}
	var rounds []roundRecord

	// Initial selection: LLM-assisted, with the bandit's pick as the
	// fallback when the response matches no known strategy.
	current, err := m.selector.ChooseAlgorithm(ctx, problem, m.names, m.bandit.Select())
	if err != nil {
		metadata["rounds"] = rounds
		return plan.Result{}, m.fail("algorithm_selection", metadata, err)
	}

	m.publish(event.New(m.name, EventAlgorithmSelected).
		With("selected_algorithm", current).
		With("round", 0))

	best, err := m.runChild(ctx, problem, current)
	if err != nil {
		metadata["rounds"] = rounds
		return plan.Result{}, m.fail("delegate_run", metadata, err)
	}
	bestName := current
	rounds = append(rounds, roundRecord{Round: 0, Algorithm: current, Score: best.BestScore})

	for round := 1; round <= m.cfg.MaxSwitches && best.BestScore < m.cfg.GoodEnoughScore; round++ {
		next, err := m.selector.NextAlgorithm(ctx, problem, current, best.BestPlan, best.BestScore, m.names)
		if err != nil {
			metadata["rounds"] = rounds
			return plan.Result{}, m.fail("algorithm_selection", metadata, err)
		}
		// Recommending the current strategy again means there is no
		// benefit to rerunning it.
		if next == current {
			break
		}

		m.publish(event.New(m.name, EventAlgorithmSwitch).
			With("selected_algorithm", next).
			With("previous_algorithm", current).
			With("round", round))
		m.deps.Metrics.RecordAlgorithmSwitch(ctx, current, next)

		result, err := m.runChild(ctx, problem, next)
		if err != nil {
			metadata["rounds"] = rounds
			return plan.Result{}, m.fail("delegate_run", metadata, err)
		}
		rounds = append(rounds, roundRecord{Round: round, Algorithm: next, Score: result.BestScore})
		current = next

		if result.BestScore > best.BestScore {
			best = result
			bestName = next
		}
	}

	metadata["rounds"] = rounds
	metadata["best_algorithm"] = bestName
	metadata["bandit"] = m.banditSnapshot()

	m.publish(event.New(m.name, event.BestPlanSelected).
		With("plan", best.BestPlan).
		With("score", best.BestScore).
		With("selected_algorithm", bestName))

	m.publish(event.New(m.name, event.AlgorithmComplete).
		With("best_score", best.BestScore).
		With("rounds", len(rounds)))

	return plan.Result{BestPlan: best.BestPlan, BestScore: best.BestScore, Metadata: metadata}, nil
}

// runChild runs one strategy fully and feeds its score back into the
// bandit as the arm's reward.
func (m *Mixture) runChild(ctx context.Context, problem, name string) (plan.Result, error) {
	child, ok := m.children[name]
	if !ok {
		return plan.Result{}, plan.ErrNoCandidates
	}

	logging.Info().
		Add(logging.Algorithm(m.name)).
		Add(logging.Step("delegate")).
		Msg("running " + name)

	result, err := child.Run(ctx, problem)
	if err != nil {
		return plan.Result{}, err
	}

	if err := m.bandit.Update(name, result.BestScore); err != nil {
		return plan.Result{}, err
	}
	return result, nil
}

// banditSnapshot captures per-arm statistics for the run metadata.
func (m *Mixture) banditSnapshot() map[string]any {
	pulls := make(map[string]int, len(m.names))
	means := make(map[string]float64, len(m.names))
	for _, name := range m.names {
		pulls[name] = m.bandit.Pulls(name)
		means[name] = m.bandit.Mean(name)
	}
	return map[string]any{
		"pulls": pulls,
		"means": means,
		"best":  m.bandit.Best(),
	}
}
