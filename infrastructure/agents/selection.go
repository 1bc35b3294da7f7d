package agents

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/felixgeelhaar/plansearch-go/infrastructure/model"
	"github.com/felixgeelhaar/plansearch-go/infrastructure/prompt"
)

// SelectionAgent chooses among candidate solutions, and among search
// strategies for the meta-controller. Both are single LLM round trips
// with text-parsing heuristics and deterministic fallbacks.
type SelectionAgent struct {
	provider model.Provider
	prompts  *prompt.Registry
}

// NewSelectionAgent creates a selection agent.
func NewSelectionAgent(provider model.Provider, prompts *prompt.Registry) *SelectionAgent {
	if prompts == nil {
		prompts = prompt.NewRegistry()
	}
	return &SelectionAgent{provider: provider, prompts: prompts}
}

// numberedSolution feeds the selection template.
type numberedSolution struct {
	Number       int
	Text         string
	Verification string
}

var solutionNumberRe = regexp.MustCompile(`(?i)solution\s+(\d+)`)

// SelectBest picks the best of the verified solutions. It returns the
// zero-based index and the model's reasoning. If the reasoning names no
// solution, the first one wins.
func (a *SelectionAgent) SelectBest(ctx context.Context, solutions, verifications []string) (int, string, error) {
	if len(solutions) == 0 {
		return 0, "", fmt.Errorf("%w: no solutions to select from", ErrSelection)
	}
	if len(verifications) != len(solutions) {
		return 0, "", fmt.Errorf("%w: %d solutions but %d verifications", ErrSelection, len(solutions), len(verifications))
	}

	numbered := make([]numberedSolution, len(solutions))
	for i, s := range solutions {
		numbered[i] = numberedSolution{Number: i + 1, Text: s, Verification: verifications[i]}
	}

	userPrompt, err := a.prompts.Render(prompt.SolutionSelection, map[string]any{"Solutions": numbered})
	if err != nil {
		return 0, "", fmt.Errorf("%w: %v", ErrSelection, err)
	}
	system, err := a.prompts.Render(prompt.SystemSelection, nil)
	if err != nil {
		return 0, "", fmt.Errorf("%w: %v", ErrSelection, err)
	}

	resp, err := a.provider.Generate(ctx, model.Request{
		Prompt:        userPrompt,
		SystemMessage: system,
	})
	if err != nil {
		return 0, "", fmt.Errorf("%w: %v", ErrSelection, err)
	}

	index := 0
	if m := solutionNumberRe.FindStringSubmatch(resp.Text); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n >= 1 && n <= len(solutions) {
			index = n - 1
		}
	}

	return index, resp.Text, nil
}

// ChooseAlgorithm asks the model which strategy fits the problem. The
// response must match one of names (case-insensitive); anything else
// falls back to fallback.
func (a *SelectionAgent) ChooseAlgorithm(ctx context.Context, problem string, names []string, fallback string) (string, error) {
	userPrompt, err := a.prompts.Render(prompt.AlgorithmSelection, map[string]any{
		"Problem":    problem,
		"Algorithms": names,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSelection, err)
	}

	resp, err := a.provider.Generate(ctx, model.Request{Prompt: userPrompt})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSelection, err)
	}

	return matchAlgorithmName(resp.Text, names, fallback), nil
}

// NextAlgorithm asks for a follow-up strategy given the current best
// result. Returning the current strategy's name means "stop switching".
func (a *SelectionAgent) NextAlgorithm(ctx context.Context, problem, current, bestPlan string, bestScore float64, names []string) (string, error) {
	userPrompt, err := a.prompts.Render(prompt.AlgorithmSwitch, map[string]any{
		"Problem":    problem,
		"Algorithms": names,
		"Current":    current,
		"Plan":       bestPlan,
		"Score":      bestScore,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSelection, err)
	}

	resp, err := a.provider.Generate(ctx, model.Request{Prompt: userPrompt})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSelection, err)
	}

	// An unrecognized recommendation means no convincing switch;
	// treat it as "stay with the current strategy".
	return matchAlgorithmName(resp.Text, names, current), nil
}

// matchAlgorithmName finds the first known name mentioned in the
// response, or fallback when none matches.
func matchAlgorithmName(response string, names []string, fallback string) string {
	lower := strings.ToLower(response)
	for _, name := range names {
		if strings.Contains(lower, strings.ToLower(name)) {
			return name
		}
	}
	return fallback
}
