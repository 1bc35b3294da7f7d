// Package agents provides the LLM-backed collaborators of the search
// core: constraint extraction, plan verification, and solution or
// strategy selection. Each agent is one prompt/response round trip plus
// text parsing.
package agents

import (
	"context"
	"fmt"
	"strings"

	"github.com/felixgeelhaar/plansearch-go/infrastructure/model"
	"github.com/felixgeelhaar/plansearch-go/infrastructure/prompt"
)

// ConstraintAgent turns a problem statement into an ordered list of
// discrete constraint strings.
type ConstraintAgent struct {
	provider model.Provider
	prompts  *prompt.Registry
}

// NewConstraintAgent creates a constraint agent.
func NewConstraintAgent(provider model.Provider, prompts *prompt.Registry) *ConstraintAgent {
	if prompts == nil {
		prompts = prompt.NewRegistry()
	}
	return &ConstraintAgent{provider: provider, prompts: prompts}
}

// Extract returns the constraints of the problem in extraction order.
// The list may be empty.
func (a *ConstraintAgent) Extract(ctx context.Context, problem string) ([]string, error) {
	userPrompt, err := a.prompts.Render(prompt.ConstraintExtraction, map[string]any{"Problem": problem})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtraction, err)
	}
	system, err := a.prompts.Render(prompt.SystemConstraint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtraction, err)
	}

	resp, err := a.provider.Generate(ctx, model.Request{
		Prompt:        userPrompt,
		SystemMessage: system,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtraction, err)
	}

	return parseConstraintList(resp.Text), nil
}

// parseConstraintList splits the model response into one constraint per
// non-empty line, stripping list markers and numbering.
func parseConstraintList(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "-*• \t")
		// Strip "1." / "2)" style numbering.
		for i, r := range line {
			if r >= '0' && r <= '9' {
				continue
			}
			if (r == '.' || r == ')') && i > 0 {
				line = strings.TrimSpace(line[i+1:])
			}
			break
		}
		if line == "" {
			continue
		}
		out = append(out, line)
	}
	return out
}
