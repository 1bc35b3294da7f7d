package model

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// ScriptStep defines an expected prompt fragment and the response to
// return when it matches.
type ScriptStep struct {
	// ExpectContains asserts the prompt contains this substring before
	// the response is returned. Empty matches any prompt.
	ExpectContains string

	// Response is the text to return.
	Response string

	// Err, when set, is returned instead of a response.
	Err error
}

// ScriptedProvider executes a predefined sequence for deterministic
// testing, validating that each prompt matches its script step.
type ScriptedProvider struct {
	steps []ScriptStep
	index int
	mu    sync.Mutex
}

// NewScriptedProvider creates a scripted provider with the given steps.
func NewScriptedProvider(steps ...ScriptStep) *ScriptedProvider {
	return &ScriptedProvider{steps: steps}
}

// Name returns the provider name.
func (p *ScriptedProvider) Name() string {
	return "scripted"
}

// Generate returns the next scripted response if the prompt matches.
func (p *ScriptedProvider) Generate(_ context.Context, req Request) (Response, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.index >= len(p.steps) {
		return Response{}, fmt.Errorf("%w: script exhausted after %d steps", ErrGeneration, len(p.steps))
	}

	step := p.steps[p.index]
	if step.ExpectContains != "" && !strings.Contains(req.Prompt, step.ExpectContains) {
		return Response{}, fmt.Errorf("%w: step %d expected prompt containing %q", ErrGeneration, p.index, step.ExpectContains)
	}
	p.index++

	if step.Err != nil {
		return Response{}, step.Err
	}
	return Response{Text: step.Response, Model: "scripted"}, nil
}

// Remaining returns the number of unconsumed script steps.
func (p *ScriptedProvider) Remaining() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.steps) - p.index
}
