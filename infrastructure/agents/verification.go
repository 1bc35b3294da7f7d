package agents

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/felixgeelhaar/plansearch-go/domain/cache"
	"github.com/felixgeelhaar/plansearch-go/infrastructure/logging"
	"github.com/felixgeelhaar/plansearch-go/infrastructure/model"
	"github.com/felixgeelhaar/plansearch-go/infrastructure/prompt"
)

// VerificationAgent scores a candidate plan against a problem statement
// and its constraints. Scores use the 0-100 convention; the neutral
// fallback is the documented midpoint 50.
type VerificationAgent struct {
	provider model.Provider
	prompts  *prompt.Registry

	// cache, when set, short-circuits repeat verifications of the same
	// (problem, constraints, plan) triple.
	cache    cache.Cache
	cacheTTL time.Duration
}

// VerificationOption configures the agent.
type VerificationOption func(*VerificationAgent)

// WithCache enables verification-result caching with the given TTL.
// A zero TTL means entries never expire.
func WithCache(c cache.Cache, ttl time.Duration) VerificationOption {
	return func(a *VerificationAgent) {
		a.cache = c
		a.cacheTTL = ttl
	}
}

// NewVerificationAgent creates a verification agent.
func NewVerificationAgent(provider model.Provider, prompts *prompt.Registry, opts ...VerificationOption) *VerificationAgent {
	if prompts == nil {
		prompts = prompt.NewRegistry()
	}
	a := &VerificationAgent{provider: provider, prompts: prompts}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// cachedResult is the serialized cache payload.
type cachedResult struct {
	Feedback string  `json:"feedback"`
	Score    float64 `json:"score"`
}

// Verify returns (feedback, score) for the plan. The score is 0-100.
func (a *VerificationAgent) Verify(ctx context.Context, problem string, constraints []string, planText string) (string, float64, error) {
	key := verificationKey(problem, constraints, planText)

	if a.cache != nil {
		if data, ok, err := a.cache.Get(ctx, key); err == nil && ok {
			var cached cachedResult
			if err := json.Unmarshal(data, &cached); err == nil {
				return cached.Feedback, cached.Score, nil
			}
		}
	}

	userPrompt, err := a.prompts.Render(prompt.Verification, map[string]any{
		"Problem":     problem,
		"Constraints": prompt.FormatConstraints(constraints),
		"Plan":        planText,
	})
	if err != nil {
		return "", 0, fmt.Errorf("%w: %v", ErrVerification, err)
	}
	system, err := a.prompts.Render(prompt.SystemVerification, nil)
	if err != nil {
		return "", 0, fmt.Errorf("%w: %v", ErrVerification, err)
	}

	resp, err := a.provider.Generate(ctx, model.Request{
		Prompt:        userPrompt,
		SystemMessage: system,
	})
	if err != nil {
		return "", 0, fmt.Errorf("%w: %v", ErrVerification, err)
	}

	score, method := ParseScore(resp.Text, NeutralScore)
	if method != ParsedScoreLine {
		logging.Warn().
			Add(logging.Score(score)).
			Add(logging.Step(string(method))).
			Msg("verifier response had no Score line, using fallback")
	}

	if a.cache != nil {
		if data, err := json.Marshal(cachedResult{Feedback: resp.Text, Score: score}); err == nil {
			if err := a.cache.Set(ctx, key, data, cache.SetOptions{TTL: a.cacheTTL}); err != nil {
				logging.Warn().Add(logging.Err(err)).Msg("verification cache write failed")
			}
		}
	}

	return resp.Text, score, nil
}

// verificationKey hashes the verification inputs into a stable cache key.
func verificationKey(problem string, constraints []string, planText string) string {
	h := sha256.New()
	h.Write([]byte(problem))
	h.Write([]byte{0})
	h.Write([]byte(strings.Join(constraints, "\x00")))
	h.Write([]byte{0})
	h.Write([]byte(planText))
	return "verify:" + hex.EncodeToString(h.Sum(nil))
}
