// Package plan provides domain types for plan-search runs.
package plan

// Candidate is one generated plan together with its verification outcome.
// A candidate is immutable once scored.
type Candidate struct {
	// Index is the zero-based position in generation order.
	Index int `json:"index"`

	// Plan is the generated plan text.
	Plan string `json:"plan"`

	// Score is the verification score. Final verification uses the
	// 0-100 convention; see the step-reward types for the -100..100 one.
	Score float64 `json:"score"`

	// Feedback is the verifier's textual feedback.
	Feedback string `json:"feedback"`
}

// Result is the outcome of a single algorithm run.
type Result struct {
	// BestPlan is the highest-scoring plan found.
	BestPlan string `json:"best_plan"`

	// BestScore is the verification score of BestPlan.
	BestScore float64 `json:"best_score"`

	// Metadata captures the strategy name, configuration, and the full
	// trace of candidates explored. It is not mutated after the run.
	Metadata map[string]any `json:"metadata"`
}

// Iteration is one round of iterative refinement. The sequence of
// iterations across a run is append-only.
type Iteration struct {
	// Plan is the plan text produced in this round.
	Plan string `json:"plan"`

	// Score is the 0-100 verification score for Plan.
	Score float64 `json:"score"`

	// Feedback is the verifier feedback used to refine the next round.
	Feedback string `json:"feedback"`
}
