package application

import (
	"context"
	"errors"
	"testing"

	"github.com/felixgeelhaar/plansearch-go/domain/plan"
	"github.com/felixgeelhaar/plansearch-go/infrastructure/model"
)

func TestREBASE_StopsWhenRefinementRegresses(t *testing.T) {
	provider := model.NewMockProvider("initial plan", "refined plan")
	verifier := &stubVerifier{scores: map[string]float64{
		"initial plan": 60,
		"refined plan": 55,
	}}

	algo, err := NewREBASE(Deps{
		Provider:  provider,
		Extractor: &stubExtractor{},
		Verifier:  verifier,
	}, REBASEConfig{MaxIterations: 5})
	if err != nil {
		t.Fatalf("NewREBASE failed: %v", err)
	}

	result, err := algo.Run(context.Background(), "problem")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	// The regressing refinement is rejected; the pre-refinement plan stays
	// final after exactly one refinement attempt.
	if result.BestPlan != "initial plan" || result.BestScore != 60 {
		t.Errorf("best = (%q, %v), want (initial plan, 60)", result.BestPlan, result.BestScore)
	}
	if got := provider.CallCount(); got != 2 {
		t.Errorf("provider called %d times, want 2", got)
	}

	iterations, ok := result.Metadata["iterations"].([]plan.Iteration)
	if !ok || len(iterations) != 2 {
		t.Fatalf("iterations = %v, want the rejected round recorded too", result.Metadata["iterations"])
	}
	if iterations[1].Plan != "refined plan" || iterations[1].Score != 55 {
		t.Errorf("iteration 1 = %+v, want the rejected refinement", iterations[1])
	}
	if result.Metadata["stop_reason"] != "saturated" {
		t.Errorf("stop_reason = %v, want saturated", result.Metadata["stop_reason"])
	}
}

func TestREBASE_AdoptsImprovingRefinements(t *testing.T) {
	provider := model.NewMockProvider("plan v1", "plan v2", "plan v3")
	verifier := &stubVerifier{scores: map[string]float64{
		"plan v1": 40,
		"plan v2": 70,
		"plan v3": 70, // no further improvement
	}}

	algo, err := NewREBASE(Deps{
		Provider:  provider,
		Extractor: &stubExtractor{},
		Verifier:  verifier,
	}, REBASEConfig{MaxIterations: 5})
	if err != nil {
		t.Fatalf("NewREBASE failed: %v", err)
	}

	result, err := algo.Run(context.Background(), "problem")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if result.BestPlan != "plan v2" || result.BestScore != 70 {
		t.Errorf("best = (%q, %v), want (plan v2, 70)", result.BestPlan, result.BestScore)
	}
	if result.Metadata["stop_reason"] != "saturated" {
		t.Errorf("stop_reason = %v, want saturated", result.Metadata["stop_reason"])
	}
}

func TestREBASE_ImprovementThresholdRejectsSmallGains(t *testing.T) {
	provider := model.NewMockProvider("plan v1", "plan v2")
	verifier := &stubVerifier{scores: map[string]float64{
		"plan v1": 60,
		"plan v2": 64, // below the required +5 delta
	}}

	algo, err := NewREBASE(Deps{
		Provider:  provider,
		Extractor: &stubExtractor{},
		Verifier:  verifier,
	}, REBASEConfig{MaxIterations: 5, ImprovementThreshold: 5})
	if err != nil {
		t.Fatalf("NewREBASE failed: %v", err)
	}

	result, err := algo.Run(context.Background(), "problem")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result.BestPlan != "plan v1" || result.BestScore != 60 {
		t.Errorf("best = (%q, %v), want (plan v1, 60)", result.BestPlan, result.BestScore)
	}
}

func TestREBASE_MaxIterationsBoundsTheLoop(t *testing.T) {
	// Scores keep climbing, so only the iteration cap stops the loop.
	next := 10.0
	verifier := &stubVerifier{scores: map[string]float64{}}
	provider := model.NewMockProvider()

	n := 0
	provider.Func = func(model.Request) (string, error) {
		n++
		text := "plan " + string(rune('a'+n-1))
		verifier.scores[text] = next
		next += 10
		return text, nil
	}

	algo, err := NewREBASE(Deps{
		Provider:  provider,
		Extractor: &stubExtractor{},
		Verifier:  verifier,
	}, REBASEConfig{MaxIterations: 3})
	if err != nil {
		t.Fatalf("NewREBASE failed: %v", err)
	}

	result, err := algo.Run(context.Background(), "problem")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	// Initial generation plus 3 refinements.
	if got := provider.CallCount(); got != 4 {
		t.Errorf("provider called %d times, want 4", got)
	}
	if result.BestScore != 40 {
		t.Errorf("BestScore = %v, want the last adopted score 40", result.BestScore)
	}
	if result.Metadata["stop_reason"] != "max_iterations" {
		t.Errorf("stop_reason = %v, want max_iterations", result.Metadata["stop_reason"])
	}
}

func TestREBASE_RefinementFailureCarriesIterations(t *testing.T) {
	cause := errors.New("model unavailable")
	calls := 0
	provider := model.NewMockProvider()
	provider.Func = func(model.Request) (string, error) {
		calls++
		if calls == 1 {
			return "initial plan", nil
		}
		return "", cause
	}

	algo, err := NewREBASE(Deps{
		Provider:  provider,
		Extractor: &stubExtractor{},
		Verifier:  &stubVerifier{scores: map[string]float64{"initial plan": 50}},
	}, REBASEConfig{})
	if err != nil {
		t.Fatalf("NewREBASE failed: %v", err)
	}

	_, err = algo.Run(context.Background(), "problem")

	var execErr *plan.ExecutionError
	if !errors.As(err, &execErr) {
		t.Fatalf("err = %T, want *plan.ExecutionError", err)
	}
	if execErr.Step != "refinement" {
		t.Errorf("Step = %q, want refinement", execErr.Step)
	}
	iterations, ok := execErr.Metadata["iterations"].([]plan.Iteration)
	if !ok || len(iterations) != 1 {
		t.Errorf("partial iterations = %v, want the initial round", execErr.Metadata["iterations"])
	}
}
