package agents

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/felixgeelhaar/plansearch-go/infrastructure/model"
	"github.com/felixgeelhaar/plansearch-go/infrastructure/storage/memory"
)

func TestConstraintAgent_Extract(t *testing.T) {
	provider := model.NewMockProvider("- budget under $500\n- finish within 2 weeks\n- use existing tooling")
	agent := NewConstraintAgent(provider, nil)

	got, err := agent.Extract(context.Background(), "Plan a small migration project")
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	want := []string{"budget under $500", "finish within 2 weeks", "use existing tooling"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Extract = %v, want %v", got, want)
	}
}

func TestConstraintAgent_StripsNumbering(t *testing.T) {
	provider := model.NewMockProvider("1. first constraint\n2) second constraint\n\n* third constraint")
	agent := NewConstraintAgent(provider, nil)

	got, err := agent.Extract(context.Background(), "problem")
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	want := []string{"first constraint", "second constraint", "third constraint"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Extract = %v, want %v", got, want)
	}
}

func TestConstraintAgent_ProviderFailure(t *testing.T) {
	provider := model.NewMockProvider()
	provider.Func = func(model.Request) (string, error) {
		return "", errors.New("network down")
	}
	agent := NewConstraintAgent(provider, nil)

	_, err := agent.Extract(context.Background(), "problem")
	if !errors.Is(err, ErrExtraction) {
		t.Errorf("err = %v, want wrapped ErrExtraction", err)
	}
}

func TestVerificationAgent_ParsesScore(t *testing.T) {
	provider := model.NewMockProvider("The plan addresses all constraints.\nScore: 88")
	agent := NewVerificationAgent(provider, nil)

	feedback, score, err := agent.Verify(context.Background(), "problem", []string{"c1"}, "the plan")
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if score != 88 {
		t.Errorf("score = %v, want 88", score)
	}
	if feedback == "" {
		t.Error("feedback empty, want verifier text")
	}
}

func TestVerificationAgent_CacheShortCircuits(t *testing.T) {
	provider := model.NewMockProvider("Fine plan.\nScore: 75")
	agent := NewVerificationAgent(provider, nil, WithCache(memory.NewCache(), time.Minute))

	ctx := context.Background()
	_, first, err := agent.Verify(ctx, "problem", []string{"c1"}, "plan text")
	if err != nil {
		t.Fatalf("first Verify failed: %v", err)
	}

	// The second identical verification must not hit the provider.
	_, second, err := agent.Verify(ctx, "problem", []string{"c1"}, "plan text")
	if err != nil {
		t.Fatalf("second Verify failed: %v", err)
	}

	if first != second {
		t.Errorf("cached score %v differs from original %v", second, first)
	}
	if provider.CallCount() != 1 {
		t.Errorf("provider called %d times, want 1", provider.CallCount())
	}
}

func TestVerificationAgent_DistinctPlansMissCache(t *testing.T) {
	provider := model.NewMockProvider("Score: 10", "Score: 20")
	agent := NewVerificationAgent(provider, nil, WithCache(memory.NewCache(), time.Minute))

	ctx := context.Background()
	_, a, _ := agent.Verify(ctx, "problem", nil, "plan a")
	_, b, _ := agent.Verify(ctx, "problem", nil, "plan b")

	if a != 10 || b != 20 {
		t.Errorf("scores = %v, %v, want 10, 20", a, b)
	}
	if provider.CallCount() != 2 {
		t.Errorf("provider called %d times, want 2", provider.CallCount())
	}
}

func TestSelectionAgent_SelectBest(t *testing.T) {
	provider := model.NewMockProvider("After comparing, Solution 2 handles the constraints best.")
	agent := NewSelectionAgent(provider, nil)

	idx, reasoning, err := agent.SelectBest(context.Background(),
		[]string{"plan a", "plan b", "plan c"},
		[]string{"ok", "great", "weak"})
	if err != nil {
		t.Fatalf("SelectBest failed: %v", err)
	}
	if idx != 1 {
		t.Errorf("index = %d, want 1", idx)
	}
	if reasoning == "" {
		t.Error("reasoning empty")
	}
}

func TestSelectionAgent_SelectBestDefaultsToFirst(t *testing.T) {
	provider := model.NewMockProvider("They all look similar to me.")
	agent := NewSelectionAgent(provider, nil)

	idx, _, err := agent.SelectBest(context.Background(), []string{"a", "b"}, []string{"x", "y"})
	if err != nil {
		t.Fatalf("SelectBest failed: %v", err)
	}
	if idx != 0 {
		t.Errorf("index = %d, want 0", idx)
	}
}

func TestSelectionAgent_ChooseAlgorithm(t *testing.T) {
	names := []string{"Best of N", "Tree of Thought", "REBASE"}

	tests := []struct {
		name     string
		response string
		want     string
	}{
		{"exact match", "Tree of Thought", "Tree of Thought"},
		{"match inside prose", "I recommend REBASE for this problem.", "REBASE"},
		{"case insensitive", "best of n seems right", "Best of N"},
		{"no match falls back", "something else entirely", "Best of N"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := model.NewMockProvider(tt.response)
			agent := NewSelectionAgent(provider, nil)

			got, err := agent.ChooseAlgorithm(context.Background(), "problem", names, "Best of N")
			if err != nil {
				t.Fatalf("ChooseAlgorithm failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("ChooseAlgorithm = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSelectionAgent_NextAlgorithmUnrecognizedMeansStay(t *testing.T) {
	provider := model.NewMockProvider("no idea, maybe try harder")
	agent := NewSelectionAgent(provider, nil)

	got, err := agent.NextAlgorithm(context.Background(), "problem", "REBASE", "plan", 60,
		[]string{"Best of N", "Tree of Thought", "REBASE"})
	if err != nil {
		t.Fatalf("NextAlgorithm failed: %v", err)
	}
	if got != "REBASE" {
		t.Errorf("NextAlgorithm = %q, want current strategy %q", got, "REBASE")
	}
}
