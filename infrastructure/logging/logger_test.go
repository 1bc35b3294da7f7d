package logging

import (
	"errors"
	"testing"

	"github.com/felixgeelhaar/bolt/v3"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want bolt.Level
	}{
		{"trace", bolt.TRACE},
		{"debug", bolt.DEBUG},
		{"info", bolt.INFO},
		{"warn", bolt.WARN},
		{"error", bolt.ERROR},
		{"unknown", bolt.INFO},
		{"", bolt.INFO},
	}
	for _, tt := range tests {
		if got := parseLevel(tt.in); got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestFieldChaining(t *testing.T) {
	// The default logger writes to stderr; the point here is that field
	// application and chaining never panic.
	Info().
		Add(RunID("run-1")).
		Add(Algorithm("BestOfN")).
		Add(Iteration(2)).
		Add(Depth(1)).
		Add(Score(73.5)).
		Add(Provider("mock")).
		Add(Step("verification")).
		Add(Str("extra", "value")).
		Add(Err(errors.New("boom"))).
		Msg("field chaining")
}

func TestGetInitializesOnce(t *testing.T) {
	first := Get()
	second := Get()
	if first != second {
		t.Error("Get returned different loggers")
	}
}
