package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoader_LoadStringYAML(t *testing.T) {
	content := `
provider:
  name: openai
  model: gpt-4o
  api_key: sk-test
algorithms:
  default: rebase
  rebase:
    max_iterations: 7
`
	cfg, err := NewLoader().LoadString(content, FormatYAML)
	if err != nil {
		t.Fatalf("LoadString failed: %v", err)
	}

	if cfg.Provider.Name != "openai" || cfg.Provider.Model != "gpt-4o" {
		t.Errorf("provider = %+v", cfg.Provider)
	}
	if cfg.Algorithms.Default != "rebase" {
		t.Errorf("default algorithm = %q, want rebase", cfg.Algorithms.Default)
	}
	if cfg.Algorithms.REBASE.MaxIterations != 7 {
		t.Errorf("max_iterations = %d, want 7", cfg.Algorithms.REBASE.MaxIterations)
	}

	// Absent keys keep their defaults.
	if cfg.Algorithms.BestOfN.NumPlans != 5 {
		t.Errorf("num_plans = %d, want the default 5", cfg.Algorithms.BestOfN.NumPlans)
	}
	if cfg.Storage.Cache.TTL != time.Hour {
		t.Errorf("cache ttl = %v, want the default 1h", cfg.Storage.Cache.TTL)
	}
}

func TestLoader_LoadStringJSON(t *testing.T) {
	content := `{"provider": {"name": "anthropic", "model": "claude-sonnet-4-5", "api_key": "sk-test"}}`

	cfg, err := NewLoader().LoadString(content, FormatJSON)
	if err != nil {
		t.Fatalf("LoadString failed: %v", err)
	}
	if cfg.Provider.Name != "anthropic" {
		t.Errorf("provider name = %q, want anthropic", cfg.Provider.Name)
	}
}

func TestLoader_EnvExpansion(t *testing.T) {
	t.Setenv("PLANSEARCH_TEST_KEY", "sk-from-env")

	content := `
provider:
  name: openai
  model: ${PLANSEARCH_TEST_MODEL:-gpt-4o}
  api_key: ${PLANSEARCH_TEST_KEY}
`
	cfg, err := NewLoader().LoadString(content, FormatYAML)
	if err != nil {
		t.Fatalf("LoadString failed: %v", err)
	}
	if cfg.Provider.APIKey != "sk-from-env" {
		t.Errorf("api_key = %q, want the env value", cfg.Provider.APIKey)
	}
	if cfg.Provider.Model != "gpt-4o" {
		t.Errorf("model = %q, want the :- default", cfg.Provider.Model)
	}
}

func TestLoader_StrictEnvFailsOnMissing(t *testing.T) {
	content := `
provider:
  name: openai
  model: gpt-4o
  api_key: ${PLANSEARCH_DEFINITELY_UNSET}
`
	loader := NewLoaderWithOptions(WithStrictEnv(true))
	if _, err := loader.LoadString(content, FormatYAML); !errors.Is(err, ErrMissingEnvVar) {
		t.Errorf("err = %v, want ErrMissingEnvVar", err)
	}
}

func TestLoader_ValidationFailure(t *testing.T) {
	content := `
provider:
  name: replicate
  model: ""
`
	_, err := NewLoader().LoadString(content, FormatYAML)
	if !errors.Is(err, ErrValidationFailed) {
		t.Fatalf("err = %v, want ErrValidationFailed", err)
	}

	// Validation can be switched off for partial configs.
	if _, err := NewLoaderWithOptions(WithValidation(false)).LoadString(content, FormatYAML); err != nil {
		t.Errorf("load without validation failed: %v", err)
	}
}

func TestLoader_LoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte("provider:\n  name: ollama\n  model: llama3\n")
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := NewLoader().LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if cfg.Provider.Name != "ollama" {
		t.Errorf("provider name = %q", cfg.Provider.Name)
	}
}

func TestLoader_LoadFileErrors(t *testing.T) {
	loader := NewLoader()

	if _, err := loader.LoadFile(filepath.Join(t.TempDir(), "absent.yaml")); !errors.Is(err, ErrConfigNotFound) {
		t.Errorf("missing file err = %v, want ErrConfigNotFound", err)
	}

	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("x = 1"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := loader.LoadFile(path); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("unknown extension err = %v, want ErrUnsupportedFormat", err)
	}

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(bad, []byte("provider: [unclosed"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := loader.LoadFile(bad); !errors.Is(err, ErrInvalidFormat) {
		t.Errorf("malformed yaml err = %v, want ErrInvalidFormat", err)
	}
}

func TestDefaultConfigIsValid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestValidateJoinsAllProblems(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Provider.Name = "replicate"
	cfg.Logging.Level = "verbose"
	cfg.Storage.TraceBackend = "badger" // without a data dir

	err := cfg.Validate()
	if !errors.Is(err, ErrValidationFailed) {
		t.Fatalf("err = %v, want ErrValidationFailed", err)
	}
	for _, want := range []string{"provider.name", "logging.level", "storage.badger_dir"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q missing %q", err.Error(), want)
		}
	}
}
