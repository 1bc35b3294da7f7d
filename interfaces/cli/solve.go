package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/plansearch-go/application"
	"github.com/felixgeelhaar/plansearch-go/infrastructure/config"
	"github.com/felixgeelhaar/plansearch-go/infrastructure/logging"
	"github.com/felixgeelhaar/plansearch-go/infrastructure/telemetry"
	"github.com/felixgeelhaar/plansearch-go/infrastructure/visualization"
)

// solveOptions holds options for the solve command.
type solveOptions struct {
	configPath string
	algorithm  string
	graphPath  string
	jsonOutput bool
	stream     bool
	timeout    time.Duration
}

// newSolveCmd creates the solve command.
func (a *App) newSolveCmd() *cobra.Command {
	opts := &solveOptions{}

	cmd := &cobra.Command{
		Use:   "solve [problem]",
		Short: "Search for the best plan solving a problem",
		Long: `Search for the best plan solving the given problem statement.

The problem is read from the argument, or from stdin when no argument
is given.

Examples:
  # Solve with the default configuration (ollama, best-of-N)
  plansearch solve "Schedule a meeting for 6 people across 3 time zones"

  # Use a config file and a specific strategy
  plansearch solve -c config.yaml --algorithm tree_of_thought "..."

  # Stream progress events and export the search graph
  plansearch solve --stream --graph search.json "..."`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			problem, err := readProblem(args, cmd.InOrStdin())
			if err != nil {
				return err
			}
			return a.solve(cmd.Context(), opts, problem)
		},
	}

	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "Path to configuration file")
	cmd.Flags().StringVar(&opts.algorithm, "algorithm", "", "Algorithm kind (best_of_n, tree_of_thought, rebase, mixture)")
	cmd.Flags().StringVar(&opts.graphPath, "graph", "", "Write the search graph as JSON to this path")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Output the result as JSON")
	cmd.Flags().BoolVar(&opts.stream, "stream", false, "Print progress events as they happen")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 0, "Overall run timeout")

	return cmd
}

// readProblem takes the problem from the argument or stdin.
func readProblem(args []string, stdin io.Reader) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("failed to read problem from stdin: %w", err)
	}
	problem := strings.TrimSpace(string(data))
	if problem == "" {
		return "", fmt.Errorf("no problem statement given (argument or stdin)")
	}
	return problem, nil
}

// loadConfig loads the config file or falls back to defaults.
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.DefaultConfig(), nil
	}
	return config.NewLoader().LoadFile(path)
}

// solve runs one search and prints the result.
func (a *App) solve(ctx context.Context, opts *solveOptions, problem string) error {
	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		return err
	}

	logging.Init(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format, Output: os.Stderr})

	var metrics telemetry.Metrics = &telemetry.NoopMetricsProvider{}
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.Init(ctx, cfg.Telemetry.ServiceName)
		if err != nil {
			return fmt.Errorf("failed to initialize telemetry: %w", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = shutdown(shutdownCtx)
		}()
		metrics = telemetry.NewMetricsProvider(telemetry.DefaultMetricsConfig())
	}

	built, err := buildEngine(ctx, cfg, metrics)
	if err != nil {
		return err
	}
	defer built.close()

	if opts.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.timeout)
		defer cancel()
	}

	kind := opts.algorithm
	if kind == "" {
		kind = cfg.Algorithms.Default
	}

	var recorder *visualization.GraphRecorder
	if opts.graphPath != "" {
		recorder = visualization.NewGraphRecorder()
	}

	result, err := a.runSearch(ctx, built.engine, problem, kind, opts.stream, recorder)
	if err != nil {
		return err
	}

	if recorder != nil {
		if err := recorder.WriteFile(opts.graphPath); err != nil {
			return err
		}
		fmt.Fprintf(a.stderr, "search graph written to %s\n", opts.graphPath)
	}

	return a.printResult(result, opts.jsonOutput)
}

// runSearch executes the run, streaming events when requested.
func (a *App) runSearch(ctx context.Context, engine *application.Engine, problem, kind string, stream bool, recorder *visualization.GraphRecorder) (application.SolveResult, error) {
	if !stream && recorder == nil {
		return engine.SolveWith(ctx, problem, kind)
	}

	events, outcome, err := engine.SolveStream(ctx, problem, kind)
	if err != nil {
		return application.SolveResult{}, err
	}
	for e := range events {
		if recorder != nil {
			recorder.Update(e)
		}
		if stream {
			fmt.Fprintf(a.stderr, "[%s] %s\n", e.AlgorithmType(), e.Lifecycle())
		}
	}
	out := <-outcome
	return out.Result, out.Err
}

// printResult writes the final plan to stdout.
func (a *App) printResult(result application.SolveResult, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(a.stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{
			"run_id":     result.RunID,
			"algorithm":  result.Algorithm,
			"best_plan":  result.Result.BestPlan,
			"best_score": result.Result.BestScore,
			"metadata":   result.Result.Metadata,
		})
	}

	fmt.Fprintf(a.stdout, "%s\n", result.Result.BestPlan)
	fmt.Fprintf(a.stderr, "\nscore: %.1f  algorithm: %s  run: %s\n", result.Result.BestScore, result.Algorithm, result.RunID)
	return nil
}

// newAlgorithmsCmd lists the available algorithm kinds.
func (a *App) newAlgorithmsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "algorithms",
		Short: "List the available search strategies",
		Run: func(cmd *cobra.Command, args []string) {
			for _, kind := range application.Kinds() {
				fmt.Fprintln(a.stdout, kind)
			}
		},
	}
}

// newValidateCmd validates a configuration file.
func (a *App) newValidateCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.NewLoader().LoadFile(configPath)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "Configuration valid: provider=%s model=%s default=%s\n",
				cfg.Provider.Name, cfg.Provider.Model, cfg.Algorithms.Default)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to configuration file (required)")
	_ = cmd.MarkFlagRequired("config")

	return cmd
}
