package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/agentic-research/fsbuild/api"
	"github.com/agentic-research/fsbuild/internal/config"
	"github.com/agentic-research/fsbuild/internal/content"
	"github.com/agentic-research/fsbuild/internal/describe"
	"github.com/agentic-research/fsbuild/internal/logging"
	"github.com/agentic-research/fsbuild/internal/loop"
	"github.com/agentic-research/fsbuild/internal/materialize"
	"github.com/agentic-research/fsbuild/internal/sink"
	"github.com/spf13/cobra"
)

var (
	configPath string
	verbose    bool
	logFormat  string

	// Shared by the commands that take them.
	outputDir     string
	maxIterations int
	inputs        map[string]int64
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to a JSON or YAML config file")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Log every created directory and written file")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", string(logging.FormatAuto), "Log format: auto, text or json")
}

var rootCmd = &cobra.Command{
	Use:           "fsbuild",
	Short:         "fsbuild: declarative file tree generator",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "fsbuild:", err)
		os.Exit(1)
	}
}

func addOutputFlag(c *cobra.Command) {
	c.Flags().StringVarP(&outputDir, "output", "o", ".", "Output directory")
}

func addMaxIterationsFlag(c *cobra.Command) {
	c.Flags().IntVar(&maxIterations, "max-iterations", 0,
		fmt.Sprintf("Iteration cap per loop (default from config, else %d)", loop.DefaultMaxIterations))
}

func addVarFlag(c *cobra.Command) {
	c.Flags().StringToInt64Var(&inputs, "var", nil, "Value for a stdin declaration, as name=N (repeatable)")
}

func newLogger(c *cobra.Command) (*slog.Logger, error) {
	switch f := logging.Format(logFormat); f {
	case logging.FormatAuto, logging.FormatText, logging.FormatJSON:
		return logging.New(c.ErrOrStderr(), logging.Config{Verbose: verbose, Format: f}), nil
	}
	return nil, fmt.Errorf("unknown log format %q", logFormat)
}

func loadConfig() (*config.Config, error) {
	if configPath == "" {
		return config.Empty(), nil
	}
	return config.Load(configPath)
}

// load reads the configuration and the description at input.
func load(input string) (*config.Config, *api.Description, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	desc, err := describe.Load(input, cfg.FileDefaults())
	if err != nil {
		return nil, nil, err
	}
	return cfg, desc, nil
}

// newEngine wires an engine for s. The --max-iterations flag wins over
// the config file.
func newEngine(s sink.Sink, cfg *config.Config, log *slog.Logger) (*materialize.Engine, error) {
	if maxIterations < 0 {
		return nil, fmt.Errorf("--max-iterations must not be negative")
	}
	resolver, err := content.NewResolver(cfg)
	if err != nil {
		return nil, err
	}
	limit := maxIterations
	if limit == 0 {
		limit = cfg.MaxIterations()
	}
	eng := materialize.NewEngine(s)
	eng.Loops = loop.NewEvaluator(limit)
	eng.Content = resolver
	eng.Inputs = inputs
	eng.Logger = log
	return eng, nil
}
