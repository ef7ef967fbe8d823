package commands

import (
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/leapstack-labs/leappivot/internal/cli/config"
	"github.com/leapstack-labs/leappivot/internal/cli/output"
	"github.com/leapstack-labs/leappivot/internal/engine"
	"github.com/leapstack-labs/leappivot/pkg/pivot"
	"github.com/spf13/cobra"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Engine   *engine.Engine
	Renderer *output.Renderer
}

// NewCommandContext creates a CommandContext with engine and renderer.
// Returns the context and a cleanup function that must be called (typically via defer).
func NewCommandContext(cmd *cobra.Command) (*CommandContext, func(), error) {
	cfg := getConfig()
	logger := config.GetLogger(cmd.Context())

	eng, err := engine.New(cmd.Context(), engine.Config{
		Database: cfg.Database,
		Sheet:    cfg.Sheet,
		Logger:   logger,
	})
	if err != nil {
		return nil, nil, err
	}

	cleanup := func() {
		_ = eng.Close()
	}

	return &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Engine:   eng,
		Renderer: newRenderer(cmd, cfg),
	}, cleanup, nil
}

// Helper functions shared across commands

// getConfig returns the current configuration, or defaults when the root
// command's config loading was skipped (as in unit tests of a subcommand).
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}
	return &config.Config{
		OutputFormat: config.DefaultOutput,
		HistoryFile:  config.DefaultHistoryFile,
	}
}

func newRenderer(cmd *cobra.Command, cfg *config.Config) *output.Renderer {
	mode, err := output.ParseMode(cfg.OutputFormat)
	if err != nil {
		mode = output.ModeAuto
	}
	return output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode)
}

// splitList parses comma-separated column names, dropping blanks.
func splitList(s string) []string {
	var names []string
	for _, part := range strings.Split(s, ",") {
		if name := strings.TrimSpace(part); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// orDefault returns names, or fallback when names is empty.
func orDefault(names, fallback []string) []string {
	if len(names) > 0 {
		return names
	}
	return fallback
}

// parseFill converts fill text to a number. Empty text means no fill.
func parseFill(s string) (any, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("%w: fill value must be a finite number, got %q", pivot.ErrInvalidType, s)
	}
	return f, nil
}

// buildOptions combines explicit column references with configured defaults.
func buildOptions(cfg *config.Config, index, columns, values []string, fill string) (pivot.Options, error) {
	f, err := parseFill(fill)
	if err != nil {
		return pivot.Options{}, err
	}
	opts := pivot.Options{Fill: f}
	if names := orDefault(index, cfg.Defaults.Index); len(names) > 0 {
		opts.Index = names
	}
	if names := orDefault(columns, cfg.Defaults.Columns); len(names) > 0 {
		opts.Columns = names
	}
	if names := orDefault(values, cfg.Defaults.Values); len(names) > 0 {
		opts.Values = names
	}
	return opts, nil
}
