package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/leapstack-labs/leappivot/internal/engine"
	"github.com/spf13/cobra"
)

// PivotOptions holds options for the pivot command.
type PivotOptions struct {
	Index   []string
	Columns []string
	Values  []string
	Fill    string
	Out     string
	Watch   bool
}

// NewPivotCommand creates the pivot command.
func NewPivotCommand() *cobra.Command {
	opts := &PivotOptions{}

	cmd := &cobra.Command{
		Use:   "pivot <file>",
		Short: "Build a mean pivot table from a data file",
		Long: `Read a table from a CSV, TSV, Parquet, JSON, Excel or SQLite file and
aggregate it into a pivot table of arithmetic means.

Columns not given on the command line (or under defaults in leappivot.yaml)
are picked from the column types:
  - values:  the last numeric column
  - index:   the last categorical column
  - columns: the second-to-last categorical column, if there is one`,
		Example: `  # Let leappivot choose every column
  leappivot pivot titanic.csv

  # Mean fare per port and sex, missing cells filled with 0
  leappivot pivot titanic.csv -i Embarked -c Sex -a Fare --fill 0

  # Several columns, comma-separated or repeated
  leappivot pivot sales.xlsx -i region,quarter -a revenue -a units

  # Save the result and keep it fresh while the input changes
  leappivot pivot titanic.csv --out fares.parquet --watch`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPivot(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringSliceVarP(&opts.Index, "index", "i", nil, "Row grouping columns")
	cmd.Flags().StringSliceVarP(&opts.Columns, "columns", "c", nil, "Column grouping columns")
	cmd.Flags().StringSliceVarP(&opts.Values, "values", "a", nil, "Columns to average")
	cmd.Flags().StringVar(&opts.Fill, "fill", "", "Numeric value for empty cells")
	cmd.Flags().StringVar(&opts.Out, "out", "", "Write the pivot to this file (format from extension)")
	cmd.Flags().BoolVarP(&opts.Watch, "watch", "w", false, "Re-run whenever the input file changes")

	return cmd
}

func runPivot(cmd *cobra.Command, input string, opts *PivotOptions) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	cfg := cmdCtx.Cfg
	fill := cfg.Fill
	if cmd.Flags().Changed("fill") {
		fill = opts.Fill
	}

	pivotOpts, err := buildOptions(cfg, opts.Index, opts.Columns, opts.Values, fill)
	if err != nil {
		return err
	}
	req := engine.Request{Input: input, Output: opts.Out, Options: pivotOpts}

	if !opts.Watch {
		res, err := cmdCtx.Engine.Run(cmd.Context(), req)
		if err != nil {
			return err
		}
		return renderPivot(cmdCtx.Renderer, res)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()
	return watchPivot(ctx, cmdCtx, req)
}

func watchPivot(ctx context.Context, cmdCtx *CommandContext, req engine.Request) error {
	r := cmdCtx.Renderer
	return cmdCtx.Engine.Watch(ctx, req, func(res *engine.Result, err error) {
		if err != nil {
			r.Error(err.Error())
			return
		}
		if err := renderPivot(r, res); err != nil {
			r.Error(fmt.Sprintf("failed to render pivot: %v", err))
		}
	})
}
