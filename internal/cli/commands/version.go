package commands

import (
	"fmt"

	"github.com/leapstack-labs/leappivot/internal/cli/output"
	"github.com/spf13/cobra"
)

// BuildInfo identifies the running binary. Fields are set at build time.
type BuildInfo struct {
	Version   string `json:"version" yaml:"version"`
	GitCommit string `json:"git_commit" yaml:"git_commit"`
	BuildDate string `json:"build_date" yaml:"build_date"`
}

// NewVersionCommand creates the version command.
func NewVersionCommand(info BuildInfo) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long: `Display the LeapPivot version, the commit it was built from and the build date.
With --output json or yaml the same fields are printed for scripts.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			r := newRenderer(cmd, getConfig())
			switch r.EffectiveMode() {
			case output.ModeJSON:
				return r.JSON(info)
			case output.ModeYAML:
				return r.YAML(info)
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "LeapPivot v%s\n", info.Version)
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "commit %s, built %s\n", info.GitCommit, info.BuildDate)
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Mean pivot tables built with Go and DuckDB")
			return nil
		},
	}
}
