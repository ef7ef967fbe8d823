package commands

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/leapstack-labs/leappivot/internal/cli/output"
	"github.com/leapstack-labs/leappivot/pkg/pivot"
	datatable "github.com/leapstack-labs/leappivot/pkg/table"
	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// InspectOutput is the JSON/YAML representation of the inspect command.
type InspectOutput struct {
	Path          string       `json:"path" yaml:"path"`
	Rows          int          `json:"rows" yaml:"rows"`
	Columns       []ColumnInfo `json:"columns" yaml:"columns"`
	Defaults      *pivot.Spec  `json:"defaults,omitempty" yaml:"defaults,omitempty"`
	DefaultsError string       `json:"defaults_error,omitempty" yaml:"defaults_error,omitempty"`
}

// ColumnInfo describes one input column.
type ColumnInfo struct {
	Name string `json:"name" yaml:"name"`
	Type string `json:"type" yaml:"type"`
	Kind string `json:"kind" yaml:"kind"`
}

// NewInspectCommand creates the inspect command.
func NewInspectCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <file>",
		Short: "Show columns, their kinds and the default pivot",
		Long: `Read a data file and list its columns with their declared types and
whether each counts as numeric or categorical, followed by the pivot that
"leappivot pivot" would build without any column flags.`,
		Example: `  leappivot inspect titanic.csv
  leappivot inspect sales.xlsx --sheet Q3 -o json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(cmd, args[0])
		},
	}
}

func runInspect(cmd *cobra.Command, path string) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	t, err := cmdCtx.Engine.Read(cmd.Context(), path)
	if err != nil {
		return err
	}

	out := newInspectOutput(path, t)
	r := cmdCtx.Renderer
	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(out)
	case output.ModeYAML:
		return r.YAML(out)
	case output.ModeCSV:
		return renderInspectCSV(r, out)
	case output.ModeMarkdown:
		return renderInspectMarkdown(r, out)
	default:
		return renderInspectText(r, out)
	}
}

func newInspectOutput(path string, t *datatable.Table) *InspectOutput {
	titleCaser := cases.Title(language.English)

	out := &InspectOutput{Path: path, Rows: t.NumRows()}
	for _, c := range t.Columns {
		out.Columns = append(out.Columns, ColumnInfo{
			Name: c.Name,
			Type: c.Type,
			Kind: titleCaser.String(c.Kind().String()),
		})
	}

	spec, err := pivot.Resolve(t, pivot.Options{})
	if err != nil {
		out.DefaultsError = err.Error()
	} else {
		out.Defaults = spec
	}
	return out
}

// inspectTable lists the columns as a table of name, type and kind.
func inspectTable(out *InspectOutput) (*datatable.Table, error) {
	var names, types, kinds []string
	for _, c := range out.Columns {
		names = append(names, c.Name)
		types = append(types, c.Type)
		kinds = append(kinds, c.Kind)
	}
	return datatable.New(
		datatable.NewCategorical("column", names...),
		datatable.NewCategorical("type", types...),
		datatable.NewCategorical("kind", kinds...),
	)
}

func renderInspectCSV(r *output.Renderer, out *InspectOutput) error {
	t, err := inspectTable(out)
	if err != nil {
		return err
	}
	return r.Table(t)
}

func renderInspectText(r *output.Renderer, out *InspectOutput) error {
	styles := r.Styles()

	r.Header(1, out.Path)
	r.Muted(fmt.Sprintf("%d rows, %d columns", out.Rows, len(out.Columns)))
	r.Println("")

	tw := table.NewWriter()
	tw.SetOutputMirror(r.Writer())
	tw.SetStyle(table.StyleLight)
	tw.AppendHeader(table.Row{"Column", "Type", "Kind"})
	for _, c := range out.Columns {
		kind := c.Kind
		if strings.EqualFold(kind, datatable.Numeric.String()) {
			kind = styles.Numeric.Render(kind)
		}
		tw.AppendRow(table.Row{c.Name, c.Type, kind})
	}
	tw.Render()
	r.Println("")

	r.Header(2, "Default pivot")
	if out.Defaults == nil {
		r.Println(styles.Warning.Render("   " + out.DefaultsError))
		return nil
	}
	r.Printf("   %s\n", out.Defaults.String())
	return nil
}

func renderInspectMarkdown(r *output.Renderer, out *InspectOutput) error {
	r.Header(1, out.Path)
	r.Printf("%d rows, %d columns\n\n", out.Rows, len(out.Columns))

	t, err := inspectTable(out)
	if err != nil {
		return err
	}
	if err := r.Table(t); err != nil {
		return err
	}

	r.Header(2, "Default pivot")
	if out.Defaults == nil {
		r.Printf("- **Unavailable**: %s\n", out.DefaultsError)
		return nil
	}
	r.Printf("- **Index**: %s\n", strings.Join(out.Defaults.Index, ", "))
	if len(out.Defaults.Columns) > 0 {
		r.Printf("- **Columns**: %s\n", strings.Join(out.Defaults.Columns, ", "))
	}
	r.Printf("- **Values**: %s\n", strings.Join(out.Defaults.Values, ", "))
	return nil
}
