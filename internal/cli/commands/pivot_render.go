package commands

import (
	"strings"

	"github.com/leapstack-labs/leappivot/internal/cli/output"
	"github.com/leapstack-labs/leappivot/internal/engine"
	"github.com/leapstack-labs/leappivot/pkg/pivot"
)

// PivotOutput is the JSON/YAML representation of a pivot result.
type PivotOutput struct {
	Spec   *pivot.Spec      `json:"spec" yaml:"spec"`
	Output string           `json:"output,omitempty" yaml:"output,omitempty"`
	Table  output.TableData `json:"table" yaml:"table"`
}

func renderPivot(r *output.Renderer, res *engine.Result) error {
	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(newPivotOutput(res))
	case output.ModeYAML:
		return r.YAML(newPivotOutput(res))
	case output.ModeCSV:
		return r.Table(res.Table)
	case output.ModeMarkdown:
		return renderPivotMarkdown(r, res)
	default:
		return renderPivotText(r, res)
	}
}

func newPivotOutput(res *engine.Result) PivotOutput {
	return PivotOutput{
		Spec:   res.Spec,
		Output: res.Output,
		Table:  output.NewTableData(res.Table),
	}
}

func renderPivotText(r *output.Renderer, res *engine.Result) error {
	styles := r.Styles()

	r.Header(1, "Pivot: mean of "+strings.Join(res.Spec.Values, ", "))
	r.Printf("%s %s\n", styles.Label.Render("Index:  "), strings.Join(res.Spec.Index, ", "))
	if len(res.Spec.Columns) > 0 {
		r.Printf("%s %s\n", styles.Label.Render("Columns:"), strings.Join(res.Spec.Columns, ", "))
	}
	if res.Spec.Fill != nil {
		r.Printf("%s %g\n", styles.Label.Render("Fill:   "), *res.Spec.Fill)
	}
	r.Println("")

	if err := r.Table(res.Table); err != nil {
		return err
	}
	if res.Output != "" {
		r.Success("Saved to " + res.Output)
	}
	return nil
}

func renderPivotMarkdown(r *output.Renderer, res *engine.Result) error {
	r.Header(1, "Pivot: mean of "+strings.Join(res.Spec.Values, ", "))
	r.Printf("- **Index**: %s\n", strings.Join(res.Spec.Index, ", "))
	if len(res.Spec.Columns) > 0 {
		r.Printf("- **Columns**: %s\n", strings.Join(res.Spec.Columns, ", "))
	}
	if res.Spec.Fill != nil {
		r.Printf("- **Fill**: %g\n", *res.Spec.Fill)
	}
	r.Println("")

	if err := r.Table(res.Table); err != nil {
		return err
	}
	if res.Output != "" {
		r.Printf("Saved to `%s`\n", res.Output)
	}
	return nil
}
