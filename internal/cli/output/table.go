package output

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	datatable "github.com/leapstack-labs/leappivot/pkg/table"
)

// TableData is the machine-readable form of a table: ordered column names
// and one object per row.
type TableData struct {
	Columns []string         `json:"columns" yaml:"columns"`
	Rows    []map[string]any `json:"rows" yaml:"rows"`
}

// NewTableData converts t for JSON and YAML output. Missing cells become null.
func NewTableData(t *datatable.Table) TableData {
	data := TableData{Columns: t.Names(), Rows: make([]map[string]any, t.NumRows())}
	for i := range data.Rows {
		row := make(map[string]any, t.NumCols())
		for j, v := range t.Row(i) {
			row[data.Columns[j]] = v
		}
		data.Rows[i] = row
	}
	return data
}

// Table renders t in the effective mode.
func (r *Renderer) Table(t *datatable.Table) error {
	switch r.EffectiveMode() {
	case ModeJSON:
		return r.JSON(NewTableData(t))
	case ModeYAML:
		return r.YAML(NewTableData(t))
	}

	tw := table.NewWriter()
	tw.SetOutputMirror(r.w)

	header := make(table.Row, t.NumCols())
	var configs []table.ColumnConfig
	for j, c := range t.Columns {
		header[j] = c.Name
		if c.Kind() == datatable.Numeric {
			configs = append(configs, table.ColumnConfig{Number: j + 1, Align: text.AlignRight})
		}
	}
	tw.AppendHeader(header)
	tw.SetColumnConfigs(configs)

	mode := r.EffectiveMode()
	for i := 0; i < t.NumRows(); i++ {
		row := make(table.Row, t.NumCols())
		for j, v := range t.Row(i) {
			row[j] = cellText(v, mode)
		}
		tw.AppendRow(row)
	}

	switch mode {
	case ModeCSV:
		tw.RenderCSV()
	case ModeMarkdown:
		tw.RenderMarkdown()
		r.Println("")
	default:
		tw.SetStyle(table.StyleLight)
		tw.Style().Format.Header = text.FormatDefault
		tw.Render()
		r.Muted(fmt.Sprintf("(%d rows)", t.NumRows()))
	}
	return nil
}

// cellText formats a cell. Missing values are blank in CSV and NULL elsewhere.
func cellText(v any, mode Mode) string {
	if v == nil {
		if mode == ModeCSV {
			return ""
		}
		return "NULL"
	}
	return datatable.FormatValue(v)
}
