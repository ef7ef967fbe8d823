package source

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/leapstack-labs/leappivot/pkg/table"
	"github.com/xuri/excelize/v2"
)

// readExcel loads one worksheet. Row 1 holds the column names; a column is
// numeric when every non-empty cell parses as a number and none carries a
// date or time number format. Date columns are categorical and hold the
// date as text.
func readExcel(path, sheet string) (*table.Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	if sheet == "" {
		sheet = sheets[0]
	} else if !slices.Contains(sheets, sheet) {
		return nil, fmt.Errorf("sheet %q not found (available: %s)", sheet, strings.Join(sheets, ", "))
	}

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return table.New()
	}

	header := rows[0]
	body := rows[1:]
	width := len(header)
	for _, r := range body {
		width = max(width, len(r))
	}

	dates := newDateCells(f, sheet)

	cols := make([]*table.Column, width)
	for j := range cols {
		name := ""
		if j < len(header) {
			name = strings.TrimSpace(header[j])
		}
		if name == "" {
			name = "column" + strconv.Itoa(j+1)
		}

		raw := make([]string, len(body))
		for i, r := range body {
			if j < len(r) {
				raw[i] = r[j]
			}
		}
		if col, ok := dates.column(name, j, raw); ok {
			cols[j] = col
			continue
		}
		cols[j] = excelColumn(name, raw)
	}

	return table.New(cols...)
}

func excelColumn(name string, raw []string) *table.Column {
	numeric := true
	for _, s := range raw {
		if s == "" {
			continue
		}
		if _, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err != nil {
			numeric = false
			break
		}
	}

	values := make([]any, len(raw))
	if numeric {
		for i, s := range raw {
			if v, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil && s != "" {
				values[i] = v
			}
		}
		return &table.Column{Name: name, Type: "DOUBLE", Values: values}
	}
	for i, s := range raw {
		if s != "" {
			values[i] = s
		}
	}
	return &table.Column{Name: name, Type: "VARCHAR", Values: values}
}

// dateCells recognizes cells whose number format renders a date or time.
type dateCells struct {
	f        *excelize.File
	sheet    string
	date1904 bool
	styles   map[int]bool
}

func newDateCells(f *excelize.File, sheet string) *dateCells {
	d := &dateCells{f: f, sheet: sheet, styles: map[int]bool{}}
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		d.date1904 = *props.Date1904
	}
	return d
}

// column converts column j to date text when any of its numeric cells is
// date-formatted. Other cells keep their raw text.
func (d *dateCells) column(name string, j int, raw []string) (*table.Column, bool) {
	values := make([]any, len(raw))
	found := false
	for i, s := range raw {
		if s == "" {
			continue
		}
		values[i] = s
		serial, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil || !d.isDate(j+1, i+2) {
			continue
		}
		when, err := excelize.ExcelDateToTime(serial, d.date1904)
		if err != nil {
			continue
		}
		values[i] = table.FormatValue(when)
		found = true
	}
	if !found {
		return nil, false
	}
	return &table.Column{Name: name, Type: "VARCHAR", Values: values}, true
}

func (d *dateCells) isDate(col, row int) bool {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return false
	}
	idx, err := d.f.GetCellStyle(d.sheet, cell)
	if err != nil || idx == 0 {
		return false
	}
	if isDate, ok := d.styles[idx]; ok {
		return isDate
	}
	isDate := false
	if style, err := d.f.GetStyle(idx); err == nil {
		isDate = isDateFormat(style.NumFmt, style.CustomNumFmt)
	}
	d.styles[idx] = isDate
	return isDate
}

// isDateFormat reports whether a built-in format id or custom format code
// renders a date or time.
func isDateFormat(id int, custom *string) bool {
	switch {
	case id >= 14 && id <= 22, id >= 27 && id <= 36, id >= 45 && id <= 47, id >= 50 && id <= 58:
		return true
	}
	return custom != nil && isDateCode(*custom)
}

// isDateCode looks for date or time tokens outside quoted text, escapes and
// bracketed sections such as [Red] or [$-409].
func isDateCode(code string) bool {
	inQuote, inBracket := false, false
	for i := 0; i < len(code); i++ {
		c := code[i]
		switch {
		case inQuote:
			inQuote = c != '"'
		case inBracket:
			inBracket = c != ']'
		case c == '"':
			inQuote = true
		case c == '[':
			inBracket = true
		case c == '\\' || c == '_' || c == '*':
			i++
		case strings.ContainsRune("yYmMdDhHsS", rune(c)):
			return true
		}
	}
	return false
}

// writeExcel stores t on the first sheet of a new workbook.
func writeExcel(t *table.Table, path string) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(0)
	header := make([]any, t.NumCols())
	for j, name := range t.Names() {
		header[j] = name
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i := 0; i < t.NumRows(); i++ {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := t.Row(i)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}
