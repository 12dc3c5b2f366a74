package models

// Table is a rectangular view of an HTML table: one header row plus body rows.
// Spanned cells are already expanded, so every row has len(Headers) cells.
type Table struct {
	Headers []string   `json:"headers,omitempty" yaml:"headers,omitempty"`
	Rows    [][]string `json:"rows" yaml:"rows"`
}

// DropColumn returns a copy of the table without column idx.
func (t *Table) DropColumn(idx int) *Table {
	if idx < 0 || idx >= len(t.Headers) {
		return t
	}
	out := &Table{
		Headers: without(t.Headers, idx),
		Rows:    make([][]string, 0, len(t.Rows)),
	}
	for _, row := range t.Rows {
		if idx < len(row) {
			row = without(row, idx)
		}
		out.Rows = append(out.Rows, row)
	}
	return out
}

func without(s []string, idx int) []string {
	out := make([]string, 0, len(s)-1)
	out = append(out, s[:idx]...)
	return append(out, s[idx+1:]...)
}
