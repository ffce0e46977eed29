package export

import "fmt"

// Table is an ordered tabular dataset ready for rendering. Rows must be as
// wide as Columns.
type Table struct {
	Title   string
	Columns []string
	Rows    [][]string
}

func (t Table) validate() error {
	if len(t.Columns) == 0 {
		return fmt.Errorf("export table has no columns")
	}
	for i, row := range t.Rows {
		if len(row) != len(t.Columns) {
			return fmt.Errorf("export table row %d has %d cells, want %d", i, len(row), len(t.Columns))
		}
	}
	return nil
}
