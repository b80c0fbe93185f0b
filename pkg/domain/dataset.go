package domain

import (
	"github.com/tabweave/tabweave/pkg/utils/slices"
)

// Dataset is a table of rows with named columns.
//
// Cells are kept as raw strings as they came from the upstream store;
// typing is the schema's concern, not the dataset's.
type Dataset struct {
	// Source names where this dataset came from (collection, table, or "request").
	Source string

	// Columns are the column names, in upstream order.
	Columns []string

	// Rows hold one cell per column, aligned with Columns.
	Rows [][]string
}

func (d *Dataset) Len() int {
	return len(d.Rows)
}

// ColumnIndex finds the position of a named column.
func (d *Dataset) ColumnIndex(name string) (int, bool) {
	for nth, c := range d.Columns {
		if c == name {
			return nth, true
		}
	}
	return -1, false
}

// Column extracts the cells of a named column.
func (d *Dataset) Column(name string) ([]string, bool) {
	nth, ok := d.ColumnIndex(name)
	if !ok {
		return nil, false
	}
	return slices.Map(d.Rows, func(row []string) string { return row[nth] }), true
}

// NewDatasetFromRecords builds a Dataset from loosely-keyed records,
// like rows deserialized from a JSON request body.
//
// The column set is the union of all record keys, sorted.
// Keys missing from a record become empty cells.
func NewDatasetFromRecords(source string, records []map[string]string) *Dataset {
	keys := map[string]struct{}{}
	for _, r := range records {
		for k := range r {
			keys[k] = struct{}{}
		}
	}

	columns := slices.KeysOf(keys)
	rows := slices.Map(records, func(r map[string]string) []string {
		return slices.Map(columns, func(c string) string { return r[c] })
	})

	return &Dataset{Source: source, Columns: columns, Rows: rows}
}
