package core

import (
	"sort"
	"strconv"
	"strings"
)

// Table is an ordered collection of named text columns with a fixed row
// count. Values stay strings until an operation coerces them; column order
// matters for output but not for grouping or filtering.
type Table struct {
	columns []string
	data    map[string][]string
	rows    int
}

// NewTable creates an empty table with the given column order. Duplicate
// column names keep their first position.
func NewTable(columns []string) *Table {
	t := &Table{data: make(map[string][]string, len(columns))}
	for _, c := range columns {
		if _, ok := t.data[c]; ok {
			continue
		}
		t.columns = append(t.columns, c)
		t.data[c] = nil
	}
	return t
}

// Columns returns the column names in order. The returned slice is shared;
// callers must not modify it.
func (t *Table) Columns() []string {
	return t.columns
}

// NumRows returns the row count.
func (t *Table) NumRows() int {
	return t.rows
}

// NumCols returns the column count.
func (t *Table) NumCols() int {
	return len(t.columns)
}

// HasColumn reports whether the named column exists.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.data[name]
	return ok
}

// Column returns the values of the named column, or nil if it does not
// exist.
func (t *Table) Column(name string) []string {
	return t.data[name]
}

// Cell returns the value at (column, row). Missing columns and
// out-of-range rows yield the empty string.
func (t *Table) Cell(name string, row int) string {
	col, ok := t.data[name]
	if !ok || row < 0 || row >= len(col) {
		return ""
	}
	return col[row]
}

// AppendRow appends one row. Short rows are padded with empty strings and
// extra values are dropped, so the table stays rectangular.
func (t *Table) AppendRow(values []string) {
	for i, name := range t.columns {
		v := ""
		if i < len(values) {
			v = values[i]
		}
		t.data[name] = append(t.data[name], v)
	}
	t.rows++
}

// Row materializes row i in column order.
func (t *Table) Row(i int) []string {
	row := make([]string, len(t.columns))
	for j, name := range t.columns {
		row[j] = t.Cell(name, i)
	}
	return row
}

// EnsureColumn adds the named column filled with the given default unless
// it already exists.
func (t *Table) EnsureColumn(name, fill string) {
	if _, ok := t.data[name]; ok {
		return
	}
	col := make([]string, t.rows)
	if fill != "" {
		for i := range col {
			col[i] = fill
		}
	}
	t.columns = append(t.columns, name)
	t.data[name] = col
}

// Reindex returns a new table with exactly the given columns in the given
// order. Columns missing from t are filled with empty strings; columns of
// t not listed are dropped.
func (t *Table) Reindex(columns []string) *Table {
	out := NewTable(columns)
	out.rows = t.rows
	for _, name := range columns {
		src, ok := t.data[name]
		if !ok {
			out.data[name] = make([]string, t.rows)
			continue
		}
		col := make([]string, len(src))
		copy(col, src)
		out.data[name] = col
	}
	return out
}

// SelectRows returns a new table holding the given row indices of t, in
// the given order.
func (t *Table) SelectRows(rows []int) *Table {
	out := NewTable(t.columns)
	for _, i := range rows {
		out.AppendRow(t.Row(i))
	}
	return out
}

// SortByFloatDesc reorders rows by the named column's numeric value,
// descending. Values that do not parse sort as zero. A missing column
// leaves the table untouched.
func (t *Table) SortByFloatDesc(name string) {
	col, ok := t.data[name]
	if !ok {
		return
	}
	idx := make([]int, t.rows)
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return ParseNumber(col[idx[a]]) > ParseNumber(col[idx[b]])
	})
	for _, cname := range t.columns {
		src := t.data[cname]
		dst := make([]string, len(src))
		for i, j := range idx {
			dst[i] = src[j]
		}
		t.data[cname] = dst
	}
}

// Concat appends the rows of each table to a copy of the first one,
// reindexing every later table to the first table's columns. A nil result
// means no input tables.
func Concat(tables []*Table) *Table {
	if len(tables) == 0 {
		return nil
	}
	out := NewTable(tables[0].Columns())
	for _, t := range tables {
		aligned := t
		if !sameColumns(out.columns, t.columns) {
			aligned = t.Reindex(out.columns)
		}
		for i := 0; i < aligned.rows; i++ {
			out.AppendRow(aligned.Row(i))
		}
	}
	return out
}

func sameColumns(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// ParseNumber coerces a cell to a float64. Thousands-separator commas and
// surrounding whitespace are stripped first; anything that still fails to
// parse becomes zero.
func ParseNumber(s string) float64 {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}

// FormatNumber renders a numeric cell the shortest way that round-trips
// through ParseNumber.
func FormatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
