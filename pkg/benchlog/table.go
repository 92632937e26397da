package benchlog

import (
	"encoding/json"
	"slices"
)

// Row is one event of a time-series table. Columns is called on the zero
// value and must not depend on the receiver.
type Row interface {
	Columns() []string
	Values() []string
}

// Table is an ordered, read-only sequence of rows of one metric family.
// The zero value is an empty table.
type Table[R Row] struct {
	rows []R
}

// NewTable builds a table from rows, taking ownership of the slice.
func NewTable[R Row](rows []R) Table[R] {
	if rows == nil {
		rows = []R{}
	}

	return Table[R]{rows: rows}
}

// Len returns the number of rows.
func (t Table[R]) Len() int {
	return len(t.rows)
}

// Empty reports whether the table has no rows.
func (t Table[R]) Empty() bool {
	return len(t.rows) == 0
}

// Rows returns the rows in source order. The slice must not be modified.
func (t Table[R]) Rows() []R {
	return slices.Clip(t.rows)
}

// At returns the i-th row.
func (t Table[R]) At(i int) R {
	return t.rows[i]
}

// Last returns the final row, if any.
func (t Table[R]) Last() (R, bool) {
	if len(t.rows) == 0 {
		var zero R

		return zero, false
	}

	return t.rows[len(t.rows)-1], true
}

// Head returns a view of at most the first n rows.
func (t Table[R]) Head(n int) Table[R] {
	n = max(0, min(n, len(t.rows)))

	return NewTable(slices.Clip(t.rows[:n]))
}

// Columns returns the stable column set of the table.
func (t Table[R]) Columns() []string {
	var zero R

	return zero.Columns()
}

// Records returns the table as a string matrix, header first, suitable for
// CSV or text rendering.
func (t Table[R]) Records() [][]string {
	out := make([][]string, 0, len(t.rows)+1)
	out = append(out, t.Columns())

	for _, r := range t.rows {
		out = append(out, r.Values())
	}

	return out
}

// MarshalJSON encodes the rows as an array. Empty tables encode as [].
func (t Table[R]) MarshalJSON() ([]byte, error) {
	if t.rows == nil {
		return []byte("[]"), nil
	}

	return json.Marshal(t.rows)
}
