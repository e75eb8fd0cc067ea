// Package dataset is a minimal in-memory table (header + string rows) used to
// carry caller datasets through mapping and matching without losing columns.
package dataset

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrMissingColumn = errors.New("missing column")
	ErrColumnExists  = errors.New("column already exists")
)

// Dataset is a rectangular table. Rows shorter than the header read as
// empty strings in the missing cells.
type Dataset struct {
	Header []string
	Rows   [][]string
}

// New returns an empty dataset with the given header.
func New(header ...string) *Dataset {
	h := make([]string, len(header))
	copy(h, header)
	return &Dataset{Header: h}
}

// Len returns the number of data rows.
func (d *Dataset) Len() int { return len(d.Rows) }

// Append adds one row.
func (d *Dataset) Append(values ...string) {
	row := make([]string, len(values))
	copy(row, values)
	d.Rows = append(d.Rows, row)
}

// Index returns the position of a column, matched case-insensitively after
// trimming, or -1.
func (d *Dataset) Index(name string) int {
	name = strings.TrimSpace(name)
	if name == "" {
		return -1
	}
	for i, h := range d.Header {
		if strings.EqualFold(strings.TrimSpace(h), name) {
			return i
		}
	}
	return -1
}

// Require resolves every name to a column index.
func (d *Dataset) Require(names ...string) ([]int, error) {
	idx := make([]int, len(names))
	for i, n := range names {
		idx[i] = d.Index(n)
		if idx[i] < 0 {
			return nil, fmt.Errorf("%w: %q not in header %v", ErrMissingColumn, n, d.Header)
		}
	}
	return idx, nil
}

// Value returns the trimmed cell at (row, col), or "" when col is negative
// or beyond the row.
func (d *Dataset) Value(row, col int) string {
	if col < 0 || row < 0 || row >= len(d.Rows) || col >= len(d.Rows[row]) {
		return ""
	}
	return strings.TrimSpace(d.Rows[row][col])
}

// Augment returns a new dataset with columns appended. fill is called once
// per row and must return len(columns) values. The receiver is not
// modified and existing cells are copied unchanged.
func (d *Dataset) Augment(columns []string, fill func(row int) []string) (*Dataset, error) {
	for _, c := range columns {
		if d.Index(c) >= 0 {
			return nil, fmt.Errorf("%w: %q", ErrColumnExists, c)
		}
	}

	width := len(d.Header)
	out := &Dataset{
		Header: make([]string, 0, width+len(columns)),
		Rows:   make([][]string, len(d.Rows)),
	}
	out.Header = append(append(out.Header, d.Header...), columns...)

	for i, row := range d.Rows {
		values := fill(i)
		if len(values) != len(columns) {
			return nil, fmt.Errorf("row %d: got %d values for %d new columns", i, len(values), len(columns))
		}
		n := make([]string, width, width+len(columns))
		copy(n, row)
		out.Rows[i] = append(n, values...)
	}
	return out, nil
}
