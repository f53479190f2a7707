// Copyright 2024 Fantom Foundation
// This file is part of Fiber, an exact test toolkit for contingency tables
//
// Fiber is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Fiber is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with Fiber. If not, see <http://www.gnu.org/licenses/>.

package contingency

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrShapeMismatch is returned if dimensions of tables or vectors do not agree.
	ErrShapeMismatch = errors.New("shape mismatch")
	// ErrNegativeCount is returned for observed tables containing negative counts.
	ErrNegativeCount = errors.New("negative cell count")
)

// Table is a two-way contingency table with non-negative integer counts
// stored in row-major order.
type Table struct {
	Rows   int
	Cols   int
	Counts []int
}

// NewTable creates a table of the given shape and checks its content.
// The counts are copied.
func NewTable(rows, cols int, counts []int) (*Table, error) {
	t := &Table{
		Rows:   rows,
		Cols:   cols,
		Counts: append([]int(nil), counts...),
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// CellCount returns rows*cols for a shape with at least one row and column.
// Shapes whose cell count does not fit into an int are rejected.
func CellCount(rows, cols int) (int, error) {
	if rows <= 0 || cols <= 0 {
		return 0, fmt.Errorf("%w: table must have at least one row and column, got %dx%d", ErrShapeMismatch, rows, cols)
	}
	if rows > math.MaxInt/cols {
		return 0, fmt.Errorf("%w: %dx%d table has too many cells", ErrShapeMismatch, rows, cols)
	}
	return rows * cols, nil
}

// Validate checks the shape of the table and that no count is negative.
func (t *Table) Validate() error {
	cells, err := CellCount(t.Rows, t.Cols)
	if err != nil {
		return err
	}
	if len(t.Counts) != cells {
		return fmt.Errorf("%w: %dx%d table requires %d counts, got %d", ErrShapeMismatch, t.Rows, t.Cols, cells, len(t.Counts))
	}
	for i, c := range t.Counts {
		if c < 0 {
			return fmt.Errorf("%w: cell (%d,%d) holds %d", ErrNegativeCount, i/t.Cols, i%t.Cols, c)
		}
	}
	return nil
}

// Cells returns the number of cells of the table.
func (t *Table) Cells() int {
	return t.Rows * t.Cols
}

// At returns the count in the given row and column.
func (t *Table) At(row, col int) int {
	return t.Counts[row*t.Cols+col]
}

// Clone returns a deep copy of the table.
func (t *Table) Clone() *Table {
	return &Table{
		Rows:   t.Rows,
		Cols:   t.Cols,
		Counts: append([]int(nil), t.Counts...),
	}
}

// Margins computes the row and column sums of the table.
func (t *Table) Margins() Margins {
	return ComputeMargins(t.Rows, t.Cols, t.Counts)
}

// Margins are the row sums, column sums and grand total of a table.
type Margins struct {
	Rows  []int
	Cols  []int
	Total int
}

// ComputeMargins sums up a row-major vector of counts of the given shape.
func ComputeMargins(rows, cols int, counts []int) Margins {
	m := Margins{
		Rows: make([]int, rows),
		Cols: make([]int, cols),
	}
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			c := counts[i*cols+j]
			m.Rows[i] += c
			m.Cols[j] += c
			m.Total += c
		}
	}
	return m
}

// Equal reports whether both margins agree in every row and column sum.
func (m Margins) Equal(o Margins) bool {
	if len(m.Rows) != len(o.Rows) || len(m.Cols) != len(o.Cols) || m.Total != o.Total {
		return false
	}
	for i := range m.Rows {
		if m.Rows[i] != o.Rows[i] {
			return false
		}
	}
	for j := range m.Cols {
		if m.Cols[j] != o.Cols[j] {
			return false
		}
	}
	return true
}
