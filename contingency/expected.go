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

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// ErrDegenerateExpected is returned if an expected count is zero, which
// renders the chi-square statistic undefined.
var ErrDegenerateExpected = errors.New("degenerate expected count")

// Expected holds the expected counts of a table under the independence
// hypothesis in row-major order.
type Expected struct {
	Rows   int
	Cols   int
	Values []float64
}

// NewExpected computes the expected counts row_sum*col_sum/total for each
// cell of the given table. A zero margin produces a zero expected count and
// is reported as ErrDegenerateExpected.
func NewExpected(t *Table) (*Expected, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	margins := t.Margins()
	if margins.Total == 0 {
		return nil, fmt.Errorf("%w: table is empty", ErrDegenerateExpected)
	}

	rows := mat.NewVecDense(t.Rows, toFloats(margins.Rows))
	cols := mat.NewVecDense(t.Cols, toFloats(margins.Cols))

	// the outer product of the margins scaled by 1/n is the expected table
	var e mat.Dense
	e.Outer(1.0/float64(margins.Total), rows, cols)

	values := make([]float64, 0, t.Cells())
	for i := 0; i < t.Rows; i++ {
		values = append(values, mat.Row(nil, i, &e)...)
	}
	return NewExpectedFromValues(t.Rows, t.Cols, values)
}

// NewExpectedFromValues wraps externally computed expected counts. All
// values have to be positive.
func NewExpectedFromValues(rows, cols int, values []float64) (*Expected, error) {
	cells, err := CellCount(rows, cols)
	if err != nil {
		return nil, err
	}
	if len(values) != cells {
		return nil, fmt.Errorf("%w: %dx%d expected table with %d values", ErrShapeMismatch, rows, cols, len(values))
	}
	if floats.HasNaN(values) {
		return nil, fmt.Errorf("%w: expected counts contain NaN", ErrDegenerateExpected)
	}
	if lowest := floats.Min(values); lowest <= 0 {
		idx := floats.MinIdx(values)
		return nil, fmt.Errorf("%w: cell (%d,%d) has expected count %v", ErrDegenerateExpected, idx/cols, idx%cols, lowest)
	}
	return &Expected{
		Rows:   rows,
		Cols:   cols,
		Values: append([]float64(nil), values...),
	}, nil
}

// At returns the expected count of the given cell.
func (e *Expected) At(row, col int) float64 {
	return e.Values[row*e.Cols+col]
}

// ChiSquare computes the statistic of the given row-major counts against
// the expected counts. The caller has to make sure that the number of
// counts matches the table; no checks are performed.
func (e *Expected) ChiSquare(counts []int) float64 {
	total := 0.0
	for i, exp := range e.Values {
		d := float64(counts[i]) - exp
		total += d * d / exp
	}
	return total
}

func toFloats(in []int) []float64 {
	res := make([]float64, len(in))
	for i, v := range in {
		res[i] = float64(v)
	}
	return res
}
