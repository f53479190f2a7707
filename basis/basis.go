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

// Package basis provides Markov bases for two-way contingency tables. A
// Markov basis is a set of integer moves that keep the row and column sums
// of a table unchanged and that connect all tables sharing these sums.
package basis

import (
	"errors"
	"fmt"

	"github.com/Fantom-foundation/Fiber/contingency"
)

var (
	// ErrEmpty is returned for bases without any move.
	ErrEmpty = errors.New("markov basis is empty")
	// ErrLengthMismatch is returned if a move does not cover every cell of the table.
	ErrLengthMismatch = errors.New("move length does not match table cell count")
	// ErrNotMarginPreserving is returned if a move alters row or column sums.
	ErrNotMarginPreserving = errors.New("move does not preserve margins")
)

// Move is a row-major vector of cell increments.
type Move []int

// Basis is an ordered, immutable list of moves.
type Basis []Move

// New creates a basis holding copies of the given vectors.
func New(vectors [][]int) Basis {
	b := make(Basis, 0, len(vectors))
	for _, v := range vectors {
		b = append(b, append(Move(nil), v...))
	}
	return b
}

// Validate checks that the basis is usable for a rows x cols table: it must
// contain at least one move, each move must have one entry per cell, and
// every move must leave all margins unchanged.
func (b Basis) Validate(rows, cols int) error {
	if len(b) == 0 {
		return ErrEmpty
	}
	cells, err := contingency.CellCount(rows, cols)
	if err != nil {
		return err
	}
	for i, m := range b {
		if len(m) != cells {
			return fmt.Errorf("%w: move %d has %d entries, table %dx%d has %d cells", ErrLengthMismatch, i, len(m), rows, cols, cells)
		}
		margins := contingency.ComputeMargins(rows, cols, m)
		for r, sum := range margins.Rows {
			if sum != 0 {
				return fmt.Errorf("%w: move %d changes row %d by %d", ErrNotMarginPreserving, i, r, sum)
			}
		}
		for c, sum := range margins.Cols {
			if sum != 0 {
				return fmt.Errorf("%w: move %d changes column %d by %d", ErrNotMarginPreserving, i, c, sum)
			}
		}
	}
	return nil
}

// Dim returns the length of the moves of the basis, 0 for an empty basis.
func (b Basis) Dim() int {
	if len(b) == 0 {
		return 0
	}
	return len(b[0])
}

// Signed writes move i into dst, negated if negate is set, and returns dst.
func (b Basis) Signed(i int, negate bool, dst []int) []int {
	m := b[i]
	if negate {
		for j, v := range m {
			dst[j] = -v
		}
	} else {
		copy(dst, m)
	}
	return dst
}

// Degree2 generates the basic moves of a rows x cols table. Each move adds
// one to cells (i,j) and (k,l) and subtracts one from cells (i,l) and (k,j)
// for i<k and j<l. Together they form a Markov basis for the independence
// model of two-way tables.
func Degree2(rows, cols int) Basis {
	var b Basis
	for i := 0; i < rows; i++ {
		for k := i + 1; k < rows; k++ {
			for j := 0; j < cols; j++ {
				for l := j + 1; l < cols; l++ {
					m := make(Move, rows*cols)
					m[i*cols+j] = 1
					m[k*cols+l] = 1
					m[i*cols+l] = -1
					m[k*cols+j] = -1
					b = append(b, m)
				}
			}
		}
	}
	return b
}
