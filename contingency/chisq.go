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

	"gonum.org/v1/gonum/stat/distuv"
)

// ErrNonFiniteStatistic is returned if a statistic evaluates to NaN or infinity.
var ErrNonFiniteStatistic = errors.New("non-finite statistic")

// ChiSquare computes sum((o-e)^2/e) over all cells of the observed table.
func ChiSquare(observed *Table, expected *Expected) (float64, error) {
	if observed.Rows != expected.Rows || observed.Cols != expected.Cols || len(observed.Counts) != len(expected.Values) {
		return 0, fmt.Errorf("%w: observed %dx%d, expected %dx%d", ErrShapeMismatch, observed.Rows, observed.Cols, expected.Rows, expected.Cols)
	}
	for i, e := range expected.Values {
		if e <= 0 {
			return 0, fmt.Errorf("%w: cell (%d,%d) has expected count %v", ErrDegenerateExpected, i/expected.Cols, i%expected.Cols, e)
		}
	}
	stat := expected.ChiSquare(observed.Counts)
	if math.IsNaN(stat) || math.IsInf(stat, 0) {
		return 0, fmt.Errorf("%w: chi-square evaluated to %v", ErrNonFiniteStatistic, stat)
	}
	return stat, nil
}

// DegreesOfFreedom of the independence test of a rows x cols table.
func DegreesOfFreedom(rows, cols int) int {
	return (rows - 1) * (cols - 1)
}

// AsymptoticPValue is the upper tail probability of the chi-square
// distribution with df degrees of freedom. It is only meaningful for
// tables with large expected counts and serves as a reference for the
// exact test.
func AsymptoticPValue(stat float64, df int) float64 {
	if df <= 0 {
		return 1
	}
	return distuv.ChiSquared{K: float64(df)}.Survival(stat)
}
