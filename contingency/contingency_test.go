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
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat/distuv"
)

func TestTable_NewTableCopiesCounts(t *testing.T) {
	counts := []int{1, 2, 3, 4}
	table, err := NewTable(2, 2, counts)
	require.NoError(t, err)
	counts[0] = 42
	assert.Equal(t, 1, table.At(0, 0))
	assert.Equal(t, 4, table.At(1, 1))
}

func TestTable_ValidateRejectsMalformedTables(t *testing.T) {
	tests := map[string]struct {
		rows, cols int
		counts     []int
		want       error
	}{
		"zero rows":      {0, 2, nil, ErrShapeMismatch},
		"too few counts": {2, 2, []int{1, 2, 3}, ErrShapeMismatch},
		"too many":       {1, 2, []int{1, 2, 3}, ErrShapeMismatch},
		"negative count": {2, 2, []int{1, -2, 3, 4}, ErrNegativeCount},
		"too many cells": {math.MaxInt/2 + 1, 2, nil, ErrShapeMismatch},
	}
	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := NewTable(test.rows, test.cols, test.counts)
			if !errors.Is(err, test.want) {
				t.Errorf("unexpected error, wanted %v, got %v", test.want, err)
			}
		})
	}
}

func TestTable_CellCountRejectsOverflow(t *testing.T) {
	cells, err := CellCount(3, 4)
	require.NoError(t, err)
	assert.Equal(t, 12, cells)

	_, err = CellCount(math.MaxInt/3+1, 3)
	assert.ErrorIs(t, err, ErrShapeMismatch)
	_, err = CellCount(math.MaxInt, math.MaxInt)
	assert.ErrorIs(t, err, ErrShapeMismatch)
	_, err = CellCount(math.MaxInt, 1)
	assert.NoError(t, err)
}

func TestTable_MarginsOfNonSquareTable(t *testing.T) {
	table, err := NewTable(2, 3, []int{
		1, 2, 3,
		4, 5, 6,
	})
	require.NoError(t, err)
	m := table.Margins()
	assert.Equal(t, []int{6, 15}, m.Rows)
	assert.Equal(t, []int{5, 7, 9}, m.Cols)
	assert.Equal(t, 21, m.Total)
}

func TestTable_CloneIsIndependent(t *testing.T) {
	table, err := NewTable(1, 2, []int{1, 2})
	require.NoError(t, err)
	clone := table.Clone()
	clone.Counts[0] = 7
	if table.Counts[0] != 1 {
		t.Errorf("modifying a clone altered the original table")
	}
}

func TestMargins_Equal(t *testing.T) {
	a := ComputeMargins(2, 2, []int{1, 2, 3, 4})
	b := ComputeMargins(2, 2, []int{2, 1, 2, 5})
	c := ComputeMargins(2, 2, []int{4, 3, 2, 1})
	if !a.Equal(b) {
		t.Errorf("margins of %v and %v should be equal", a, b)
	}
	if a.Equal(c) {
		t.Errorf("margins of %v and %v should differ", a, c)
	}
}

func TestExpected_IndependenceValues(t *testing.T) {
	table, err := NewTable(2, 3, []int{
		10, 20, 30,
		20, 10, 10,
	})
	require.NoError(t, err)
	e, err := NewExpected(table)
	require.NoError(t, err)

	// row sums 60/40, column sums 30/30/40, total 100
	want := []float64{
		18, 18, 24,
		12, 12, 16,
	}
	for i := range want {
		assert.InDelta(t, want[i], e.Values[i], 1e-9, "cell %d", i)
	}
	assert.InDelta(t, 16.0, e.At(1, 2), 1e-9)
}

func TestExpected_ZeroMarginIsDegenerate(t *testing.T) {
	table, err := NewTable(2, 2, []int{0, 0, 3, 4})
	require.NoError(t, err)
	if _, err := NewExpected(table); !errors.Is(err, ErrDegenerateExpected) {
		t.Errorf("expected degenerate expected error, got %v", err)
	}

	empty, err := NewTable(2, 2, []int{0, 0, 0, 0})
	require.NoError(t, err)
	if _, err := NewExpected(empty); !errors.Is(err, ErrDegenerateExpected) {
		t.Errorf("expected degenerate expected error for empty table, got %v", err)
	}
}

func TestExpected_FromValuesRejectsNonPositiveValues(t *testing.T) {
	if _, err := NewExpectedFromValues(1, 2, []float64{1, 0}); !errors.Is(err, ErrDegenerateExpected) {
		t.Errorf("expected degenerate expected error, got %v", err)
	}
	if _, err := NewExpectedFromValues(1, 2, []float64{1, math.NaN()}); !errors.Is(err, ErrDegenerateExpected) {
		t.Errorf("expected degenerate expected error for NaN, got %v", err)
	}
	if _, err := NewExpectedFromValues(1, 2, []float64{1}); !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("expected shape mismatch, got %v", err)
	}
}

func TestChiSquare_IsZeroIfObservedEqualsExpected(t *testing.T) {
	table, err := NewTable(2, 2, []int{10, 10, 10, 10})
	require.NoError(t, err)
	e, err := NewExpected(table)
	require.NoError(t, err)
	stat, err := ChiSquare(table, e)
	require.NoError(t, err)
	if stat != 0 {
		t.Errorf("chi-square of a table against itself should be 0, got %v", stat)
	}
}

func TestChiSquare_KnownValue(t *testing.T) {
	table, err := NewTable(2, 2, []int{20, 5, 5, 20})
	require.NoError(t, err)
	e, err := NewExpected(table)
	require.NoError(t, err)
	stat, err := ChiSquare(table, e)
	require.NoError(t, err)
	// every cell deviates by 7.5 from 12.5
	assert.InDelta(t, 4*7.5*7.5/12.5, stat, 1e-12)
}

func TestChiSquare_ShapeMismatch(t *testing.T) {
	table, err := NewTable(2, 2, []int{1, 2, 3, 4})
	require.NoError(t, err)
	e, err := NewExpectedFromValues(1, 4, []float64{1, 2, 3, 4})
	require.NoError(t, err)
	if _, err := ChiSquare(table, e); !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("expected shape mismatch, got %v", err)
	}
}

func TestChiSquare_DegenerateExpectedIsReported(t *testing.T) {
	table, err := NewTable(1, 2, []int{1, 2})
	require.NoError(t, err)
	e := &Expected{Rows: 1, Cols: 2, Values: []float64{1.5, 0}}
	if _, err := ChiSquare(table, e); !errors.Is(err, ErrDegenerateExpected) {
		t.Errorf("expected degenerate expected error, got %v", err)
	}
}

func TestAsymptoticPValue_MatchesChiSquaredDistribution(t *testing.T) {
	for _, df := range []int{1, 2, 4, 9} {
		for _, stat := range []float64{0, 0.5, 3.84, 12} {
			want := 1 - distuv.ChiSquared{K: float64(df)}.CDF(stat)
			assert.InDelta(t, want, AsymptoticPValue(stat, df), 1e-9, "df=%d stat=%v", df, stat)
		}
	}
	if got := AsymptoticPValue(3, 0); got != 1 {
		t.Errorf("a table without degrees of freedom should have p-value 1, got %v", got)
	}
}

func TestDegreesOfFreedom(t *testing.T) {
	if got, want := DegreesOfFreedom(3, 4), 6; got != want {
		t.Errorf("unexpected degrees of freedom, wanted %d, got %d", want, got)
	}
}
