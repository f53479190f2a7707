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

package mcmc

import (
	"errors"
	"math"
	"math/rand"
	"reflect"
	"testing"

	"github.com/Fantom-foundation/Fiber/basis"
	"github.com/Fantom-foundation/Fiber/contingency"
)

// scriptedSource replays predefined random numbers and counts draws.
type scriptedSource struct {
	ints   []int
	floats []float64
	draws  int
}

func (s *scriptedSource) Intn(n int) int {
	s.draws++
	v := s.ints[0]
	s.ints = s.ints[1:]
	return v % n
}

func (s *scriptedSource) Float64() float64 {
	s.draws++
	v := s.floats[0]
	s.floats = s.floats[1:]
	return v
}

func mustTable(t *testing.T, rows, cols int, counts ...int) *contingency.Table {
	t.Helper()
	table, err := contingency.NewTable(rows, cols, counts)
	if err != nil {
		t.Fatalf("cannot create table: %v", err)
	}
	return table
}

func TestSampler_UniformTableHasPValueOne(t *testing.T) {
	observed := mustTable(t, 2, 2, 10, 10, 10, 10)
	b := basis.New([][]int{{1, -1, -1, 1}})
	s, err := NewSampler(observed, b, rand.New(rand.NewSource(42)))
	if err != nil {
		t.Fatalf("cannot create sampler: %v", err)
	}
	if s.ObservedStatistic() != 0 {
		t.Fatalf("observed statistic should be 0, got %v", s.ObservedStatistic())
	}
	summary := s.Run(1000)
	if summary.PValue != 1 {
		t.Errorf("every table is at least as extreme as a perfectly independent one, got p-value %v", summary.PValue)
	}
	if summary.Iterations != 1000 || summary.Measured != 1000 || summary.Significant != 1000 {
		t.Errorf("unexpected summary %+v", summary)
	}
}

func TestSampler_LengthMismatchIsRejectedBeforeAnyIteration(t *testing.T) {
	observed := mustTable(t, 2, 2, 1, 2, 3, 4)
	b := basis.New([][]int{{1, -1, -1, 1, 0, 0}})
	src := &scriptedSource{}
	if _, err := NewSampler(observed, b, src); !errors.Is(err, basis.ErrLengthMismatch) {
		t.Errorf("expected length mismatch error, got %v", err)
	}
	if src.draws != 0 {
		t.Errorf("no random numbers should be drawn for invalid configurations, got %d draws", src.draws)
	}
}

func TestSampler_InvalidConfigurationsAreRejected(t *testing.T) {
	b := basis.Degree2(2, 2)
	src := rand.New(rand.NewSource(1))

	if _, err := NewSampler(mustTable(t, 2, 2, 0, 0, 1, 2), b, src); !errors.Is(err, contingency.ErrDegenerateExpected) {
		t.Errorf("expected degenerate expected error, got %v", err)
	}
	negative := &contingency.Table{Rows: 2, Cols: 2, Counts: []int{1, -1, 2, 3}}
	if _, err := NewSampler(negative, b, src); !errors.Is(err, contingency.ErrNegativeCount) {
		t.Errorf("expected negative count error, got %v", err)
	}
	if _, err := NewSampler(mustTable(t, 2, 2, 1, 2, 3, 4), b, nil); !errors.Is(err, ErrMissingSource) {
		t.Errorf("expected missing source error, got %v", err)
	}
	if _, err := NewSampler(mustTable(t, 2, 2, 1, 2, 3, 4), b, src, WithBurnIn(-1)); !errors.Is(err, ErrInvalidBurnIn) {
		t.Errorf("expected burn-in error, got %v", err)
	}
	if _, err := NewSampler(mustTable(t, 2, 2, 1, 2, 3, 4), basis.Basis{}, src); !errors.Is(err, basis.ErrEmpty) {
		t.Errorf("expected empty basis error, got %v", err)
	}
}

func TestSampler_InfeasibleMoveLeavesTableUnchanged(t *testing.T) {
	observed := mustTable(t, 2, 2, 0, 5, 5, 0)
	b := basis.New([][]int{{1, -1, -1, 1}})
	// pick move 0 and negate it, which drives cell (0,0) below zero
	src := &scriptedSource{ints: []int{0, 1}}
	s, err := NewSampler(observed, b, src)
	if err != nil {
		t.Fatalf("cannot create sampler: %v", err)
	}

	before := s.Table()
	step := s.Step()
	after := s.Table()

	if step.Feasible || step.Accepted {
		t.Errorf("move should have been infeasible, got %+v", step)
	}
	if !reflect.DeepEqual(before, after) {
		t.Errorf("infeasible move altered the table, before %v, after %v", before.Counts, after.Counts)
	}
	if src.draws != 2 {
		t.Errorf("infeasible moves must not draw an acceptance number, got %d draws", src.draws)
	}
	if got := s.Summary().Infeasible; got != 1 {
		t.Errorf("unexpected number of infeasible moves, got %d", got)
	}
}

func TestSampler_AcceptanceFollowsUniformDraw(t *testing.T) {
	observed := mustTable(t, 2, 2, 10, 10, 10, 10)
	b := basis.New([][]int{{1, -1, -1, 1}})
	// ratio is 100/121 ~ 0.826: reject with u=0.9, accept with u=0.5
	src := &scriptedSource{
		ints:   []int{0, 0, 0, 0},
		floats: []float64{0.9, 0.5},
	}
	s, err := NewSampler(observed, b, src)
	if err != nil {
		t.Fatalf("cannot create sampler: %v", err)
	}

	rejected := s.Step()
	if !rejected.Feasible || rejected.Accepted {
		t.Errorf("expected a rejected proposal, got %+v", rejected)
	}
	if got := s.Table().Counts; !reflect.DeepEqual(got, []int{10, 10, 10, 10}) {
		t.Errorf("rejected proposal altered the table: %v", got)
	}

	accepted := s.Step()
	if !accepted.Accepted {
		t.Errorf("expected an accepted proposal, got %+v", accepted)
	}
	if got := s.Table().Counts; !reflect.DeepEqual(got, []int{11, 9, 9, 11}) {
		t.Errorf("unexpected table after accepted move: %v", got)
	}
	if math.Abs(accepted.Statistic-4*1.0/10) > 1e-12 {
		t.Errorf("unexpected statistic after move, got %v", accepted.Statistic)
	}
}

func TestSampler_ChainStaysInFiber(t *testing.T) {
	observed := mustTable(t, 3, 4,
		3, 0, 1, 7,
		2, 5, 0, 1,
		0, 2, 6, 2,
	)
	margins := observed.Margins()
	s, err := NewSampler(observed, basis.Degree2(3, 4), rand.New(rand.NewSource(4711)))
	if err != nil {
		t.Fatalf("cannot create sampler: %v", err)
	}
	for i := 0; i < 5000; i++ {
		s.Step()
		current := s.Table()
		if !current.Margins().Equal(margins) {
			t.Fatalf("margins changed in iteration %d: %v", i, current.Counts)
		}
		for _, c := range current.Counts {
			if c < 0 {
				t.Fatalf("negative cell in iteration %d: %v", i, current.Counts)
			}
		}
	}
	if s.Summary().Accepted == 0 {
		t.Errorf("chain never moved")
	}
}

func TestSampler_SignificanceCounterIsMonotonic(t *testing.T) {
	observed := mustTable(t, 2, 3, 8, 2, 5, 1, 9, 4)
	s, err := NewSampler(observed, basis.Degree2(2, 3), rand.New(rand.NewSource(7)))
	if err != nil {
		t.Fatalf("cannot create sampler: %v", err)
	}
	last := 0
	for i := 1; i <= 2000; i++ {
		s.Step()
		summary := s.Summary()
		if summary.Significant < last {
			t.Fatalf("significance counter decreased in iteration %d", i)
		}
		if summary.Significant > i {
			t.Fatalf("significance counter exceeds iteration count in iteration %d", i)
		}
		last = summary.Significant
	}
	if p := s.PValue(); p < 0 || p > 1 {
		t.Errorf("p-value out of range: %v", p)
	}
}

func TestSampler_SameSeedProducesSameChain(t *testing.T) {
	observed := mustTable(t, 3, 3, 4, 1, 3, 2, 6, 1, 0, 3, 5)
	b := basis.Degree2(3, 3)
	a, err := NewSampler(observed, b, rand.New(rand.NewSource(99)))
	if err != nil {
		t.Fatalf("cannot create sampler: %v", err)
	}
	c, err := NewSampler(observed, b, rand.New(rand.NewSource(99)))
	if err != nil {
		t.Fatalf("cannot create sampler: %v", err)
	}
	for i := 0; i < 3000; i++ {
		if x, y := a.Step(), c.Step(); x != y {
			t.Fatalf("chains diverged in iteration %d: %+v vs %+v", i, x, y)
		}
	}
	if a.PValue() != c.PValue() {
		t.Errorf("p-values differ: %v vs %v", a.PValue(), c.PValue())
	}
}

func TestSampler_BurnInIsExcludedFromCount(t *testing.T) {
	observed := mustTable(t, 2, 2, 10, 10, 10, 10)
	s, err := NewSampler(observed, basis.Degree2(2, 2), rand.New(rand.NewSource(3)), WithBurnIn(10))
	if err != nil {
		t.Fatalf("cannot create sampler: %v", err)
	}
	if p := s.PValue(); p != 0 {
		t.Errorf("p-value before measurements should be 0, got %v", p)
	}
	for i := 1; i <= 100; i++ {
		step := s.Step()
		if step.Measured != (i > 10) {
			t.Fatalf("unexpected measurement flag in iteration %d", i)
		}
	}
	summary := s.Summary()
	if summary.Measured != 90 || summary.Significant != 90 || summary.BurnIn != 10 {
		t.Errorf("unexpected summary %+v", summary)
	}
}

func TestSampler_PrecomputedExpectedTableIsUsed(t *testing.T) {
	observed := mustTable(t, 2, 2, 10, 10, 10, 10)
	e, err := contingency.NewExpectedFromValues(2, 2, []float64{5, 5, 5, 5})
	if err != nil {
		t.Fatalf("cannot create expected table: %v", err)
	}
	s, err := NewSampler(observed, basis.Degree2(2, 2), rand.New(rand.NewSource(3)), WithExpected(e))
	if err != nil {
		t.Fatalf("cannot create sampler: %v", err)
	}
	if got, want := s.ObservedStatistic(), 20.0; got != want {
		t.Errorf("unexpected observed statistic, wanted %v, got %v", want, got)
	}
	if s.Expected() != e {
		t.Errorf("sampler does not use the provided expected table")
	}
}

// TestSampler_ApproximatesExactConditionalPValue compares the estimate for
// a 2x2 table with the p-value computed from the hypergeometric
// distribution of its fiber.
func TestSampler_ApproximatesExactConditionalPValue(t *testing.T) {
	observed := mustTable(t, 2, 2, 3, 1, 1, 3)
	s, err := NewSampler(observed, basis.Degree2(2, 2), rand.New(rand.NewSource(4711)))
	if err != nil {
		t.Fatalf("cannot create sampler: %v", err)
	}
	s.Run(200_000)

	// with all margins equal to 4, the upper left cell k is hypergeometric
	// with weights C(4,k)C(4,4-k) = 1,16,36,16,1; k=0,1,3,4 are at least as
	// extreme as the observed k=3.
	want := 34.0 / 70.0
	if got := s.PValue(); math.Abs(got-want) > 0.02 {
		t.Errorf("estimate too far from exact p-value, wanted %v, got %v", want, got)
	}
}
