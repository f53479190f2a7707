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
	"math"
	"testing"
)

func TestTransitionProbability_ZeroMoveHasRatioOne(t *testing.T) {
	if got := TransitionProbability([]int{3, 4}, []int{0, 0}); got != 1 {
		t.Errorf("unexpected ratio for zero move, wanted 1, got %v", got)
	}
}

func TestTransitionProbability_IncreasingCell(t *testing.T) {
	// 2!/4! = 1/12
	if got, want := TransitionProbability([]int{2}, []int{2}), 1.0/12; math.Abs(got-want) > 1e-15 {
		t.Errorf("unexpected ratio, wanted %v, got %v", want, got)
	}
}

func TestTransitionProbability_DecreasingCell(t *testing.T) {
	// 5!/3! = 20
	if got, want := TransitionProbability([]int{5}, []int{-2}), 20.0; got != want {
		t.Errorf("unexpected ratio, wanted %v, got %v", want, got)
	}
}

func TestTransitionProbability_BasicMoveOnBalancedTable(t *testing.T) {
	x := []int{10, 10, 10, 10}
	got := TransitionProbability(x, []int{1, -1, -1, 1})
	want := 100.0 / 121.0
	if math.Abs(got-want) > 1e-12 {
		t.Errorf("unexpected ratio, wanted %v, got %v", want, got)
	}
}

func TestTransitionProbability_CanExceedOne(t *testing.T) {
	// moving towards the mode of the fiber is more likely than staying
	x := []int{0, 5, 5, 0}
	if got := TransitionProbability(x, []int{1, -1, -1, 1}); got <= 1 {
		t.Errorf("expected ratio above one, got %v", got)
	}
}

func TestTransitionProbability_IsInverseOfReverseMove(t *testing.T) {
	x := []int{3, 7, 2, 9}
	m := []int{2, -2, -2, 2}
	y := make([]int, len(x))
	back := make([]int, len(x))
	for i := range x {
		y[i] = x[i] + m[i]
		back[i] = -m[i]
	}
	forward := TransitionProbability(x, m)
	reverse := TransitionProbability(y, back)
	if math.Abs(forward*reverse-1) > 1e-12 {
		t.Errorf("ratios of a move and its reverse should multiply to one, got %v and %v", forward, reverse)
	}
}
