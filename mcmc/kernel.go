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

// TransitionProbability computes the Metropolis-Hastings acceptance ratio
// for moving table x by the given move under the hypergeometric
// distribution of the fiber. It equals prod_i x_i!/(x_i+m_i)!. The ratio is
// not clamped and may exceed one. The move is expected to be feasible,
// i.e., x_i+m_i >= 0 for all cells.
func TransitionProbability(x []int, move []int) float64 {
	prob := 1.0
	for i, m := range move {
		switch {
		case m > 0:
			for j := 1; j <= m; j++ {
				prob /= float64(x[i] + j)
			}
		case m < 0:
			for j := 0; j < -m; j++ {
				prob *= float64(x[i] - j)
			}
		}
	}
	return prob
}
