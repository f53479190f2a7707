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

package executor

import (
	"fmt"

	gomock "go.uber.org/mock/gomock"
)

// ----------------------------------------------------------------------------
//                                   Matcher
// ----------------------------------------------------------------------------

// AtChain matches executor.State instances with the given chain.
func AtChain(chain int) gomock.Matcher {
	return atChain{chain}
}

// AtIteration matches executor.State instances with the given chain and
// iteration number.
func AtIteration(chain int, iteration int) gomock.Matcher {
	return atIteration{chain, iteration}
}

// ----------------------------------------------------------------------------

type atChain struct {
	expectedChain int
}

func (m atChain) Matches(value any) bool {
	state, ok := value.(State)
	return ok && state.Chain == m.expectedChain
}

func (m atChain) String() string {
	return fmt.Sprintf("at chain %d", m.expectedChain)
}

type atIteration struct {
	expectedChain     int
	expectedIteration int
}

func (m atIteration) Matches(value any) bool {
	state, ok := value.(State)
	return ok && state.Chain == m.expectedChain && state.Iteration == m.expectedIteration
}

func (m atIteration) String() string {
	return fmt.Sprintf("at chain %d, iteration %d", m.expectedChain, m.expectedIteration)
}
