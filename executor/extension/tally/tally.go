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

package tally

import (
	"sort"
	"sync"

	"github.com/Fantom-foundation/Fiber/executor"
	"github.com/Fantom-foundation/Fiber/executor/extension"
	"github.com/Fantom-foundation/Fiber/mcmc"
)

// ChainResult is the summary of one finished chain.
type ChainResult struct {
	Chain   int          `json:"chain" yaml:"chain"`
	Summary mcmc.Summary `json:"summary" yaml:"summary"`
}

// Tally collects the summaries of all finished chains and pools them into
// a single p-value estimate.
type Tally struct {
	extension.NilExtension

	mu      sync.Mutex
	results []ChainResult
}

func MakeTally() *Tally {
	return &Tally{}
}

func (t *Tally) PreRun(executor.State, *executor.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.results = nil
	return nil
}

func (t *Tally) PostChain(state executor.State, ctx *executor.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.results = append(t.results, ChainResult{Chain: state.Chain, Summary: ctx.Summary})
	return nil
}

// Results returns the summaries of all finished chains ordered by chain.
func (t *Tally) Results() []ChainResult {
	t.mu.Lock()
	defer t.mu.Unlock()
	res := append([]ChainResult(nil), t.results...)
	sort.Slice(res, func(i, j int) bool { return res[i].Chain < res[j].Chain })
	return res
}

// Pooled sums the counters of all finished chains. The pooled p-value is
// the number of significant iterations over the number of measured ones,
// 0 if nothing was measured.
func (t *Tally) Pooled() mcmc.Summary {
	t.mu.Lock()
	defer t.mu.Unlock()
	var pooled mcmc.Summary
	for i, r := range t.results {
		if i == 0 {
			pooled.Observed = r.Summary.Observed
			pooled.BurnIn = r.Summary.BurnIn
		}
		pooled.Iterations += r.Summary.Iterations
		pooled.Measured += r.Summary.Measured
		pooled.Significant += r.Summary.Significant
		pooled.Accepted += r.Summary.Accepted
		pooled.Infeasible += r.Summary.Infeasible
	}
	if pooled.Measured > 0 {
		pooled.PValue = float64(pooled.Significant) / float64(pooled.Measured)
	}
	return pooled
}
