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

// Package mcmc implements the Metropolis-Hastings sampler of the exact
// chi-square test. The sampler walks over all tables sharing the margins of
// an observed table by applying moves of a Markov basis and counts how many
// visited tables have a chi-square statistic at least as large as the
// observed one.
package mcmc

import (
	"errors"
	"fmt"

	"github.com/Fantom-foundation/Fiber/basis"
	"github.com/Fantom-foundation/Fiber/contingency"
)

var (
	// ErrInvalidBurnIn is returned for negative burn-in lengths.
	ErrInvalidBurnIn = errors.New("burn-in must not be negative")
	// ErrMissingSource is returned if no random source is provided.
	ErrMissingSource = errors.New("missing random source")
)

// Source is the random number generator driving the chain. It is
// satisfied by *math/rand.Rand.
type Source interface {
	// Intn returns a uniformly distributed number in [0,n).
	Intn(n int) int
	// Float64 returns a uniformly distributed number in [0,1).
	Float64() float64
}

// Step describes the outcome of a single iteration of the chain.
type Step struct {
	Iteration   int     // 1-based number of the iteration
	Move        int     // index of the proposed basis move
	Negated     bool    // whether the move was subtracted
	Feasible    bool    // whether the proposal keeps all cells non-negative
	Accepted    bool    // whether the proposal was applied
	Ratio       float64 // acceptance ratio, only set for feasible proposals
	Statistic   float64 // chi-square of the table after the iteration
	Measured    bool    // false during burn-in
	Significant bool    // statistic >= observed statistic for measured iterations
}

// Summary reports the counters of a sampler.
type Summary struct {
	Iterations  int     `json:"iterations" yaml:"iterations"`
	BurnIn      int     `json:"burnIn" yaml:"burnIn"`
	Measured    int     `json:"measured" yaml:"measured"`
	Significant int     `json:"significant" yaml:"significant"`
	Accepted    int     `json:"accepted" yaml:"accepted"`
	Infeasible  int     `json:"infeasible" yaml:"infeasible"`
	Observed    float64 `json:"observedStatistic" yaml:"observedStatistic"`
	PValue      float64 `json:"pValue" yaml:"pValue"`
}

// Option configures a sampler.
type Option func(*Sampler)

// WithBurnIn excludes the first n iterations from the significance count.
// The default is zero, i.e., every iteration contributes.
func WithBurnIn(n int) Option {
	return func(s *Sampler) {
		s.burnIn = n
	}
}

// WithExpected provides precomputed expected counts. By default they are
// derived from the margins of the observed table.
func WithExpected(e *contingency.Expected) Option {
	return func(s *Sampler) {
		s.expected = e
	}
}

// Sampler is a Metropolis-Hastings chain over the fiber of an observed
// table. The observed table, the expected table and the basis are only
// read and may be shared among samplers; the current table is owned by
// the sampler. A sampler is not thread safe.
type Sampler struct {
	observed *contingency.Table
	expected *contingency.Expected
	basis    basis.Basis
	src      Source
	burnIn   int

	x            []int // current table
	move         []int // proposal buffer
	observedStat float64
	currentStat  float64

	iteration   int
	measured    int
	significant int
	accepted    int
	infeasible  int
}

// NewSampler validates the inputs and creates a chain starting at the
// observed table. Malformed tables or bases and degenerate expected counts
// are reported before any iteration is run.
func NewSampler(observed *contingency.Table, b basis.Basis, src Source, opts ...Option) (*Sampler, error) {
	if src == nil {
		return nil, ErrMissingSource
	}
	if err := observed.Validate(); err != nil {
		return nil, fmt.Errorf("invalid observed table: %w", err)
	}
	if err := b.Validate(observed.Rows, observed.Cols); err != nil {
		return nil, fmt.Errorf("invalid markov basis: %w", err)
	}

	s := &Sampler{
		observed: observed,
		basis:    b,
		src:      src,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.burnIn < 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidBurnIn, s.burnIn)
	}

	if s.expected == nil {
		e, err := contingency.NewExpected(observed)
		if err != nil {
			return nil, fmt.Errorf("cannot compute expected table: %w", err)
		}
		s.expected = e
	}
	stat, err := contingency.ChiSquare(observed, s.expected)
	if err != nil {
		return nil, fmt.Errorf("cannot compute observed statistic: %w", err)
	}

	s.observedStat = stat
	s.currentStat = stat
	s.x = append([]int(nil), observed.Counts...)
	s.move = make([]int, len(s.x))
	return s, nil
}

// Step runs a single iteration: propose a signed basis move, check that it
// stays in the fiber, accept it with the transition probability, and
// compare the statistic of the resulting table with the observed one.
func (s *Sampler) Step() Step {
	s.iteration++
	step := Step{Iteration: s.iteration}

	// propose
	step.Move = s.src.Intn(len(s.basis))
	step.Negated = s.src.Intn(2) == 1
	s.basis.Signed(step.Move, step.Negated, s.move)

	// moves leaving the fiber are rejected without drawing
	step.Feasible = s.inFiber()
	if step.Feasible {
		u := s.src.Float64()
		step.Ratio = TransitionProbability(s.x, s.move)
		if u < step.Ratio {
			for i, m := range s.move {
				s.x[i] += m
			}
			s.currentStat = s.expected.ChiSquare(s.x)
			step.Accepted = true
			s.accepted++
		}
	} else {
		s.infeasible++
	}

	// measure; the statistic of an unchanged table is reused
	step.Statistic = s.currentStat
	if s.iteration > s.burnIn {
		step.Measured = true
		s.measured++
		if s.currentStat >= s.observedStat {
			step.Significant = true
			s.significant++
		}
	}
	return step
}

// Run performs n iterations and returns the resulting summary.
func (s *Sampler) Run(n int) Summary {
	for i := 0; i < n; i++ {
		s.Step()
	}
	return s.Summary()
}

func (s *Sampler) inFiber() bool {
	for i, m := range s.move {
		if s.x[i]+m < 0 {
			return false
		}
	}
	return true
}

// PValue is the fraction of measured iterations whose table was at least
// as extreme as the observed table. It is zero before any measurement.
func (s *Sampler) PValue() float64 {
	if s.measured == 0 {
		return 0
	}
	return float64(s.significant) / float64(s.measured)
}

// Summary returns the current counters of the sampler.
func (s *Sampler) Summary() Summary {
	return Summary{
		Iterations:  s.iteration,
		BurnIn:      s.burnIn,
		Measured:    s.measured,
		Significant: s.significant,
		Accepted:    s.accepted,
		Infeasible:  s.infeasible,
		Observed:    s.observedStat,
		PValue:      s.PValue(),
	}
}

// Table returns a copy of the current table.
func (s *Sampler) Table() *contingency.Table {
	return &contingency.Table{
		Rows:   s.observed.Rows,
		Cols:   s.observed.Cols,
		Counts: append([]int(nil), s.x...),
	}
}

// Observed returns the table the chain started from.
func (s *Sampler) Observed() *contingency.Table {
	return s.observed
}

// Expected returns the expected table used for the statistic.
func (s *Sampler) Expected() *contingency.Expected {
	return s.expected
}

// ObservedStatistic is the chi-square statistic of the observed table.
func (s *Sampler) ObservedStatistic() float64 {
	return s.observedStat
}

// Statistic is the chi-square statistic of the current table.
func (s *Sampler) Statistic() float64 {
	return s.currentStat
}
