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
	"errors"
	"math/rand"

	"github.com/Fantom-foundation/Fiber/basis"
	"github.com/Fantom-foundation/Fiber/contingency"
	"github.com/Fantom-foundation/Fiber/mcmc"
)

// MakeChainProcessor creates a processor advancing the current chain's
// sampler by one step per iteration.
func MakeChainProcessor() Processor {
	return chainProcessor{}
}

type chainProcessor struct{}

func (chainProcessor) Process(_ State, ctx *Context) error {
	if ctx.Sampler == nil {
		return errors.New("no sampler in context")
	}
	ctx.Step = ctx.Sampler.Step()
	return nil
}

// NewSamplerProvider creates a provider of chains walking the fiber of
// observed. The expected table is computed once and shared by all chains.
// Chain i draws from its own random stream seeded with seed+i.
func NewSamplerProvider(observed *contingency.Table, b basis.Basis, seed int64, burnIn int) (ChainProvider, error) {
	// Fail before any chain is started.
	probe, err := mcmc.NewSampler(observed, b, rand.New(rand.NewSource(seed)), mcmc.WithBurnIn(burnIn))
	if err != nil {
		return nil, err
	}
	return &samplerProvider{
		observed: observed,
		basis:    b,
		expected: probe.Expected(),
		seed:     seed,
		burnIn:   burnIn,
	}, nil
}

type samplerProvider struct {
	observed *contingency.Table
	basis    basis.Basis
	expected *contingency.Expected
	seed     int64
	burnIn   int
}

func (p *samplerProvider) NewChain(chain int) (*mcmc.Sampler, error) {
	src := rand.New(rand.NewSource(p.seed + int64(chain)))
	return mcmc.NewSampler(p.observed, p.basis, src,
		mcmc.WithBurnIn(p.burnIn),
		mcmc.WithExpected(p.expected),
	)
}
