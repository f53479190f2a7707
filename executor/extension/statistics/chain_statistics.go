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

package statistics

import (
	"fmt"

	"github.com/Fantom-foundation/Fiber/executor"
	"github.com/Fantom-foundation/Fiber/executor/extension"
	"github.com/Fantom-foundation/Fiber/logger"
	"github.com/Fantom-foundation/Fiber/utils"
	"github.com/Fantom-foundation/Fiber/utils/analytics"
)

const (
	chainStatisticsFormat = "Chain %d: chi-square mean %.4f, std %.4f, min %.4f, max %.4f; acceptance rate %.2f%%"
	runStatisticsFormat   = "All chains: chi-square mean %.4f, std %.4f, min %.4f, max %.4f over %d measured iterations"
)

// MakeChainStatistics creates an extension summarizing the sampled
// chi-square statistics of every chain.
func MakeChainStatistics(cfg *utils.Config) *ChainStatistics {
	return makeChainStatistics(cfg.Chains, logger.NewLogger(cfg.LogLevel, "Chain-Statistics"))
}

func makeChainStatistics(chains int, log logger.Logger) *ChainStatistics {
	if chains < 1 {
		chains = 1
	}
	return &ChainStatistics{log: log, chains: chains}
}

// ChainStatistics keeps incremental statistics of the measured chi-square
// values per chain. Every chain only touches its own entry, so no locking
// is needed while chains are running.
type ChainStatistics struct {
	extension.NilExtension
	log    logger.Logger
	chains int
	stats  []*analytics.IncrementalStats
	total  *analytics.IncrementalStats
}

func (s *ChainStatistics) PreRun(executor.State, *executor.Context) error {
	s.stats = make([]*analytics.IncrementalStats, s.chains)
	for i := range s.stats {
		s.stats[i] = analytics.NewIncrementalStats()
	}
	s.total = nil
	return nil
}

func (s *ChainStatistics) PostIteration(state executor.State, ctx *executor.Context) error {
	if !ctx.Step.Measured {
		return nil
	}
	stats, err := s.get(state.Chain)
	if err != nil {
		return err
	}
	stats.Update(ctx.Step.Statistic)
	return nil
}

func (s *ChainStatistics) PostChain(state executor.State, ctx *executor.Context) error {
	stats, err := s.get(state.Chain)
	if err != nil {
		return err
	}
	acceptance := 0.0
	if ctx.Summary.Iterations > 0 {
		acceptance = 100 * float64(ctx.Summary.Accepted) / float64(ctx.Summary.Iterations)
	}
	if ctx.Summary.Iterations > 0 && ctx.Summary.Accepted == 0 {
		s.log.Warningf("Chain %d never left the observed table", state.Chain)
	}
	s.log.Infof(chainStatisticsFormat, state.Chain,
		stats.GetMean(), stats.GetStandardDeviation(), stats.GetMin(), stats.GetMax(), acceptance)
	return nil
}

func (s *ChainStatistics) PostRun(_ executor.State, _ *executor.Context, err error) error {
	if s.stats == nil {
		return nil
	}
	total := analytics.NewIncrementalStats()
	for _, stats := range s.stats {
		total.Merge(stats)
	}
	s.total = total
	if err == nil && total.GetCount() > 0 {
		s.log.Noticef(runStatisticsFormat,
			total.GetMean(), total.GetStandardDeviation(), total.GetMin(), total.GetMax(), total.GetCount())
	}
	return nil
}

// Total returns the statistics merged over all chains, nil before PostRun.
func (s *ChainStatistics) Total() *analytics.IncrementalStats {
	return s.total
}

func (s *ChainStatistics) get(chain int) (*analytics.IncrementalStats, error) {
	if chain < 0 || chain >= len(s.stats) {
		return nil, fmt.Errorf("chain %d out of range [0,%d)", chain, len(s.stats))
	}
	return s.stats[chain], nil
}
