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

package exact

import (
	"errors"
	"fmt"
	"io"

	"github.com/Fantom-foundation/Fiber/basis"
	"github.com/Fantom-foundation/Fiber/executor"
	progress "github.com/Fantom-foundation/Fiber/executor/extension/logger"
	"github.com/Fantom-foundation/Fiber/executor/extension/profiler"
	"github.com/Fantom-foundation/Fiber/executor/extension/register"
	"github.com/Fantom-foundation/Fiber/executor/extension/statistics"
	"github.com/Fantom-foundation/Fiber/executor/extension/tally"
	"github.com/Fantom-foundation/Fiber/executor/extension/trace"
	"github.com/Fantom-foundation/Fiber/executor/extension/validator"
	"github.com/Fantom-foundation/Fiber/logger"
	"github.com/Fantom-foundation/Fiber/problem"
	"github.com/Fantom-foundation/Fiber/utils"
	"github.com/urfave/cli/v2"
)

var TestCommand = cli.Command{
	Action:    RunTest,
	Name:      "test",
	Usage:     "estimates the p-value of the chi-square independence test by a Markov chain over the fiber",
	ArgsUsage: "<problem-file>",
	Flags: []cli.Flag{
		// Sampling
		&utils.IterationsFlag,
		&utils.BurnInFlag,
		&utils.ChainsFlag,
		&utils.RandomSeedFlag,
		&utils.GenerateBasisFlag,

		// Profiling
		&utils.CpuProfileFlag,
		&utils.TraceFileFlag,
		&utils.TraceIntervalFlag,

		// RegisterRun
		&utils.RegisterRunFlag,

		// Utils
		&utils.WorkersFlag,
		&utils.ValidateFlag,
		&utils.OutputFlag,
		&utils.QuietFlag,
		&logger.LogLevelFlag,
	},
	Description: `
The exact-cli test command requires one argument: <problem-file>

<problem-file> holds the dimensions and counts of the observed table,
optionally followed by the dimensions and vectors of a Markov basis.
Without a basis, or with --generate-basis, the degree-two basis of the
table's shape is used.`,
}

// RunTest runs the Markov chains for the problem given as argument and
// prints the estimated p-value.
func RunTest(ctx *cli.Context) error {
	cfg, err := utils.NewConfig(ctx, utils.PathArg)
	if err != nil {
		return err
	}

	prob, err := problem.Read(cfg.ArgPath)
	if err != nil {
		return fmt.Errorf("cannot read problem; %w", err)
	}

	_, err = runTest(cfg, prob, ctx.App.Writer)
	return err
}

func runTest(cfg *utils.Config, prob *problem.Problem, w io.Writer) (*Report, error) {
	log := logger.NewLogger(cfg.LogLevel, "Exact-Test")

	b := prob.Basis
	switch {
	case cfg.GenerateBasis:
		b = basis.Degree2(prob.Table.Rows, prob.Table.Cols)
	case !prob.HasBasis():
		log.Warning("Problem holds no Markov basis, using the degree-two basis")
		b = basis.Degree2(prob.Table.Rows, prob.Table.Cols)
	}
	log.Infof("Sampling %dx%d table with %d moves", prob.Table.Rows, prob.Table.Cols, len(b))

	provider, err := executor.NewSamplerProvider(prob.Table, b, cfg.RandomSeed, cfg.BurnIn)
	if err != nil {
		return nil, err
	}

	results := tally.MakeTally()
	extensions := []executor.Extension{
		profiler.MakeCpuProfiler(cfg),
		register.MakeRunRegister(cfg),
		progress.MakeProgressLogger(cfg, 0),
		validator.MakeFiberValidator(cfg),
		trace.MakeStatisticTrace(cfg),
		statistics.MakeChainStatistics(cfg),
		results,
	}

	params := executor.Params{
		Chains:     cfg.Chains,
		Iterations: cfg.Iterations,
		NumWorkers: cfg.Workers,
	}
	if err := executor.NewExecutor(provider).Run(params, executor.MakeChainProcessor(), extensions); err != nil {
		return nil, err
	}

	report := makeReport(cfg, prob.Table, results)
	ps, err := makeReportPrinters(cfg, report, w)
	if err != nil {
		return nil, err
	}
	if err := errors.Join(ps.Print(), ps.Close()); err != nil {
		return nil, fmt.Errorf("cannot print report; %w", err)
	}
	if cfg.Output != "" {
		log.Noticef("Report written to %s", cfg.Output)
	}
	return report, nil
}
