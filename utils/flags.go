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

package utils

import (
	"github.com/urfave/cli/v2"
)

// Command line options for common flags in Fiber commands.
var (
	BurnInFlag = cli.IntFlag{
		Name:  "burn-in",
		Usage: "number of initial iterations of each chain excluded from the p-value",
		Value: 0,
	}
	ChainsFlag = cli.IntFlag{
		Name:  "chains",
		Usage: "number of independent chains; the p-value is pooled over all chains",
		Value: 1,
	}
	CpuProfileFlag = cli.StringFlag{
		Name:  "cpu-profile",
		Usage: "enables CPU profiling",
	}
	GenerateBasisFlag = cli.BoolFlag{
		Name:  "generate-basis",
		Usage: "use the degree-two Markov basis of the table instead of the basis of the problem file",
	}
	IterationsFlag = cli.IntFlag{
		Name:  "iterations",
		Usage: "number of Metropolis-Hastings iterations per chain",
		Value: DefaultIterations,
	}
	OutputFlag = cli.PathFlag{
		Name:  "output",
		Usage: "output file (reports are written as yaml, or json for a .json extension)",
	}
	QuietFlag = cli.BoolFlag{
		Name:  "quiet",
		Usage: "disable progress report",
	}
	RandomSeedFlag = cli.Int64Flag{
		Name:  "random-seed",
		Usage: "Set random seed; a negative value draws a random seed",
		Value: -1,
	}
	RegisterRunFlag = cli.PathFlag{
		Name:  "register-run",
		Usage: "directory in which a sqlite3 database recording the run is created",
	}
	TraceFileFlag = cli.PathFlag{
		Name:  "trace-file",
		Usage: "html file receiving a chart of the sampled chi-square statistics",
	}
	TraceIntervalFlag = cli.IntFlag{
		Name:  "trace-interval",
		Usage: "number of iterations between two points of the chi-square trace",
		Value: DefaultTraceInterval,
	}
	ValidateFlag = cli.BoolFlag{
		Name:  "validate",
		Usage: "check margins and non-negativity of the current table after every iteration",
	}
	WorkersFlag = cli.IntFlag{
		Name:  "workers",
		Usage: "number of worker threads running chains in parallel",
		Value: 1,
	}
)
