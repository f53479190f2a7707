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
	"errors"
	"fmt"
	"math/rand"
	"os"
	"strconv"
	"testing"

	"github.com/Fantom-foundation/Fiber/contingency"
	"github.com/Fantom-foundation/Fiber/logger"
	"github.com/urfave/cli/v2"
)

type ArgumentMode int

// An enums of argument modes used by exact-cli subcommands
const (
	NoArgs    ArgumentMode = iota // requires no arguments
	PathArg                       // requires 1 argument: path to problem file
	ShapeArgs                     // requires 2 arguments: number of rows and columns
)

const (
	DefaultIterations    = 1_000_000 // iterations of the reference procedure
	DefaultTraceInterval = 1_000     // iterations between two recorded trace points
)

// GitCommit represents the GitHub commit hash the app was built from.
var GitCommit = "0000000000000000000000000000000000000000"

// Config represents execution configuration for Fiber tools.
type Config struct {
	AppName     string
	CommandName string

	ArgPath string // path to the problem file given as argument
	Rows    int    // number of table rows given as argument
	Cols    int    // number of table columns given as argument

	BurnIn        int    // iterations excluded from the significance count
	CPUProfile    string // pprof cpu profile output file name
	Chains        int    // number of independent chains
	GenerateBasis bool   // generate the degree-two basis instead of reading one
	Iterations    int    // iterations per chain
	LogLevel      string // level of the logging of the app action
	Output        string // output file for reports or generated bases
	Quiet         bool   // disable progress report
	RandomSeed    int64  // seed of the first chain, chain i uses RandomSeed+i
	RegisterRun   string // directory receiving the sqlite3 run registry
	TraceFile     string // html file receiving the chi-square trace chart
	TraceInterval int    // iterations between two trace points
	Validate      bool   // check the fiber invariant after every iteration
	Workers       int    // number of worker threads
}

type configContext struct {
	cfg *Config       // run configuration
	log logger.Logger // logger for printing logs in config functions
}

func NewConfigContext(cfg *Config) *configContext {
	return &configContext{
		log: logger.NewLogger(cfg.LogLevel, "Config"),
		cfg: cfg,
	}
}

// NewTestConfig creates a new config for test purpose
func NewTestConfig(t *testing.T, iterations int, chains int, seed int64) *Config {
	t.Helper()
	return &Config{
		Iterations:    iterations,
		Chains:        chains,
		Workers:       1,
		RandomSeed:    seed,
		TraceInterval: DefaultTraceInterval,
		LogLevel:      "critical",
		Quiet:         true,
	}
}

// NewConfig creates and initializes Config with commandline arguments.
func NewConfig(ctx *cli.Context, mode ArgumentMode) (*Config, error) {
	// create config with user flag values, if not set default values are used
	cfg, _, err := createConfigFromFlags(ctx)
	if err != nil {
		return nil, err
	}

	cc := NewConfigContext(cfg)

	err = cc.updateConfigArgs(ctx.Args().Slice(), mode)
	if err != nil {
		return cfg, fmt.Errorf("unable to parse cli arguments; %w", err)
	}

	err = cc.adjustMissingConfigValues()
	if err != nil {
		return nil, fmt.Errorf("cannot adjust missing config values; %w", err)
	}

	cc.reportNewConfig()

	return cfg, nil
}

// updateConfigArgs checks the number of arguments required by the mode and
// stores them in the configuration.
func (cc *configContext) updateConfigArgs(args []string, mode ArgumentMode) error {
	switch mode {
	case NoArgs:
	case PathArg:
		if len(args) != 1 {
			return errors.New("path to a problem file is required to run this command")
		}

		_, err := os.Stat(args[0])
		if err != nil {
			if os.IsNotExist(err) {
				return fmt.Errorf("given path (%v) argument does not exist", args[0])
			}
			return err
		}
		cc.cfg.ArgPath = args[0]
	case ShapeArgs:
		if len(args) != 2 {
			return errors.New("command requires 2 arguments: rows and columns")
		}
		rows, err := strconv.Atoi(args[0])
		if err != nil || rows < 1 {
			return fmt.Errorf("invalid number of rows %q", args[0])
		}
		cols, err := strconv.Atoi(args[1])
		if err != nil || cols < 1 {
			return fmt.Errorf("invalid number of columns %q", args[1])
		}
		if _, err := contingency.CellCount(rows, cols); err != nil {
			return err
		}
		cc.cfg.Rows = rows
		cc.cfg.Cols = cols
	default:
		return fmt.Errorf("unknown argument mode %d", mode)
	}
	return nil
}

// adjustMissingConfigValues fills in defaults and rejects inconsistent values.
func (cc *configContext) adjustMissingConfigValues() error {
	cfg := cc.cfg
	log := cc.log

	if cfg.Iterations < 0 {
		return fmt.Errorf("number of iterations must not be negative, got %d", cfg.Iterations)
	}
	if cfg.BurnIn < 0 {
		return fmt.Errorf("burn-in must not be negative, got %d", cfg.BurnIn)
	}
	if cfg.BurnIn >= cfg.Iterations && cfg.Iterations > 0 {
		log.Warningf("Burn-in of %d iterations covers the whole chain; no iteration will be measured.", cfg.BurnIn)
	}

	if cfg.Chains < 1 {
		log.Warningf("Number of chains %d is invalid; running a single chain.", cfg.Chains)
		cfg.Chains = 1
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.Workers > cfg.Chains {
		cfg.Workers = cfg.Chains
		log.Infof("Reduce number of workers to the number of chains (%d).", cfg.Chains)
	}
	if cfg.TraceInterval < 1 {
		cfg.TraceInterval = DefaultTraceInterval
	}

	if cfg.RandomSeed < 0 {
		cfg.RandomSeed = int64(rand.Uint32())
	}
	return nil
}

// reportNewConfig logs out the state of config in current run
func (cc *configContext) reportNewConfig() {
	cfg := cc.cfg
	log := cc.log

	log.Noticef("Run config:")
	if cfg.ArgPath != "" {
		log.Infof("Problem file: %v", cfg.ArgPath)
	}
	log.Noticef("Iterations per chain: %d (burn-in %d)", cfg.Iterations, cfg.BurnIn)
	log.Noticef("Chains: %d on %d worker(s)", cfg.Chains, cfg.Workers)
	log.Noticef("Random seed: %d", cfg.RandomSeed)
	log.Infof("Generate basis: %v", cfg.GenerateBasis)
	log.Infof("Validate fiber invariant: %v", cfg.Validate)
	if cfg.TraceFile != "" {
		log.Infof("Trace file: %v (every %d iterations)", cfg.TraceFile, cfg.TraceInterval)
	}
	if cfg.RegisterRun != "" {
		log.Infof("Register run in: %v", cfg.RegisterRun)
	}
}
