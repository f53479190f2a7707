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

package register

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/Fantom-foundation/Fiber/executor"
	"github.com/Fantom-foundation/Fiber/executor/extension"
	"github.com/Fantom-foundation/Fiber/logger"
	"github.com/Fantom-foundation/Fiber/utils"
	"github.com/google/uuid"
)

const (
	registerMetadataCreateTableIfNotExist = `
		CREATE TABLE IF NOT EXISTS metadata (
			key TEXT NOT NULL,
			value TEXT
		)
	`
	registerMetadataInsert = `INSERT INTO metadata (key, value) VALUES (?, ?)`

	registerChainsCreateTableIfNotExist = `
		CREATE TABLE IF NOT EXISTS chains (
			chain INTEGER NOT NULL,
			iterations INTEGER,
			burn_in INTEGER,
			measured INTEGER,
			significant INTEGER,
			accepted INTEGER,
			infeasible INTEGER,
			observed_statistic REAL,
			p_value REAL,
			runtime REAL
		)
	`
	registerChainsInsert = `
		INSERT INTO chains (
			chain, iterations, burn_in,
			measured, significant, accepted, infeasible,
			observed_statistic, p_value, runtime
		) VALUES (
			?, ?, ?,
			?, ?, ?, ?,
			?, ?, ?
		)
	`
)

// MakeRunRegister creates an extension recording the configuration and the
// per-chain results of a run in a fresh sqlite3 database inside
// cfg.RegisterRun named after the run's identifier.
func MakeRunRegister(cfg *utils.Config) executor.Extension {
	if cfg.RegisterRun == "" {
		return extension.NilExtension{}
	}
	return makeRunRegister(cfg, uuid.NewString(), logger.NewLogger(cfg.LogLevel, "Run-Register"))
}

func makeRunRegister(cfg *utils.Config, id string, log logger.Logger) *runRegister {
	return &runRegister{
		cfg:    cfg,
		id:     id,
		log:    log,
		ps:     utils.NewPrinters(),
		starts: map[int]time.Time{},
	}
}

type runRegister struct {
	extension.NilExtension

	cfg *utils.Config
	id  string
	log logger.Logger
	ps  *utils.Printers

	printMu  sync.Mutex
	mu       sync.Mutex
	start    time.Time
	starts   map[int]time.Time
	metadata [][]any
	chains   [][]any
}

// Id returns the identifier of the registered run.
func (r *runRegister) Id() string {
	return r.id
}

// PreRun fails if the register directory does not exist or the database
// cannot be created.
func (r *runRegister) PreRun(executor.State, *executor.Context) error {
	if _, err := os.Stat(r.cfg.RegisterRun); err != nil {
		return fmt.Errorf("cannot register run; %w", err)
	}
	connection := filepath.Join(r.cfg.RegisterRun, fmt.Sprintf("%s.db", r.id))
	r.log.Noticef("Registering to: %s", connection)

	if _, err := r.ps.AddPrintToSqlite3(connection, registerMetadataCreateTableIfNotExist, registerMetadataInsert, r.takeMetadata); err != nil {
		return err
	}
	if _, err := r.ps.AddPrintToSqlite3(connection, registerChainsCreateTableIfNotExist, registerChainsInsert, r.takeChains); err != nil {
		err = errors.Join(err, r.ps.Close())
		r.ps = utils.NewPrinters()
		return err
	}

	r.start = time.Now()
	r.mu.Lock()
	r.metadata = r.configInfo()
	r.mu.Unlock()
	return r.print()
}

func (r *runRegister) PreChain(state executor.State, _ *executor.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.starts[state.Chain] = time.Now()
	return nil
}

func (r *runRegister) PostChain(state executor.State, ctx *executor.Context) error {
	r.mu.Lock()
	s := ctx.Summary
	runtime := time.Since(r.starts[state.Chain]).Seconds()
	r.chains = append(r.chains, []any{
		state.Chain, s.Iterations, s.BurnIn,
		s.Measured, s.Significant, s.Accepted, s.Infeasible,
		s.Observed, s.PValue, runtime,
	})
	r.mu.Unlock()
	return r.print()
}

// PostRun records the outcome of the run and closes the database.
func (r *runRegister) PostRun(_ executor.State, _ *executor.Context, err error) error {
	if r.ps.Len() == 0 {
		return nil
	}
	status := "succeeded"
	if err != nil {
		status = "failed: " + err.Error()
	}
	r.mu.Lock()
	r.metadata = append(r.metadata,
		[]any{"Status", status},
		[]any{"Runtime", strconv.FormatFloat(time.Since(r.start).Seconds(), 'f', 3, 64)},
	)
	r.mu.Unlock()

	printErr := r.print()
	if closeErr := r.ps.Close(); closeErr != nil {
		return closeErr
	}
	return printErr
}

func (r *runRegister) configInfo() [][]any {
	info := [][]any{
		{"RunId", r.id},
		{"Timestamp", strconv.FormatInt(r.start.Unix(), 10)},
		{"AppName", r.cfg.AppName},
		{"CommandName", r.cfg.CommandName},
		{"GitCommit", utils.GitCommit},
		{"Problem", r.cfg.ArgPath},
		{"Iterations", strconv.Itoa(r.cfg.Iterations)},
		{"BurnIn", strconv.Itoa(r.cfg.BurnIn)},
		{"Chains", strconv.Itoa(r.cfg.Chains)},
		{"Workers", strconv.Itoa(r.cfg.Workers)},
		{"RandomSeed", strconv.FormatInt(r.cfg.RandomSeed, 10)},
		{"GenerateBasis", strconv.FormatBool(r.cfg.GenerateBasis)},
	}
	return info
}

func (r *runRegister) takeMetadata() [][]any {
	r.mu.Lock()
	defer r.mu.Unlock()
	rows := r.metadata
	r.metadata = nil
	return rows
}

func (r *runRegister) takeChains() [][]any {
	r.mu.Lock()
	defer r.mu.Unlock()
	rows := r.chains
	r.chains = nil
	return rows
}

// print serializes writes, sqlite3 allows a single writer only.
func (r *runRegister) print() error {
	r.printMu.Lock()
	defer r.printMu.Unlock()
	return r.ps.Print()
}
