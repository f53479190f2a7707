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

package profiler

import (
	"errors"
	"fmt"
	"os"
	"runtime/pprof"

	"github.com/Fantom-foundation/Fiber/executor"
	"github.com/Fantom-foundation/Fiber/executor/extension"
	"github.com/Fantom-foundation/Fiber/utils"
)

// MakeCpuProfiler creates an extension collecting a CPU profile of the
// whole run into cfg.CPUProfile.
func MakeCpuProfiler(cfg *utils.Config) executor.Extension {
	if cfg.CPUProfile == "" {
		return extension.NilExtension{}
	}
	return &cpuProfiler{path: cfg.CPUProfile}
}

type cpuProfiler struct {
	extension.NilExtension
	path string
	file *os.File
}

func (p *cpuProfiler) PreRun(executor.State, *executor.Context) error {
	f, err := os.Create(p.path)
	if err != nil {
		return fmt.Errorf("could not create CPU profile: %w", err)
	}
	if err := pprof.StartCPUProfile(f); err != nil {
		return errors.Join(fmt.Errorf("could not start CPU profile: %w", err), f.Close())
	}
	p.file = f
	return nil
}

func (p *cpuProfiler) PostRun(executor.State, *executor.Context, error) error {
	if p.file == nil {
		return nil
	}
	pprof.StopCPUProfile()
	err := p.file.Close()
	p.file = nil
	return err
}
