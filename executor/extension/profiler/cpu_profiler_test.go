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
	"os"
	"path/filepath"
	"testing"

	"github.com/Fantom-foundation/Fiber/executor"
	"github.com/Fantom-foundation/Fiber/executor/extension"
	"github.com/Fantom-foundation/Fiber/utils"
)

func TestCpuExtension_CollectProfileDataIfEnabled(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.dat")
	cfg := &utils.Config{CPUProfile: path}
	ext := MakeCpuProfiler(cfg)

	if err := ext.PreRun(executor.State{}, nil); err != nil {
		t.Fatalf("failed to to run pre-run: %v", err)
	}
	if err := ext.PostRun(executor.State{}, nil, nil); err != nil {
		t.Fatalf("failed to to run post-run: %v", err)
	}

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		t.Errorf("no profile was collected")
	}
}

func TestCpuExtension_UnwritablePathIsReported(t *testing.T) {
	cfg := &utils.Config{CPUProfile: filepath.Join(t.TempDir(), "missing", "profile.dat")}
	ext := MakeCpuProfiler(cfg)
	if err := ext.PreRun(executor.State{}, nil); err == nil {
		t.Errorf("profile in missing directory should be reported")
	}
	if err := ext.PostRun(executor.State{}, nil, nil); err != nil {
		t.Errorf("post-run of a profiler that never started failed: %v", err)
	}
}

func TestCpuExtension_NoProfileIsCollectedIfDisabled(t *testing.T) {
	cfg := &utils.Config{}
	ext := MakeCpuProfiler(cfg)

	if _, ok := ext.(extension.NilExtension); !ok {
		t.Errorf("profiler is enabled although not set in configuration")
	}
}
