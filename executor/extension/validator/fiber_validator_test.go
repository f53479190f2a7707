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

package validator

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/Fantom-foundation/Fiber/basis"
	"github.com/Fantom-foundation/Fiber/contingency"
	"github.com/Fantom-foundation/Fiber/executor"
	"github.com/Fantom-foundation/Fiber/executor/extension"
	"github.com/Fantom-foundation/Fiber/logger"
	"github.com/Fantom-foundation/Fiber/mcmc"
	"github.com/Fantom-foundation/Fiber/utils"
	"go.uber.org/mock/gomock"
)

func newSampler(t *testing.T, b basis.Basis) *mcmc.Sampler {
	t.Helper()
	table, err := contingency.NewTable(2, 3, []int{4, 2, 3, 1, 5, 2})
	if err != nil {
		t.Fatalf("cannot create table: %v", err)
	}
	s, err := mcmc.NewSampler(table, b, rand.New(rand.NewSource(3)))
	if err != nil {
		t.Fatalf("cannot create sampler: %v", err)
	}
	return s
}

func TestFiberValidator_NoValidatorIsCreatedIfDisabled(t *testing.T) {
	ext := MakeFiberValidator(&utils.Config{})
	if _, ok := ext.(extension.NilExtension); !ok {
		t.Errorf("validator is enabled although not set in configuration")
	}
}

func TestFiberValidator_ValidChainPasses(t *testing.T) {
	ctrl := gomock.NewController(t)
	log := logger.NewMockLogger(ctrl)
	log.EXPECT().Warning(gomock.Any())

	ext := makeFiberValidator(log)
	ctx := &executor.Context{Sampler: newSampler(t, basis.Degree2(2, 3))}
	if err := ext.PreRun(executor.State{}, ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 0; i < 1_000; i++ {
		ctx.Step = ctx.Sampler.Step()
		if err := ext.PostIteration(executor.State{Iteration: i}, ctx); err != nil {
			t.Fatalf("valid chain reported as invalid: %v", err)
		}
	}
}

func TestFiberValidator_WrongStatisticIsReported(t *testing.T) {
	ctrl := gomock.NewController(t)
	ext := makeFiberValidator(logger.NewMockLogger(ctrl))

	ctx := &executor.Context{Sampler: newSampler(t, basis.Degree2(2, 3))}
	ctx.Step = ctx.Sampler.Step()
	ctx.Step.Statistic += 1
	if err := ext.PostIteration(executor.State{}, ctx); !errors.Is(err, ErrStatisticMismatch) {
		t.Errorf("unexpected error, wanted %v, got %v", ErrStatisticMismatch, err)
	}
}

func TestFiberValidator_MissingSamplerIsIgnored(t *testing.T) {
	ctrl := gomock.NewController(t)
	ext := makeFiberValidator(logger.NewMockLogger(ctrl))
	if err := ext.PostIteration(executor.State{}, &executor.Context{}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
