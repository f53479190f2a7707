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
	"fmt"
	"math"

	"github.com/Fantom-foundation/Fiber/contingency"
	"github.com/Fantom-foundation/Fiber/executor"
	"github.com/Fantom-foundation/Fiber/executor/extension"
	"github.com/Fantom-foundation/Fiber/logger"
	"github.com/Fantom-foundation/Fiber/utils"
)

// ErrFiberViolation is reported if a chain left the fiber of the observed table.
var ErrFiberViolation = errors.New("table left the fiber")

// ErrStatisticMismatch is reported if the statistic of a step does not
// belong to the current table.
var ErrStatisticMismatch = errors.New("statistic does not match current table")

const statisticTolerance = 1e-9

// MakeFiberValidator creates an extension checking after every iteration
// that the current table is non-negative, has the observed margins and
// that the reported statistic is the chi-square of the current table.
func MakeFiberValidator(cfg *utils.Config) executor.Extension {
	if !cfg.Validate {
		return extension.NilExtension{}
	}
	return makeFiberValidator(logger.NewLogger(cfg.LogLevel, "Fiber-Validator"))
}

func makeFiberValidator(log logger.Logger) *fiberValidator {
	return &fiberValidator{log: log}
}

type fiberValidator struct {
	extension.NilExtension
	log logger.Logger
}

func (v *fiberValidator) PreRun(executor.State, *executor.Context) error {
	v.log.Warning("Fiber validation is enabled, this slows down sampling considerably")
	return nil
}

func (v *fiberValidator) PostIteration(state executor.State, ctx *executor.Context) error {
	if ctx.Sampler == nil {
		return nil
	}
	current := ctx.Sampler.Table()
	if err := current.Validate(); err != nil {
		return fmt.Errorf("chain %d, iteration %d: %w; %w", state.Chain, state.Iteration, ErrFiberViolation, err)
	}
	if want, got := ctx.Sampler.Observed().Margins(), current.Margins(); !want.Equal(got) {
		return fmt.Errorf("chain %d, iteration %d: %w; margins %v, wanted %v", state.Chain, state.Iteration, ErrFiberViolation, got, want)
	}

	stat, err := contingency.ChiSquare(current, ctx.Sampler.Expected())
	if err != nil {
		return err
	}
	if diff := math.Abs(stat - ctx.Step.Statistic); diff > statisticTolerance*math.Max(1, stat) {
		return fmt.Errorf("chain %d, iteration %d: %w; got %v, wanted %v", state.Chain, state.Iteration, ErrStatisticMismatch, ctx.Step.Statistic, stat)
	}
	return nil
}
