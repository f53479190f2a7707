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
	"fmt"
	"io"

	"github.com/Fantom-foundation/Fiber/basis"
	"github.com/Fantom-foundation/Fiber/logger"
	"github.com/Fantom-foundation/Fiber/problem"
	"github.com/Fantom-foundation/Fiber/utils"
	"github.com/urfave/cli/v2"
)

var BasisCommand = cli.Command{
	Action:    RunBasis,
	Name:      "basis",
	Usage:     "generates the degree-two Markov basis of a two-way table",
	ArgsUsage: "<rows> <cols>",
	Flags: []cli.Flag{
		&utils.OutputFlag,
		&logger.LogLevelFlag,
	},
	Description: `
The exact-cli basis command requires two arguments: <rows> <cols>

The basis is written in the basis section format of problem files, to
--output if given (gzip compressed for .gz files), to stdout otherwise.`,
}

// RunBasis writes the degree-two basis for the shape given as arguments.
func RunBasis(ctx *cli.Context) error {
	cfg, err := utils.NewConfig(ctx, utils.ShapeArgs)
	if err != nil {
		return err
	}
	return writeBasis(cfg, ctx.App.Writer)
}

func writeBasis(cfg *utils.Config, w io.Writer) error {
	b := basis.Degree2(cfg.Rows, cfg.Cols)
	if len(b) == 0 {
		return fmt.Errorf("%w: a %dx%d table has no degree-two moves", basis.ErrEmpty, cfg.Rows, cfg.Cols)
	}
	p := &problem.Problem{Basis: b}
	if cfg.Output == "" {
		return problem.Encode(w, p)
	}
	if err := problem.WriteFile(cfg.Output, p); err != nil {
		return err
	}
	logger.NewLogger(cfg.LogLevel, "Basis").Noticef("Written %d moves to %s", len(b), cfg.Output)
	return nil
}
