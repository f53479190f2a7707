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
	"strconv"

	"github.com/Fantom-foundation/Fiber/contingency"
	"github.com/Fantom-foundation/Fiber/logger"
	"github.com/Fantom-foundation/Fiber/problem"
	"github.com/Fantom-foundation/Fiber/utils"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v2"
)

var InfoCommand = cli.Command{
	Action:    RunInfo,
	Name:      "info",
	Usage:     "prints the observed and expected tables and the asymptotic chi-square test",
	ArgsUsage: "<problem-file>",
	Flags: []cli.Flag{
		&logger.LogLevelFlag,
	},
	Description: `
The exact-cli info command requires one argument: <problem-file>`,
}

// RunInfo prints a description of the problem given as argument.
func RunInfo(ctx *cli.Context) error {
	cfg, err := utils.NewConfig(ctx, utils.PathArg)
	if err != nil {
		return err
	}
	prob, err := problem.Read(cfg.ArgPath)
	if err != nil {
		return fmt.Errorf("cannot read problem; %w", err)
	}
	return printInfo(ctx.App.Writer, prob)
}

func printInfo(w io.Writer, prob *problem.Problem) error {
	observed := prob.Table
	if err := observed.Validate(); err != nil {
		return err
	}
	expected, err := contingency.NewExpected(observed)
	if err != nil {
		return err
	}
	stat, err := contingency.ChiSquare(observed, expected)
	if err != nil {
		return err
	}
	df := contingency.DegreesOfFreedom(observed.Rows, observed.Cols)

	bold := color.New(color.Bold).SprintfFunc()
	output(w, "Observed table:\n")
	observedTable(w, observed)
	output(w, "Expected table:\n")
	expectedTable(w, expected)
	output(w, "Chi-square:\t%s\n", bold("%.6f", stat))
	output(w, "Degrees:\t%s\n", bold("%d", df))
	output(w, "Asymptotic p:\t%s\n", bold("%.6g", contingency.AsymptoticPValue(stat, df)))
	if prob.HasBasis() {
		output(w, "Basis moves:\t%s\n", bold("%d", len(prob.Basis)))
	} else {
		output(w, "Basis moves:\t%s\n", bold("none, degree-two basis has %d", (observed.Rows*(observed.Rows-1)/2)*(observed.Cols*(observed.Cols-1)/2)))
	}
	return nil
}

// observedTable renders the counts together with their margins.
func observedTable(w io.Writer, t *contingency.Table) {
	margins := t.Margins()
	tbl := tablewriter.NewWriter(w)
	tbl.SetHeader(columnHeader(t.Cols, "total"))
	tbl.SetBorder(true)
	for i := 0; i < t.Rows; i++ {
		row := []string{strconv.Itoa(i)}
		for j := 0; j < t.Cols; j++ {
			row = append(row, strconv.Itoa(t.At(i, j)))
		}
		tbl.Append(append(row, strconv.Itoa(margins.Rows[i])))
	}
	footer := []string{"total"}
	for _, c := range margins.Cols {
		footer = append(footer, strconv.Itoa(c))
	}
	tbl.SetFooter(append(footer, strconv.Itoa(margins.Total)))
	tbl.Render()
}

func expectedTable(w io.Writer, e *contingency.Expected) {
	tbl := tablewriter.NewWriter(w)
	tbl.SetHeader(columnHeader(e.Cols))
	tbl.SetBorder(true)
	for i := 0; i < e.Rows; i++ {
		row := []string{strconv.Itoa(i)}
		for j := 0; j < e.Cols; j++ {
			row = append(row, strconv.FormatFloat(e.At(i, j), 'f', 3, 64))
		}
		tbl.Append(row)
	}
	tbl.Render()
}

func columnHeader(cols int, extra ...string) []string {
	header := []string{""}
	for j := 0; j < cols; j++ {
		header = append(header, strconv.Itoa(j))
	}
	return append(header, extra...)
}

// output the given message with formatting.
func output(w io.Writer, format string, a ...any) {
	_, _ = fmt.Fprintf(w, format, a...)
}
