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
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/Fantom-foundation/Fiber/contingency"
	"github.com/Fantom-foundation/Fiber/executor/extension/tally"
	"github.com/Fantom-foundation/Fiber/mcmc"
	"github.com/Fantom-foundation/Fiber/utils"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"gopkg.in/yaml.v3"
)

// Report is the outcome of an exact test run.
type Report struct {
	Problem          string              `json:"problem" yaml:"problem"`
	Rows             int                 `json:"rows" yaml:"rows"`
	Cols             int                 `json:"cols" yaml:"cols"`
	RandomSeed       int64               `json:"randomSeed" yaml:"randomSeed"`
	DegreesOfFreedom int                 `json:"degreesOfFreedom" yaml:"degreesOfFreedom"`
	AsymptoticPValue float64             `json:"asymptoticPValue" yaml:"asymptoticPValue"`
	Pooled           mcmc.Summary        `json:"pooled" yaml:"pooled"`
	Chains           []tally.ChainResult `json:"chains" yaml:"chains"`
}

func makeReport(cfg *utils.Config, observed *contingency.Table, t *tally.Tally) *Report {
	pooled := t.Pooled()
	df := contingency.DegreesOfFreedom(observed.Rows, observed.Cols)
	return &Report{
		Problem:          cfg.ArgPath,
		Rows:             observed.Rows,
		Cols:             observed.Cols,
		RandomSeed:       cfg.RandomSeed,
		DegreesOfFreedom: df,
		AsymptoticPValue: contingency.AsymptoticPValue(pooled.Observed, df),
		Pooled:           pooled,
		Chains:           t.Results(),
	}
}

// formatReport renders the p-value line followed by a per-chain summary table.
func formatReport(r *Report) string {
	var b strings.Builder
	bold := color.New(color.Bold).SprintfFunc()
	fmt.Fprintf(&b, "p-value: %s\n", bold("%v", r.Pooled.PValue))
	fmt.Fprintf(&b, "observed statistic: %v (df %d, asymptotic p-value %.6g)\n", r.Pooled.Observed, r.DegreesOfFreedom, r.AsymptoticPValue)
	b.WriteString(prettyTable(r).Render())
	return b.String()
}

func prettyTable(r *Report) table.Writer {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"chain", "iterations", "measured", "significant", "accepted", "infeasible", "p-value"})
	for _, c := range r.Chains {
		s := c.Summary
		t.AppendRow(table.Row{c.Chain, s.Iterations, s.Measured, s.Significant, s.Accepted, s.Infeasible, fmt.Sprintf("%.6f", s.PValue)})
	}
	p := r.Pooled
	t.AppendFooter(table.Row{"total", p.Iterations, p.Measured, p.Significant, p.Accepted, p.Infeasible, fmt.Sprintf("%.6f", p.PValue)})
	return t
}

// makeReportPrinters prints the report to w and, if cfg.Output is set,
// stores it as JSON if the path ends in .json, as YAML otherwise.
func makeReportPrinters(cfg *utils.Config, r *Report, w io.Writer) (*utils.Printers, error) {
	ps := utils.NewPrinters().AddPrintToWriter(w, func() string {
		return formatReport(r)
	})
	if cfg.Output == "" {
		return ps, nil
	}

	var (
		data []byte
		err  error
	)
	if strings.HasSuffix(strings.ToLower(cfg.Output), ".json") {
		data, err = json.MarshalIndent(r, "", "  ")
	} else {
		data, err = yaml.Marshal(r)
	}
	if err != nil {
		return nil, fmt.Errorf("cannot encode report; %w", err)
	}
	return ps.AddPrintToFile(cfg.Output, func() string {
		return string(data)
	}), nil
}
