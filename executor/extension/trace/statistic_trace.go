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

package trace

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/Fantom-foundation/Fiber/executor"
	"github.com/Fantom-foundation/Fiber/executor/extension"
	"github.com/Fantom-foundation/Fiber/logger"
	"github.com/Fantom-foundation/Fiber/utils"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"
)

// MakeStatisticTrace creates an extension recording every interval-th
// chi-square statistic of every chain and rendering the traces as an HTML
// line chart into cfg.TraceFile once the run ends.
func MakeStatisticTrace(cfg *utils.Config) executor.Extension {
	if cfg.TraceFile == "" {
		return extension.NilExtension{}
	}
	interval := cfg.TraceInterval
	if interval <= 0 {
		interval = utils.DefaultTraceInterval
	}
	return makeStatisticTrace(cfg.TraceFile, interval, logger.NewLogger(cfg.LogLevel, "Statistic-Trace"))
}

func makeStatisticTrace(path string, interval int, log logger.Logger) *statisticTrace {
	return &statisticTrace{
		path:     path,
		interval: interval,
		log:      log,
		traces:   map[int][][2]float64{},
	}
}

type statisticTrace struct {
	extension.NilExtension
	path     string
	interval int
	log      logger.Logger

	mu       sync.Mutex
	traces   map[int][][2]float64
	observed float64
	total    int
}

func (t *statisticTrace) PreChain(state executor.State, ctx *executor.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.observed = ctx.Sampler.ObservedStatistic()
	t.total = 0
	// the starting point of every chain is the observed table
	t.traces[state.Chain] = [][2]float64{{0, t.observed}}
	return nil
}

func (t *statisticTrace) PostIteration(state executor.State, ctx *executor.Context) error {
	if (state.Iteration+1)%t.interval != 0 {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.traces[state.Chain] = append(t.traces[state.Chain], [2]float64{float64(state.Iteration + 1), ctx.Step.Statistic})
	if state.Iteration+1 > t.total {
		t.total = state.Iteration + 1
	}
	return nil
}

// PostRun renders the recorded traces, also for aborted runs.
func (t *statisticTrace) PostRun(executor.State, *executor.Context, error) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.traces) == 0 {
		return nil
	}

	file, err := os.Create(t.path)
	if err != nil {
		return fmt.Errorf("cannot create trace file; %w", err)
	}
	page := components.NewPage()
	page.PageTitle = "Chi-square trace"
	page.AddCharts(t.newTraceChart())
	err = errors.Join(page.Render(file), file.Close())
	if err == nil {
		t.log.Noticef("Statistic trace written to %s", t.path)
	}
	return err
}

func (t *statisticTrace) newTraceChart() *charts.Line {
	chart := charts.NewLine()
	chart.SetGlobalOptions(charts.WithInitializationOpts(opts.Initialization{
		Theme: types.ThemeWesteros,
	}),
		charts.WithToolboxOpts(opts.Toolbox{
			Show: true,
			Feature: &opts.ToolBoxFeature{
				SaveAsImage: &opts.ToolBoxFeatureSaveAsImage{
					Show:  true,
					Title: "Save",
				},
				DataZoom: &opts.ToolBoxFeatureDataZoom{
					Show: true,
				},
			},
		}),
		charts.WithLegendOpts(opts.Legend{Show: true}),
		charts.WithXAxisOpts(opts.XAxis{Name: "iteration", Type: "value"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "chi-square", Type: "value"}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Chi-square statistic",
			Subtitle: fmt.Sprintf("every %d-th iteration", t.interval),
		}))

	for chain := 0; chain < len(t.traces); chain++ {
		trace, found := t.traces[chain]
		if !found {
			continue
		}
		chart.AddSeries(fmt.Sprintf("chain %d", chain), convertTraceData(trace))
	}
	chart.AddSeries("observed", convertTraceData([][2]float64{{0, t.observed}, {float64(t.total), t.observed}}))
	return chart
}

func convertTraceData(data [][2]float64) []opts.LineData {
	items := make([]opts.LineData, 0, len(data))
	for _, pair := range data {
		items = append(items, opts.LineData{Value: pair})
	}
	return items
}
