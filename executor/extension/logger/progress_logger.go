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

package logger

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Fantom-foundation/Fiber/executor"
	"github.com/Fantom-foundation/Fiber/executor/extension"
	"github.com/Fantom-foundation/Fiber/logger"
	"github.com/Fantom-foundation/Fiber/utils"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	ProgressLoggerDefaultReportFrequency = 15 * time.Second

	progressLoggerReportFormat       = "Elapsed time: %v; iterations %v; last interval rate ~%v it/s; running p-value %.6f"
	finalSummaryProgressReportFormat = "Total elapsed time: %v; iterations %v; total rate ~%v it/s; p-value %.6f"
)

// MakeProgressLogger creates an extension logging a heartbeat of the sampling
// progress every reportFrequency. If reportFrequency is 0, it is set to
// ProgressLoggerDefaultReportFrequency.
func MakeProgressLogger(cfg *utils.Config, reportFrequency time.Duration) executor.Extension {
	if cfg.Quiet {
		return extension.NilExtension{}
	}

	if reportFrequency <= 0 {
		reportFrequency = ProgressLoggerDefaultReportFrequency
	}

	return makeProgressLogger(reportFrequency, logger.NewLogger(cfg.LogLevel, "Progress-Logger"))
}

func makeProgressLogger(reportFrequency time.Duration, log logger.Logger) *progressLogger {
	return &progressLogger{
		log:             log,
		printer:         message.NewPrinter(language.English),
		wg:              new(sync.WaitGroup),
		reportFrequency: reportFrequency,
	}
}

// progressLogger logs human-readable information about progress
// in "heartbeat" depending on reportFrequency. Counters are shared by
// all chains.
type progressLogger struct {
	extension.NilExtension
	log             logger.Logger
	printer         *message.Printer
	wg              *sync.WaitGroup
	stop            chan struct{}
	reportFrequency time.Duration

	iterations  atomic.Uint64
	measured    atomic.Uint64
	significant atomic.Uint64
}

// PreRun starts the report goroutine.
func (l *progressLogger) PreRun(executor.State, *executor.Context) error {
	l.stop = make(chan struct{})
	l.wg.Add(1)
	go l.startReport(l.reportFrequency)
	return nil
}

// PostRun stops the report goroutine and waits for the final summary.
func (l *progressLogger) PostRun(executor.State, *executor.Context, error) error {
	if l.stop == nil {
		return nil
	}
	close(l.stop)
	l.wg.Wait()
	l.stop = nil
	return nil
}

func (l *progressLogger) PostIteration(_ executor.State, ctx *executor.Context) error {
	l.iterations.Add(1)
	if ctx.Step.Measured {
		l.measured.Add(1)
		if ctx.Step.Significant {
			l.significant.Add(1)
		}
	}
	return nil
}

func (l *progressLogger) pValue() float64 {
	measured := l.measured.Load()
	if measured == 0 {
		return 0
	}
	return float64(l.significant.Load()) / float64(measured)
}

// startReport runs in its own goroutine and reports the current progress
// every reportFrequency until the run ends.
func (l *progressLogger) startReport(reportFrequency time.Duration) {
	defer l.wg.Done()

	start := time.Now()
	lastReport := start
	var lastIterations uint64

	ticker := time.NewTicker(reportFrequency)
	defer ticker.Stop()

	for {
		select {
		case <-l.stop:
			elapsed := time.Since(start)
			total := l.iterations.Load()
			rate := float64(total) / elapsed.Seconds()
			l.log.Noticef(finalSummaryProgressReportFormat,
				formatElapsed(elapsed), l.printer.Sprintf("%d", total), l.printer.Sprintf("%.0f", rate), l.pValue())
			return

		case now := <-ticker.C:
			total := l.iterations.Load()
			// skip if nothing happened since the last report
			if total == lastIterations {
				continue
			}
			rate := float64(total-lastIterations) / now.Sub(lastReport).Seconds()
			l.log.Infof(progressLoggerReportFormat,
				formatElapsed(now.Sub(start)), l.printer.Sprintf("%d", total), l.printer.Sprintf("%.0f", rate), l.pValue())
			lastReport = now
			lastIterations = total
		}
	}
}

// formatElapsed renders a duration as hours, minutes and seconds.
func formatElapsed(elapsed time.Duration) string {
	hours, minutes, seconds := logger.ParseTime(elapsed)
	return fmt.Sprintf("%dh %02dm %02ds", hours, minutes, seconds)
}
