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
	"testing"
	"time"

	"github.com/Fantom-foundation/Fiber/executor"
	"github.com/Fantom-foundation/Fiber/executor/extension"
	"github.com/Fantom-foundation/Fiber/logger"
	"github.com/Fantom-foundation/Fiber/mcmc"
	"github.com/Fantom-foundation/Fiber/utils"
	"go.uber.org/goleak"
	"go.uber.org/mock/gomock"
)

const testProgressReportFrequency = time.Second

func TestProgressLoggerExtension_CorrectClose(t *testing.T) {
	defer goleak.VerifyNone(t)
	cfg := &utils.Config{LogLevel: "critical"}
	ext := MakeProgressLogger(cfg, testProgressReportFrequency)

	// start the report thread
	ext.PreRun(executor.State{}, nil)

	// make sure PostRun is not blocking.
	done := make(chan bool)
	go func() {
		ext.PostRun(executor.State{}, nil, nil)
		close(done)
	}()

	select {
	case <-done:
		return
	case <-time.After(time.Second):
		t.Fatalf("PostRun blocked unexpectedly")
	}
}

func TestProgressLoggerExtension_NoLoggerIsCreatedIfDisabled(t *testing.T) {
	cfg := &utils.Config{Quiet: true}
	ext := MakeProgressLogger(cfg, testProgressReportFrequency)
	if _, ok := ext.(extension.NilExtension); !ok {
		t.Errorf("Logger is enabled although quiet mode is set in configuration")
	}
}

func TestProgressLoggerExtension_LoggingHappens(t *testing.T) {
	ctrl := gomock.NewController(t)
	log := logger.NewMockLogger(ctrl)

	ext := makeProgressLogger(testProgressReportFrequency, log)
	ext.PreRun(executor.State{}, nil)

	gomock.InOrder(
		// scheduled logging
		log.EXPECT().Infof(progressLoggerReportFormat, gomock.Any(), "1,500", gomock.Any(), 0.5),
		// defer logging
		log.EXPECT().Noticef(finalSummaryProgressReportFormat, gomock.Any(), "1,500", gomock.Any(), 0.5),
	)

	// fill the logger with some data, half of it significant, half in burn-in
	for i := 0; i < 1_500; i++ {
		ctx := &executor.Context{Step: mcmc.Step{Measured: i%3 != 0, Significant: i%3 == 1}}
		ext.PostIteration(executor.State{Iteration: i}, ctx)
	}

	// we must wait for the ticker to tick
	time.Sleep((3 * testProgressReportFrequency) / 2)

	ext.PostRun(executor.State{}, nil, nil)
}

func TestProgressLoggerExtension_LoggingHappensEvenWhenProgramEndsBeforeTickerTicks(t *testing.T) {
	ctrl := gomock.NewController(t)
	log := logger.NewMockLogger(ctrl)

	// we set large tick rate that does not trigger the ticker
	ext := makeProgressLogger(10*time.Second, log)
	ext.PreRun(executor.State{}, nil)

	log.EXPECT().Noticef(finalSummaryProgressReportFormat, gomock.Any(), "1", gomock.Any(), 0.0)

	ext.PostIteration(executor.State{}, &executor.Context{})
	ext.PostRun(executor.State{}, nil, nil)
}

func TestProgressLoggerExtension_PostRunWithoutPreRunIsHarmless(t *testing.T) {
	ctrl := gomock.NewController(t)
	ext := makeProgressLogger(testProgressReportFrequency, logger.NewMockLogger(ctrl))
	if err := ext.PostRun(executor.State{}, nil, nil); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestProgressLoggerExtension_ElapsedTimeIsFormatted(t *testing.T) {
	tests := map[time.Duration]string{
		0:                       "0h 00m 00s",
		1500 * time.Millisecond: "0h 00m 02s",
		61 * time.Second:        "0h 01m 01s",
		26*time.Hour + 3*time.Minute + 4*time.Second: "26h 03m 04s",
	}
	for elapsed, want := range tests {
		if got := formatElapsed(elapsed); got != want {
			t.Errorf("unexpected format of %v, wanted %q, got %q", elapsed, want, got)
		}
	}
}
