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

package utils

import (
	"errors"
	"sync"
	"sync/atomic"
)

// Abort is a one-time signal used to stop chains running on several
// workers once any of them failed. The first signalled cause is kept,
// later signals have no effect.
//
//	abort := MakeAbort()
//	// no chain failed yet
//	abort.Signal(err)
//	// every worker observes HasHappened() and stops
//
// All methods are safe for concurrent use.
type Abort interface {
	// HasHappened returns whether the abort was already signalled.
	HasHappened() bool
	// Signal triggers the abort, recording cause if it is the first signal.
	Signal(cause error)
	// Cause returns the error of the first signal, nil before that.
	Cause() error
}

// ErrAborted is reported as cause when Signal is called with a nil error.
var ErrAborted = errors.New("aborted")

func MakeAbort() Abort {
	return &abort{}
}

type abort struct {
	occurred atomic.Bool
	mu       sync.Mutex
	cause    error
}

func (a *abort) HasHappened() bool {
	return a.occurred.Load()
}

func (a *abort) Signal(cause error) {
	if cause == nil {
		cause = ErrAborted
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.occurred.Load() {
		return
	}
	a.cause = cause
	a.occurred.Store(true)
}

func (a *abort) Cause() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.cause
}
