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

package executor

//go:generate mockgen -source executor.go -destination executor_mocks.go -package executor

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/Fantom-foundation/Fiber/contingency"
	"github.com/Fantom-foundation/Fiber/mcmc"
	"github.com/Fantom-foundation/Fiber/utils"
)

// ----------------------------------------------------------------------------
//                             Interfaces
// ----------------------------------------------------------------------------

// Executor is an entity coordinating the iterations of one or more Markov
// chains walking the fiber of an observed table. It implements the decorator
// pattern, allowing extensions to monitor and annotate the walk at various
// hook-in points.
//
// When running sequentially, the general execution is structured as follows:
//
//	PreRun()
//	for each chain {
//	   PreChain()
//	   for each iteration {
//	       PreIteration()
//	       Processor.Process(iteration)
//	       PostIteration()
//	   }
//	   PostChain()
//	}
//	PostRun()
//
// When running with multiple workers, whole chains are distributed among
// the workers. The iterations of a single chain are always processed in
// order by one worker, so the chain-level and iteration-level events of
// different chains may interleave.
//
// Each PreXXX() and PostXXX() is a hook-in point at which extensions may
// track information and/or interfere with the execution. For more details on
// the specific call-backs see the Extension interface below.
type Executor interface {
	// Run executes params.Iterations iterations on each of params.Chains
	// chains and performs the needed call-backs on the provided extensions.
	// If the chain provider, the processor or an extension returns an error,
	// execution stops with the reported error.
	// PreXXX events are delivered to the extensions in the given order, while
	// PostXXX events are delivered in reverse order. If any of the extensions
	// reports an error during processing of an event, the same event is still
	// delivered to the remaining extensions before processing is aborted.
	Run(params Params, processor Processor, extensions []Extension) error
}

// NewExecutor creates a new executor drawing its chains from the given provider.
func NewExecutor(provider ChainProvider) Executor {
	return &executor{provider}
}

// Params summarizes input parameters for a run of the executor.
type Params struct {
	// Chains is the number of independent chains to be run. Any number <= 1
	// is considered to be 1.
	Chains int
	// Iterations is the number of iterations of each chain.
	Iterations int
	// NumWorkers is the number of concurrent goroutines used to run chains.
	// If the number of workers is 1, chains are processed one after the
	// other in increasing order. Any number <= 1 is considered to be 1,
	// thus the default value of 0 is valid.
	NumWorkers int
}

// ChainProvider creates the sampler of a chain. Every chain must own its
// random source and its current table, while the observed table, the
// expected table and the basis may be shared read-only.
type ChainProvider interface {
	NewChain(chain int) (*mcmc.Sampler, error)
}

// Processor is an interface for the entity an executor is feeding
// iterations to.
type Processor interface {
	// Process is called on each iteration of each chain. When running with
	// multiple workers, Process is called concurrently for different chains
	// and is thus required to be thread safe.
	Process(State, *Context) error
}

// Extension is an interface for modular annotations to the execution of
// a set of chains. During various stages, methods of extensions are
// called, enabling them to monitor and/or interfere with the execution.
// Since chains may be processed in parallel, callbacks are generally
// required to be thread safe (with the exception of the Pre-/ and PostRun)
// callback.
type Extension interface {
	// PreRun is called once before any chain is started. If an error is
	// reported, execution will abort after PreRun has been called on all
	// registered Extensions.
	PreRun(State, *Context) error

	// PostRun is guaranteed to be called at the end of each execution. An
	// execution may end successfully, if no error has been produced by the
	// provider, the Processor or any Extension, or in a failure state. In
	// case of a successful execution, the provided state lists the number
	// of chains, while in an error case it references the chain and the
	// iteration during which the first failure occurred. The last parameter
	// contains the error causing the abort.
	PostRun(State, *Context, error) error

	// PreChain is called once a chain's sampler has been created, before its
	// first iteration. The context carries the sampler of the chain.
	PreChain(State, *Context) error

	// PostChain is called after the last iteration of a chain. The context
	// carries the chain's final summary.
	PostChain(State, *Context) error

	// PreIteration is called once before each iteration.
	PreIteration(State, *Context) error

	// PostIteration is called once after each iteration with the step
	// performed by the Processor available in the context.
	PostIteration(State, *Context) error
}

// State summarizes the current position of an execution and is passed to
// Processors and Extensions as an input for their actions.
type State struct {
	// Chain is the index of the current chain, valid for all call-backs
	// except PreRun.
	Chain int

	// Iteration is the 0-based index of the current iteration within its
	// chain. It is only valid for Pre- and PostIteration, PostChain, and
	// for PostRun events in case of an abort.
	Iteration int
}

// Context summarizes context data for the current execution and is passed
// as a mutable object to Processors and Extensions. Either may decide to
// modify its content to implement their respective features.
type Context struct {
	// Sampler is the sampler of the current chain. It is nil during
	// Pre- and PostRun.
	Sampler *mcmc.Sampler

	// Step is the outcome of the last processed iteration.
	Step mcmc.Step

	// Summary is the summary of a finished chain, set before PostChain.
	Summary mcmc.Summary

	// Observed is the observed table, set by the executor for all events
	// once the first chain exists.
	Observed *contingency.Table
}

// ----------------------------------------------------------------------------
//                               Implementations
// ----------------------------------------------------------------------------

type executor struct {
	provider ChainProvider
}

func (e *executor) Run(params Params, processor Processor, extensions []Extension) (err error) {
	if params.Iterations < 0 {
		return fmt.Errorf("invalid number of iterations: %d", params.Iterations)
	}

	state := State{}
	context := Context{}

	defer func() {
		// Skip PostRun actions if a panic occurred. In such a case there is no guarantee
		// on the state of anything, and PostRun operations may deadlock or cause damage.
		if r := recover(); r != nil {
			panic(r) // just forward
		}
		err = errors.Join(
			err,
			signalPostRun(state, &context, err, extensions),
		)
	}()

	if err := signalPreRun(state, &context, extensions); err != nil {
		return err
	}

	if params.Chains <= 1 {
		params.Chains = 1
	}
	if params.NumWorkers <= 1 || params.Chains == 1 {
		return e.runSequential(params, processor, extensions, &state, &context)
	}
	return e.runParallel(params, processor, extensions, &state, &context)
}

func (e *executor) runSequential(params Params, processor Processor, extensions []Extension, state *State, context *Context) error {
	for chain := 0; chain < params.Chains; chain++ {
		state.Chain = chain
		state.Iteration = 0
		if err := e.runChain(params, processor, extensions, state, context, nil); err != nil {
			return err
		}
	}
	state.Chain = params.Chains
	state.Iteration = 0
	context.Sampler = nil
	return nil
}

func (e *executor) runParallel(params Params, processor Processor, extensions []Extension, state *State, context *Context) error {
	numWorkers := params.NumWorkers
	if numWorkers > params.Chains {
		numWorkers = params.Chains
	}

	// Signals an abort of the execution to all workers.
	abort := utils.MakeAbort()

	chains := make(chan int, params.Chains)
	for chain := 0; chain < params.Chains; chain++ {
		chains <- chain
	}
	close(chains)

	var cachedPanic atomic.Value
	var wg sync.WaitGroup
	wg.Add(numWorkers)
	workerErrs := make([]error, numWorkers)
	failedStates := make([]*State, numWorkers)
	for i := 0; i < numWorkers; i++ {
		go func(i int) {
			// registered first so that it runs after the panic is cached
			defer wg.Done()
			// channel panics back to the main thread.
			defer func() {
				if r := recover(); r != nil {
					cachedPanic.Store(r)
					abort.Signal(fmt.Errorf("worker %d panicked", i))
				}
			}()
			for chain := range chains {
				if abort.HasHappened() {
					return
				}
				localState := State{Chain: chain}
				localContext := Context{}
				if err := e.runChain(params, processor, extensions, &localState, &localContext, abort); err != nil {
					workerErrs[i] = err
					failedStates[i] = &localState
					abort.Signal(err)
					return
				}
			}
		}(i)
	}
	wg.Wait()

	if r := cachedPanic.Load(); r != nil {
		panic(r)
	}

	// only the first failure is reported
	err := abort.Cause()
	if err == nil {
		state.Chain = params.Chains
		return nil
	}
	for i, failed := range failedStates {
		if failed != nil && errors.Is(workerErrs[i], err) {
			*state = *failed
			break
		}
	}
	return err
}

// runChain runs all iterations of the chain listed in state. The optional
// abort is checked before every iteration and stops the chain silently.
func (e *executor) runChain(params Params, processor Processor, extensions []Extension, state *State, context *Context, abort utils.Abort) error {
	sampler, err := e.provider.NewChain(state.Chain)
	if err != nil {
		return fmt.Errorf("cannot create chain %d; %w", state.Chain, err)
	}
	context.Sampler = sampler
	context.Observed = sampler.Observed()
	context.Step = mcmc.Step{}
	context.Summary = mcmc.Summary{}

	if err := signalPreChain(*state, context, extensions); err != nil {
		return err
	}
	for it := 0; it < params.Iterations; it++ {
		if abort != nil && abort.HasHappened() {
			return nil
		}
		state.Iteration = it
		if err := runIteration(*state, context, processor, extensions); err != nil {
			return err
		}
	}
	context.Summary = sampler.Summary()
	return signalPostChain(*state, context, extensions)
}

func runIteration(state State, context *Context, processor Processor, extensions []Extension) error {
	if err := signalPreIteration(state, context, extensions); err != nil {
		return err
	}
	if err := processor.Process(state, context); err != nil {
		return err
	}
	if err := signalPostIteration(state, context, extensions); err != nil {
		return err
	}
	return nil
}

func signalPreRun(state State, context *Context, extensions []Extension) error {
	return forEachForward(extensions, func(extension Extension) error {
		return extension.PreRun(state, context)
	})
}

func signalPostRun(state State, context *Context, err error, extensions []Extension) error {
	return forEachBackward(extensions, func(extension Extension) error {
		return extension.PostRun(state, context, err)
	})
}

func signalPreChain(state State, context *Context, extensions []Extension) error {
	return forEachForward(extensions, func(extension Extension) error {
		return extension.PreChain(state, context)
	})
}

func signalPostChain(state State, context *Context, extensions []Extension) error {
	return forEachBackward(extensions, func(extension Extension) error {
		return extension.PostChain(state, context)
	})
}

func signalPreIteration(state State, context *Context, extensions []Extension) error {
	return forEachForward(extensions, func(extension Extension) error {
		return extension.PreIteration(state, context)
	})
}

func signalPostIteration(state State, context *Context, extensions []Extension) error {
	return forEachBackward(extensions, func(extension Extension) error {
		return extension.PostIteration(state, context)
	})
}

func forEachForward(extensions []Extension, op func(extension Extension) error) error {
	errs := []error{}
	for _, extension := range extensions {
		if err := op(extension); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func forEachBackward(extensions []Extension, op func(extension Extension) error) error {
	errs := []error{}
	for i := len(extensions) - 1; i >= 0; i-- {
		if err := op(extensions[i]); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
