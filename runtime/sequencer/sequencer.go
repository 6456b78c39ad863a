// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.

// Package sequencer implements the Sequencer: the per-tick
// scheduler that steps every runnable thread, enforcing the work-time and
// warp-time budgets, and the control-flow entry points (branch, procedure,
// retire) primitives reach through thread.Utility.Sequencer.
package sequencer

import (
	"time"

	"github.com/probechain/blockvm/runtime/block"
	"github.com/probechain/blockvm/runtime/cache"
	"github.com/probechain/blockvm/runtime/compile"
	"github.com/probechain/blockvm/runtime/dispatch"
	"github.com/probechain/blockvm/runtime/registry"
	"github.com/probechain/blockvm/runtime/thread"
)

// DefaultWarpTimeout is the longest a warp-mode (turbo) thread chain may
// run within one step before yielding control back to the Sequencer
// regardless of remaining work-time budget, absent an explicit override.
const DefaultWarpTimeout = 500 * time.Millisecond

// DefaultWorkFraction is the share of one tick's StepTime budget allotted
// to thread work before the Sequencer starts deferring remaining threads to
// the next tick, absent an explicit override: work time is 75% of the step
// interval.
const DefaultWorkFraction = 0.75

// Sequencer steps a pool of threads once per tick, respecting StepTime and
// implementing thread.SequencerControl for branch/procedure/retire control
// flow.
type Sequencer struct {
	StepTime     time.Duration
	WorkFraction float64
	WarpTimeout  time.Duration

	registry  *registry.Registry
	cache     *cache.Cache
	codeCache *compile.Cache
	ioQuery   thread.IOQueryFunc

	threads []*thread.Thread
}

// New creates a Sequencer driving threads through reg/cch, with ioQuery as
// the BlockUtility I/O seam. stepTime is the nominal tick length
// used to derive the work-time budget. codeCache may be nil to disable
// specialization and always interpret. WorkFraction and WarpTimeout start
// at the package defaults; callers wiring a config.Config may override them
// directly on the returned Sequencer before the first tick.
func New(reg *registry.Registry, cch *cache.Cache, codeCache *compile.Cache, ioQuery thread.IOQueryFunc, stepTime time.Duration) *Sequencer {
	return &Sequencer{
		StepTime: stepTime, WorkFraction: DefaultWorkFraction, WarpTimeout: DefaultWarpTimeout,
		registry: reg, cache: cch, codeCache: codeCache, ioQuery: ioQuery,
	}
}

// AddThread enrolls a new thread for future ticks.
func (s *Sequencer) AddThread(t *thread.Thread) { s.threads = append(s.threads, t) }

// Threads returns the currently enrolled threads, including ones that
// finished on a prior tick (callers should filter by Status == thread.Done
// to reap them; reaping policy is left to the host).
func (s *Sequencer) Threads() []*thread.Thread { return s.threads }

// StepThreads runs one tick: every enrolled, non-DONE thread gets stepped
// until it yields, blocks on a promise, or the work-time budget for this
// tick is exhausted.
func (s *Sequencer) StepThreads() {
	budget := time.Duration(float64(s.StepTime) * s.WorkFraction)
	deadline := time.Now().Add(budget)
	for _, t := range s.threads {
		if t.Status == thread.Done {
			continue
		}
		if time.Now().After(deadline) {
			break
		}
		s.stepThread(t)
	}
}

// stepThread gives a non-warp thread one dispatch.Run per call; it does not
// keep dispatching after a branch or procedure entry within the same call.
// A warp-mode thread is dispatched repeatedly until it is DONE,
// PROMISE_WAIT, YIELD or YIELD_TICK, or WarpTimeout elapses. A thread
// entering in YIELD or YIELD_TICK is set back to RUNNING and not dispatched
// this call. An INTERRUPT left by an earlier dispatch (a branch or procedure
// entry) is cleared to RUNNING before dispatching, so the thread resumes
// from its new top-of-stack.
func (s *Sequencer) stepThread(t *thread.Thread) {
	start := time.Now()
	for {
		if t.Status == thread.Done || t.Status == thread.PromiseWait {
			return
		}
		if t.Status == thread.Interrupt {
			t.Status = thread.Running
		}
		if t.Status == thread.Yield {
			t.Status = thread.Running
			return
		}
		if t.Status == thread.YieldTick {
			t.Status = thread.Running
			return
		}
		warp := t.TopFrame() != nil && t.TopFrame().WarpMode
		util := &thread.Utility{Sequencer: s, Thread: t, Target: t.Target, IOQuery: s.ioQuery}
		dispatch.Run(t, s.cache, util, s.codeCache)
		if !warp {
			return
		}
		if time.Since(start) > s.WarpTimeout {
			t.Status = thread.YieldTick
			return
		}
	}
}

// StepToBranch pushes branchNum's target onto t's stack, inheriting warp
// mode from the target block's own mutation.warp flag when present. isLoop
// marks the frame as a repeat/loop body for StopThisScript and profiling
// purposes.
func (s *Sequencer) StepToBranch(t *thread.Thread, branchNum int, isLoop bool) {
	target, ok := t.Container.BranchOf(t.TopBlock, branchNum)
	if !ok {
		return
	}
	t.PushStack(target)
	f := t.TopFrame()
	f.IsLoop = isLoop
	if warpFlag(t.Container, target) {
		f.WarpMode = true
	}
	t.Status = thread.Interrupt
}

// StepToProcedure enters proccode's definition, applying the recursion and
// warp rules: a non-warp recursive call yields instead of recursing
// synchronously, guarding the Go call stack against unbounded depth;
// everything else proceeds as an immediate INTERRUPT (one more command
// boundary reached) or, once in warp mode, keeps running.
func (s *Sequencer) StepToProcedure(t *thread.Thread, proccode string) {
	defID, ok := t.Container.ProcedureDefinition(proccode)
	if !ok {
		s.RetireThread(t)
		return
	}
	warp := warpFlag(t.Container, defID)
	recursive := t.IsRecursiveCall(proccode)
	t.PushProcedureStack(defID, proccode)
	if warp {
		t.TopFrame().WarpMode = true
		t.Status = thread.Running
		return
	}
	if recursive {
		t.Status = thread.Yield
		return
	}
	t.Status = thread.Interrupt
}

// RetireThread marks t DONE and unwinds its stack.
func (s *Sequencer) RetireThread(t *thread.Thread) {
	for !t.Empty() {
		t.PopStack()
	}
	t.Status = thread.Done
}

func warpFlag(c block.Container, blockID string) bool {
	b, ok := c.Block(blockID)
	if !ok {
		return false
	}
	return b.Mutation["warp"] == "true"
}

var _ thread.SequencerControl = (*Sequencer)(nil)
