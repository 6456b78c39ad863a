// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.

// Package dispatch implements the Dispatcher: the inner loop
// that walks one CachedOp's all_ops, invoking each runnable op's primitive
// in turn and threading its result into the op's parent argument slot,
// until the thread blocks, interrupts, or finishes.
package dispatch

import (
	"context"

	"github.com/probechain/blockvm/runtime/cache"
	"github.com/probechain/blockvm/runtime/compile"
	"github.com/probechain/blockvm/runtime/promise"
	"github.com/probechain/blockvm/runtime/thread"
)

// HotnessThreshold is how many times Run must load a command as the
// thread's top-of-stack entry before offering it to the CodeCache for
// specialization: the command's count field gates an attempt to compile.
const HotnessThreshold = 20

// Run drives t forward: it repeatedly loads t's top-of-stack CachedOp from
// cch and walks its all_ops from the current frame's resume index, until t
// is no longer RUNNING (it blocked on a promise, yielded, finished, or hit
// an INTERRUPT the caller should see) or an op's primitive returns a Go
// error, which propagates immediately. codeCache may be nil, in which case
// every command is always interpreted.
func Run(t *thread.Thread, cch *cache.Cache, util *thread.Utility, codeCache *compile.Cache) error {
	for t.Status == thread.Running {
		if t.Empty() {
			t.Status = thread.Done
			return nil
		}
		entry := cch.Get(t.TopBlock)
		entry.Count++

		if entry.Compiled && entry.BlockFunction != nil {
			t.Status = entry.BlockFunction(entry, t, util)
			if t.Status == thread.Interrupt && t.Continuous {
				t.Status = thread.Running
			}
			continue
		}

		frame := t.TopFrame()
		start := 0
		if frame != nil {
			start = frame.ResumeIndex
		}
		ops := entry.AllOps

		for i := start; i < len(ops); i++ {
			cur := ops[i]
			cur.Count++
			if !(cur.Defined && cur.Fn != nil) {
				continue
			}

			value, err := cur.Fn(cur.ArgValues, util)
			if err != nil {
				return err
			}

			if aw, ok := value.(promise.Awaitable); ok {
				key, target := cur.ParentKey, cur.ParentValues
				promise.Suspend(t, aw, cur.ID, i+1, func(v any) {
					if target != nil {
						target.Set(key, v)
					}
				})
				return nil
			}

			if cur.ParentValues != nil {
				cur.ParentValues.Set(cur.ParentKey, value)
			}

			if t.TopFrame() != frame {
				// The op just run (typically vm_may_continue reaching a
				// branch/procedure boundary, or a control primitive calling
				// StepToBranch/StepToProcedure directly) pushed or popped a
				// stack frame. The remaining entries of this all_ops array
				// belong to a segment that is no longer on top; stop here
				// and let the outer loop re-fetch the new top's CachedOp.
				break
			}
			frame.ResumeIndex = i + 1

			if t.Status != thread.Running {
				break
			}
		}

		if codeCache != nil && !entry.Compiled && entry.Count >= HotnessThreshold {
			if fn, ok := codeCache.Compile(context.Background(), entry); ok {
				entry.BlockFunction = fn
				entry.Compiled = true
			}
		}

		if t.Status == thread.Interrupt {
			if t.Continuous {
				t.Status = thread.Running
				continue
			}
			return nil
		}
	}
	return nil
}
