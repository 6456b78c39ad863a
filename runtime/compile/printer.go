// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.

// Package compile implements the Printer+Mangler and CodeCache: turning an
// optimized ast.Node tree into a cache.CompiledFunc closure, and gating how
// often that specialization work may run behind a token-bucket budget with
// an LRU, content-addressed result cache.
package compile

import (
	"github.com/probechain/blockvm/runtime/ast"
	"github.com/probechain/blockvm/runtime/cache"
	"github.com/probechain/blockvm/runtime/promise"
	"github.com/probechain/blockvm/runtime/thread"
)

// Print is the Printer: it closes over the already-mangled,
// constant-folded ast.Node tree and returns a cache.CompiledFunc that
// evaluates it directly — skipping the per-op map lookups and ArgBundle
// indirection the interpreted all_ops walk pays on every call — while
// preserving the same control-flow contract (it still returns through
// op.Fn/dispatch for anything the optimizer could not fold: unresolved
// reporters, promises, branch/procedure entry).
//
// CodeCache.Compile refuses any command with UsesPromise set, so every op
// reaching this closure is declared synchronous by the registry. The
// promise.Awaitable check below is a second line of defense in case that
// declaration was wrong, not the primary suspend path.
func Print(root *ast.Node) cache.CompiledFunc {
	folded := make(map[string]any, 4)
	collectConstants(root, folded)
	specialized := buildSpecialized(root)

	return func(op *cache.CachedOp, th *thread.Thread, util *thread.Utility) thread.Status {
		frame := th.TopFrame()
		start := 0
		if frame != nil && frame.ResumeIndex > 0 && frame.ResumeIndex <= len(op.Ops) {
			start = frame.ResumeIndex
		}

		for i := start; i < len(op.Ops); i++ {
			step := op.Ops[i]

			if v, ok := folded[step.ID]; ok {
				if step.ParentValues != nil {
					step.ParentValues.Set(step.ParentKey, v)
				}
				continue
			}

			if spec, ok := specialized[step.ID]; ok {
				value := spec(step, util)
				if step.ParentValues != nil {
					step.ParentValues.Set(step.ParentKey, value)
				}
				if frame != nil {
					frame.ResumeIndex = i + 1
				}
				if th.TopFrame() != frame {
					break
				}
				if th.Status != thread.Running {
					break
				}
				continue
			}

			if !(step.Defined && step.Fn != nil) {
				continue
			}

			value, err := step.Fn(step.ArgValues, util)
			if err != nil {
				util.Sequencer.RetireThread(th)
				return thread.Done
			}

			if aw, ok := value.(promise.Awaitable); ok {
				key, target := step.ParentKey, step.ParentValues
				promise.Suspend(th, aw, step.ID, i+1, func(v any) {
					if target != nil {
						target.Set(key, v)
					}
				})
				return th.Status
			}

			if step.ParentValues != nil {
				step.ParentValues.Set(step.ParentKey, value)
			}
			if frame != nil {
				frame.ResumeIndex = i + 1
			}
			if th.TopFrame() != frame {
				break
			}
			if th.Status != thread.Running {
				break
			}
		}
		return th.Status
	}
}

// collectConstants walks the optimized tree gathering every node the
// constant-fold/cast-fold passes reduced to a literal, keyed by op id, so
// the returned CompiledFunc can skip re-invoking that op's primitive
// entirely on every future call.
func collectConstants(n *ast.Node, out map[string]any) {
	if n == nil {
		return
	}
	if n.Kind == ast.KindConstant && n.OpID != "" {
		out[n.OpID] = n.Fields["value"]
	}
	for _, child := range n.Children {
		collectConstants(child, out)
	}
}
