// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.

// Package cache implements the BlockCache: it flattens one
// script's recursive input/next/branch graph into linear CachedOp arrays,
// the central structure the Dispatcher and Compiler both operate over.
package cache

import "github.com/probechain/blockvm/runtime/thread"

// Synthetic opcodes the cache emits itself, never looked up in the
// PrimitiveRegistry by the author.
const (
	OpEndOfThread      = "vm_end_of_thread"
	OpEndOfProcedure   = "vm_end_of_procedure"
	OpEndOfLoopBranch  = "vm_end_of_loop_branch"
	OpEndOfBranch      = "vm_end_of_branch"
	OpCastString       = "vm_cast_string"
	OpMayContinue      = "vm_may_continue"
	OpDoStack          = "vm_do_stack"
	OpReenterPromise   = "vm_reenter_promise"
	OpReportHat        = "vm_report_hat"
	OpReportStackClick = "vm_report_stack_click"
	OpReportMonitor    = "vm_report_monitor"
	OpNull             = "vm_null"
)

// CompiledFunc is the signature a specialized procedure (runtime/compile)
// replaces the interpreted loop with: given the command's CachedOp and the
// running thread/utility, it executes the entire straight-line sequence the
// CachedOp used to require one-op-at-a-time dispatch for, and returns the
// thread's status at the point it stopped.
type CompiledFunc func(op *CachedOp, th *thread.Thread, util *thread.Utility) thread.Status

// CommandSet is the shared header of a straight-line command sequence: a
// pointer to its first command plus an index I, which is set to 0 at build
// and not updated afterwards. Resuming mid-sequence after a promise uses the
// thread's StackFrame.ResumeIndex instead.
type CommandSet struct {
	FirstCommand *CachedOp
	I            int
}

// CachedOp is the execution-ready record for one block: the
// central structure BlockCache produces and Dispatcher/Compiler consume.
type CachedOp struct {
	ID            string
	Opcode        string
	IndexInScript int

	// Fn/Context split a bound primitive into its unbound function and
	// receiver, so the Dispatcher never re-binds per call.
	Fn      thread.PrimitiveFunc
	Context any

	// ArgValues is reused across every execution of this specific op.
	ArgValues *thread.ArgBundle

	// ParentValues/ParentKey identify the slot this op's reported value is
	// written into after it runs. ParentOffset is the op-index distance from
	// this op to its logical parent in the flattened array; 0 means the
	// immediate parent is the command op itself (an op with no parent slot
	// also keeps 0).
	ParentValues *thread.ArgBundle
	ParentKey    string
	ParentOffset int

	IsHat         bool
	IsShadow      bool
	Defined       bool
	ShadowValue   any
	ProfileOpcode string

	// MayAwait mirrors the registry Entry this op resolved to: true if Fn may
	// return a promise.Awaitable. UsesPromise is the command-level rollup:
	// true if any op in Ops may await, the signal the CodeCache gate checks
	// before ever attempting to specialize this command.
	MayAwait    bool
	UsesPromise bool

	// Ops is the post-order flattening of this command's input subtree,
	// excluding hat/shadow blocks already folded into ArgValues. Only command
	// ops carry Ops; a reporter's child ops are placed in its command's Ops.
	Ops []*CachedOp

	// AllOps is Ops concatenated with the next command's AllOps — the
	// straight-line plan for the entire remaining script segment. It is
	// populated on every command along the Next chain of an entry point.
	AllOps []*CachedOp

	Next       *CachedOp
	Branch     [2]*CachedOp
	CommandSet *CommandSet

	// Count is incremented by the Dispatcher each time it loads this op as a
	// top-of-stack entry or walks past it in all_ops; it is never reset.
	// Compiled is true once BlockFunction has replaced the interpreted
	// all_ops walk.
	Count         int
	Compiled      bool
	BlockFunction CompiledFunc
}

// runnable reports false for an op standing in for a lookup miss or unknown
// opcode: it is recorded but skipped in dispatch.
func (op *CachedOp) runnable() bool {
	return op.Defined && op.Fn != nil
}
