// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.

// Package thread implements the per-thread execution context: the stack of
// StackFrames, status transitions, parameter scoping, and the BlockUtility
// surface exposed to primitives.
package thread

// Status is a thread's run state. The only legal transitions are documented
// on the constants below.
type Status int

const (
	// Running is the default: the dispatcher should keep calling ops.
	Running Status = iota
	// PromiseWait means an op returned an Awaitable; the thread is parked
	// until it is fulfilled or rejected (RUNNING <-> PROMISE_WAIT).
	PromiseWait
	// Yield means the thread willingly gives up its turn until the next
	// tick the Sequencer considers it (RUNNING <-> YIELD).
	Yield
	// YieldTick is a single-tick yield: RUNNING -> YIELD_TICK -> RUNNING on
	// the very next tick, regardless of warp mode.
	YieldTick
	// Interrupt marks a potential block boundary reached by vm_may_continue;
	// in continuous mode the Dispatcher clears it back to RUNNING without
	// returning to the Sequencer (RUNNING -> INTERRUPT -> RUNNING).
	Interrupt
	// Done means the thread's stack is empty or it was retired; terminal.
	Done
)

func (s Status) String() string {
	switch s {
	case Running:
		return "RUNNING"
	case PromiseWait:
		return "PROMISE_WAIT"
	case Yield:
		return "YIELD"
	case YieldTick:
		return "YIELD_TICK"
	case Interrupt:
		return "INTERRUPT"
	case Done:
		return "DONE"
	default:
		return "UNKNOWN"
	}
}
