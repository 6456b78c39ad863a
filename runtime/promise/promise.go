// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.

// Package promise implements the PromiseResumer: the bridge
// between a primitive that returns an Awaitable and the thread that must
// park on PROMISE_WAIT until it settles, then resume exactly where it left
// off with the settled value spliced into the waiting op's parent slot.
package promise

import "github.com/probechain/blockvm/runtime/thread"

// Awaitable is the thenable contract a primitive's return value must
// satisfy to suspend its thread instead of resolving synchronously. Then
// must invoke exactly one of its callbacks, exactly once, possibly from
// another goroutine; Suspend's callbacks are safe to call that way.
type Awaitable interface {
	Then(onFulfilled func(any), onRejected func(error))
}

// Suspend parks th on opID's promise: status becomes PROMISE_WAIT, the
// current frame's resume index is recorded as resumeAt, and aw.Then is
// wired so that settling the promise writes the result through write and
// flips the thread back to RUNNING so the Sequencer reconsiders it on a
// later tick.
func Suspend(th *thread.Thread, aw Awaitable, opID string, resumeAt int, write func(any)) {
	th.Status = thread.PromiseWait
	th.Reporting = opID
	if f := th.TopFrame(); f != nil {
		f.ResumeIndex = resumeAt
		f.WaitingReporter = true
	}
	aw.Then(
		func(v any) {
			write(v)
			th.JustReported = v
			th.Reported = append(th.Reported, thread.ReportedValue{OpID: opID, Value: v})
			if f := th.TopFrame(); f != nil {
				f.WaitingReporter = false
			}
			th.Status = thread.Running
		},
		func(err error) {
			// A rejected promise does not propagate a Go error (there is no
			// longer a call frame to return it through); it retires the
			// thread the same way a synchronous throw would further up the
			// stack, recording the rejection for diagnostics.
			th.Reported = append(th.Reported, thread.ReportedValue{OpID: opID, Value: err})
			for !th.Empty() {
				th.PopStack()
			}
			th.Status = thread.Done
		},
	)
}
