package promise

import (
	"errors"
	"testing"

	"github.com/probechain/blockvm/runtime/block"
	"github.com/probechain/blockvm/runtime/thread"
)

type fakeAwaitable struct {
	fulfill func(any)
	reject  func(error)
}

func (f *fakeAwaitable) Then(onFulfilled func(any), onRejected func(error)) {
	f.fulfill = onFulfilled
	f.reject = onRejected
}

// TestSuspendParksAndResumesOnFulfill covers the promise scenario: the
// thread parks on PROMISE_WAIT and, once the awaitable settles, the result is
// spliced through write, the frame's waiting flag clears, and the thread goes
// back to RUNNING so the Sequencer reconsiders it.
func TestSuspendParksAndResumesOnFulfill(t *testing.T) {
	c := block.NewMapContainer()
	th := thread.New("t1", "op1", nil, c)
	th.PushStack("op1")

	aw := &fakeAwaitable{}
	var written any
	Suspend(th, aw, "op1", 3, func(v any) { written = v })

	if th.Status != thread.PromiseWait {
		t.Fatalf("status = %v, want PromiseWait", th.Status)
	}
	if th.Reporting != "op1" {
		t.Fatalf("Reporting = %q, want op1", th.Reporting)
	}
	if th.TopFrame().ResumeIndex != 3 || !th.TopFrame().WaitingReporter {
		t.Fatalf("frame = %+v, want ResumeIndex 3, WaitingReporter true", th.TopFrame())
	}

	aw.fulfill(42)

	if written != 42 {
		t.Fatalf("written = %#v, want 42", written)
	}
	if th.JustReported != 42 {
		t.Fatalf("JustReported = %#v, want 42", th.JustReported)
	}
	if th.Status != thread.Running {
		t.Fatalf("status after fulfill = %v, want Running", th.Status)
	}
	if th.TopFrame().WaitingReporter {
		t.Fatal("WaitingReporter must clear on fulfill")
	}
	if len(th.Reported) != 1 || th.Reported[0].OpID != "op1" || th.Reported[0].Value != 42 {
		t.Fatalf("Reported = %+v", th.Reported)
	}
}

// TestSuspendRetiresOnReject covers a rejected promise: it retires the
// thread rather than propagating a Go error with no frame left to return
// through.
func TestSuspendRetiresOnReject(t *testing.T) {
	c := block.NewMapContainer()
	th := thread.New("t1", "op1", nil, c)
	th.PushStack("op1")

	aw := &fakeAwaitable{}
	Suspend(th, aw, "op1", 0, func(any) {})

	aw.reject(errors.New("boom"))

	if th.Status != thread.Done {
		t.Fatalf("status = %v, want Done", th.Status)
	}
	if !th.Empty() {
		t.Fatal("rejection must unwind the whole stack")
	}
	if len(th.Reported) != 1 || th.Reported[0].OpID != "op1" {
		t.Fatalf("Reported = %+v", th.Reported)
	}
}
