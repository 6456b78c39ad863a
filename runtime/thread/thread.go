package thread

import "github.com/probechain/blockvm/runtime/block"

// Thread is one cooperatively scheduled execution context: a
// stack of block ids with a parallel stack of StackFrames, a status, and the
// reporter-recovery fields a promise resumption needs.
type Thread struct {
	ID string

	TopBlock string
	Target   any
	Container block.Container

	stack       []string
	stackFrames []*StackFrame
	pool        *framePool

	Status Status

	// Continuous marks a thread mode in which INTERRUPT is immediately
	// cleared to RUNNING, letting the Dispatcher trampoline across command
	// boundaries without returning to the Sequencer.
	Continuous bool

	// Reporter-recovery fields, consumed by runtime/promise.
	Reporting    string // id of the op currently suspended on a promise
	Reported     []ReportedValue
	JustReported any
}

// ReportedValue records a sub-op's already-computed result, captured when a
// thread suspends on a promise so re-entry can skip completed work.
type ReportedValue struct {
	OpID  string
	Value any
}

// New creates an empty, RUNNING thread rooted at topBlock.
func New(id, topBlock string, target any, container block.Container) *Thread {
	return &Thread{
		ID:        id,
		TopBlock:  topBlock,
		Target:    target,
		Container: container,
		pool:      newFramePool(),
		Status:    Running,
	}
}

// Stack returns the current stack of block ids, top-of-stack last.
func (t *Thread) Stack() []string { return t.stack }

// StackFrames returns the current parallel stack of frames, top-of-stack
// last. The returned slice aliases Thread's internal state; callers must
// not retain it across a Push/Pop.
func (t *Thread) StackFrames() []*StackFrame { return t.stackFrames }

// TopFrame returns the frame for the current top of stack, or nil if the
// stack is empty.
func (t *Thread) TopFrame() *StackFrame {
	if len(t.stackFrames) == 0 {
		return nil
	}
	return t.stackFrames[len(t.stackFrames)-1]
}

// PushStack pushes blockID and allocates a StackFrame inheriting warp mode
// from its parent.
func (t *Thread) PushStack(blockID string) {
	f := t.pool.acquire()
	if parent := t.TopFrame(); parent != nil {
		f.WarpMode = parent.WarpMode
	}
	t.stack = append(t.stack, blockID)
	t.stackFrames = append(t.stackFrames, f)
	t.TopBlock = blockID
}

// PushProcedureStack is PushStack plus recording the proccode being entered,
// needed by IsRecursiveCall.
func (t *Thread) PushProcedureStack(blockID, proccode string) {
	t.PushStack(blockID)
	t.TopFrame().ExecutionContext = procMarker{proccode: proccode}
}

type procMarker struct{ proccode string }

// ReuseStackForNextBlock replaces the top stack entry in place: the frame is
// reset but warp mode is preserved.
func (t *Thread) ReuseStackForNextBlock(blockID string) {
	if len(t.stack) == 0 {
		t.PushStack(blockID)
		return
	}
	top := len(t.stack) - 1
	f := t.stackFrames[top]
	warp := f.WarpMode
	f.reset()
	f.WarpMode = warp
	t.stack[top] = blockID
	t.TopBlock = blockID
}

// PopStack pops and releases the top frame, returning the popped block id.
// Returns "" if the stack was already empty.
func (t *Thread) PopStack() string {
	n := len(t.stack)
	if n == 0 {
		return ""
	}
	id := t.stack[n-1]
	f := t.stackFrames[n-1]
	t.stack = t.stack[:n-1]
	t.stackFrames = t.stackFrames[:n-1]
	t.pool.release(f)
	if n > 1 {
		t.TopBlock = t.stack[n-2]
	} else {
		t.TopBlock = ""
	}
	return id
}

// StopThisScript pops frames until a procedures_call frame is the top, or
// the stack is empty; an empty result marks the thread DONE.
func (t *Thread) StopThisScript() {
	for len(t.stack) > 0 {
		if m, ok := t.TopFrame().ExecutionContext.(procMarker); ok {
			_ = m
			return
		}
		t.PopStack()
	}
	t.Status = Done
}

// PushParam stores a parameter binding in the current frame.
func (t *Thread) PushParam(name string, value any) {
	f := t.TopFrame()
	if f == nil {
		return
	}
	if f.Params == nil {
		f.Params = make(map[string]any)
	}
	f.Params[name] = value
}

// InitParams clears the current frame's parameter bindings.
func (t *Thread) InitParams() {
	if f := t.TopFrame(); f != nil {
		f.Params = nil
	}
}

// GetParam walks outward from the current frame looking for name, returning
// the nearest enclosing binding or 0 if none.
func (t *Thread) GetParam(name string) any {
	for i := len(t.stackFrames) - 1; i >= 0; i-- {
		if v, ok := t.stackFrames[i].Params[name]; ok {
			return v
		}
	}
	return 0
}

// PushReportedValue stores v into the thread's JustReported field (nil if v
// is nil) for the reporter-recovery path.
func (t *Thread) PushReportedValue(v any) {
	t.JustReported = v
}

// IsRecursiveCall looks up to 5 frames back for a procedure call frame with
// the same proccode.
func (t *Thread) IsRecursiveCall(proccode string) bool {
	depth := 0
	for i := len(t.stackFrames) - 1; i >= 0 && depth < 5; i-- {
		if m, ok := t.stackFrames[i].ExecutionContext.(procMarker); ok {
			if m.proccode == proccode {
				return true
			}
			depth++
		}
	}
	return false
}

// Empty reports whether the thread's stack has run out.
func (t *Thread) Empty() bool { return len(t.stack) == 0 }
