package thread

// StackFrame is the per-stack-level execution context: warp mode,
// whether this level is a loop, parameter bindings, an opaque execution
// context slot primitives may stash state in across dispatcher re-entries,
// and the waiting-reporter flag used while a child reporter is still being
// evaluated.
type StackFrame struct {
	WarpMode         bool
	IsLoop           bool
	Params           map[string]any
	ExecutionContext any
	WaitingReporter  bool

	// ResumeIndex is the position within the running CachedOp's all_ops that
	// a suspended-on-promise op should resume from. It is kept per-frame
	// rather than on the shared CachedOp.CommandSet header so that two
	// threads cooperatively running the same cached script never clobber
	// each other's resume position; CommandSet.I is not updated during
	// dispatch.
	ResumeIndex int
}

func (f *StackFrame) reset() {
	f.WarpMode = false
	f.IsLoop = false
	f.Params = nil
	f.ExecutionContext = nil
	f.WaitingReporter = false
	f.ResumeIndex = 0
}

// framePool is a per-thread freelist of StackFrames: pool-recycled,
// releasing resets fields and pushes onto a freelist. It is a hand-rolled
// slice-backed stack rather than sync.Pool: sync.Pool may silently drop
// entries under GC pressure, which would defeat pool neutrality — a
// released frame must be indistinguishable from a freshly allocated one,
// deterministically, not "usually".
type framePool struct {
	free []*StackFrame
}

func newFramePool() *framePool {
	return &framePool{}
}

// acquire returns a frame from the freelist, or a fresh zero-value frame if
// the freelist is empty.
func (p *framePool) acquire() *StackFrame {
	n := len(p.free)
	if n == 0 {
		return &StackFrame{}
	}
	f := p.free[n-1]
	p.free = p.free[:n-1]
	return f
}

// release resets f and returns it to the freelist. release must precede the
// frame's next acquire; callers never release a frame still reachable from
// a live Thread.stack.
func (p *framePool) release(f *StackFrame) {
	f.reset()
	p.free = append(p.free, f)
}
