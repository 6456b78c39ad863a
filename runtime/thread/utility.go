package thread

// SequencerControl is the slice of Sequencer behavior a BlockUtility needs
// to expose to primitives and to the control-flow synthetic ops
// (vm_do_stack, vm_may_continue, hat reporters). It is declared here, not in
// package sequencer, so that thread (a low-level package) never imports the
// higher-level scheduler; runtime/sequencer.Sequencer implements it.
type SequencerControl interface {
	StepToBranch(t *Thread, branchNum int, isLoop bool)
	StepToProcedure(t *Thread, proccode string)
	RetireThread(t *Thread)
}

// IOQueryFunc models BlockUtility.ioQuery(service, method, args) — a single
// seam primitives use to reach host I/O (broadcast, cloud variables, sound,
// graphics) without the execution core depending on any of it.
type IOQueryFunc func(service, method string, args []any) any

// Utility is the BlockUtility object: it carries the current sequencer and
// thread pointers. The Sequencer builds a fresh Utility for each Dispatcher
// entry; nothing is restored at exit. Because execution is single-threaded
// cooperative, plain field assignment is sound here — there is deliberately
// no synchronization on this struct.
type Utility struct {
	Sequencer SequencerControl
	Thread    *Thread
	Target    any
	IOQuery   IOQueryFunc
}

// StartProcedure begins a procedure call on the utility's current thread.
func (u *Utility) StartProcedure(proccode string) {
	u.Sequencer.StepToProcedure(u.Thread, proccode)
}

// PushParam stores a parameter binding in the thread's current frame.
func (u *Utility) PushParam(name string, value any) {
	u.Thread.PushParam(name, value)
}

// GetParam reads a parameter binding via the thread's scoped lookup.
func (u *Utility) GetParam(name string) any {
	return u.Thread.GetParam(name)
}

// InitParams resets the current frame's parameter bindings.
func (u *Utility) InitParams() {
	u.Thread.InitParams()
}

// GetProcedureParamNamesIdsAndDefaults delegates to the thread's container.
func (u *Utility) GetProcedureParamNamesIdsAndDefaults(proccode string) (names, ids, defaults []string, ok bool) {
	info, found := u.Thread.Container.ProcedureParams(proccode)
	if !found {
		return nil, nil, nil, false
	}
	return info.Names, info.IDs, info.Defaults, true
}

// VariableStore is the optional interface a host Target may implement to
// let specialized variable/list ops read and write state directly, bypassing
// the registered data_* primitive entirely. A Target that does not implement
// it is not an error: callers fall back to the registered primitive.
type VariableStore interface {
	GetVariable(id string) any
	SetVariable(id string, value any)
	GetList(id string) []any
	SetList(id string, values []any)
}

// Variables returns u.Target as a VariableStore, reporting ok=false when
// Target does not implement one.
func (u *Utility) Variables() (VariableStore, bool) {
	vs, ok := u.Target.(VariableStore)
	return vs, ok
}
