package cache

import (
	"errors"

	"github.com/probechain/blockvm/runtime/block"
	"github.com/probechain/blockvm/runtime/thread"
)

// ErrMissingBlock is the (non-fatal, recovered) condition behind every
// retiring null op: a referenced block id was not found in the container.
// A missing block never raises an exception; instead a null op is
// synthesized that retires the thread.
var ErrMissingBlock = errors.New("cache: referenced block not found")

// retireFn is the function every synthesized "null block" runs: it retires
// the thread outright rather than producing a value.
func retireFn(_ *thread.ArgBundle, util *thread.Utility) (any, error) {
	util.Sequencer.RetireThread(util.Thread)
	return nil, nil
}

// nullOp builds the substitute op for a missing block reference.
func nullOp(id string, parentValues *thread.ArgBundle, parentKey string) *CachedOp {
	return &CachedOp{
		ID:           id,
		Opcode:       OpNull,
		ArgValues:    thread.NewArgBundle(),
		ParentValues: parentValues,
		ParentKey:    parentKey,
		Defined:      true,
		Fn:           retireFn,
	}
}

// castStringFn is the function behind the synthetic vm_cast_string op the
// cache inserts for a dynamic BROADCAST input: it stringifies
// whatever its single argument evaluated to.
func castStringFn(args *thread.ArgBundle, _ *thread.Utility) (any, error) {
	v := args.Get("VALUE")
	switch t := v.(type) {
	case string:
		return t, nil
	case nil:
		return "", nil
	default:
		return toDisplayString(t), nil
	}
}

func toDisplayString(v any) string {
	switch t := v.(type) {
	case float64:
		return formatNumber(t)
	case bool:
		if t {
			return "true"
		}
		return "false"
	default:
		return ""
	}
}

// reportHatFn is the no-op tail every hat command's Ops ends with; its
// presence is what lets the compiler (runtime/optimize) recognize "this
// chunk started a script" without re-deriving it from the opcode.
func reportHatFn(_ *thread.ArgBundle, _ *thread.Utility) (any, error) {
	return nil, nil
}

// doStackFn is the no-op placeholder for a branch/procedure continuation
// pointer. Interpretation never needs to run it directly — control primitives
// reach the branch by calling Utility.Sequencer.StepToBranch/StepToProcedure,
// which push a new stack entry the subsequent may_continue op observes as a
// change of thread.TopBlock. doStackFn exists so the flattened Ops array
// carries a visible marker at the position the compiler (stage 2) inlines
// directly into a jump.
func doStackFn(_ *thread.ArgBundle, _ *thread.Utility) (any, error) {
	return nil, nil
}

// mayContinueFn builds the function for the vm_may_continue tail op: it
// observes whether the command changed the thread's top-of-stack (a branch
// or procedure was entered) and, if not, advances to the next command or
// pops the frame.
func mayContinueFn(expectStack, nextStack string) thread.PrimitiveFunc {
	return func(_ *thread.ArgBundle, util *thread.Utility) (any, error) {
		th := util.Thread
		if th.TopBlock != expectStack {
			// Control flow already moved (a branch or procedure call pushed
			// a new frame); leave the status the mover already set.
			return nil, nil
		}
		if nextStack != "" {
			th.ReuseStackForNextBlock(nextStack)
			th.Status = thread.Running
			return nil, nil
		}
		th.PopStack()
		if th.Empty() {
			th.Status = thread.Done
		} else {
			th.Status = thread.Interrupt
		}
		return nil, nil
	}
}

// fieldValue resolves one authored field into the arg_values representation:
// a raw value, or an {id, name} bundle when the field carries a reference
// id (variable/list/broadcast fields).
func fieldValue(f block.FieldSlot) any {
	if f.ID != "" {
		return thread.IDName{ID: f.ID, Name: f.Value}
	}
	return f.Value
}
