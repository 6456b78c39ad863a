package sequencer

import (
	"testing"

	"github.com/probechain/blockvm/runtime/block"
	"github.com/probechain/blockvm/runtime/cache"
	"github.com/probechain/blockvm/runtime/registry"
	"github.com/probechain/blockvm/runtime/thread"
)

// TestStepToBranchInheritsWarp covers branch entry: a branch target under a
// warp-mode mutation pushes a
// frame with WarpMode set, and the calling thread is left INTERRUPT so the
// Dispatcher's outer loop decides whether to keep trampolining.
func TestStepToBranchInheritsWarp(t *testing.T) {
	c := block.NewMapContainer()
	c.Put(&block.Block{ID: "ifb", Opcode: "control_if", Branches: [2]string{"then1", ""}})
	c.Put(&block.Block{ID: "then1", Opcode: "motion_movesteps", Mutation: map[string]string{"warp": "true"}})

	reg := registry.New()
	cch := cache.New(c, reg)
	s := New(reg, cch, nil, nil, 0)

	th := thread.New("t1", "ifb", nil, c)
	th.PushStack("ifb")

	s.StepToBranch(th, 1, false)

	if th.TopBlock != "then1" {
		t.Fatalf("TopBlock = %q, want then1", th.TopBlock)
	}
	if !th.TopFrame().WarpMode {
		t.Fatal("branch target's warp mutation must propagate to the pushed frame")
	}
	if th.Status != thread.Interrupt {
		t.Fatalf("status = %v, want Interrupt", th.Status)
	}
}

// TestStepToProcedureRecursiveYields covers the recursive-procedure
// scenario: re-entering a non-warp procedure already on the stack yields
// instead of recursing the Go call stack further.
func TestStepToProcedureRecursiveYields(t *testing.T) {
	c := block.NewMapContainer()
	c.Put(&block.Block{ID: "def1", Opcode: "procedures_definition"})
	c.DefineProcedure("jump", "def1", block.ProcedureInfo{})

	reg := registry.New()
	cch := cache.New(c, reg)
	s := New(reg, cch, nil, nil, 0)

	th := thread.New("t1", "caller", nil, c)
	th.PushProcedureStack("def1", "jump")
	s.StepToProcedure(th, "jump")

	if th.Status != thread.Yield {
		t.Fatalf("status = %v, want Yield for a recursive non-warp call", th.Status)
	}
	if len(th.Stack()) != 2 {
		t.Fatalf("stack depth = %d, want 2 (both procedure frames pushed)", len(th.Stack()))
	}
}

// TestStepToProcedureMissingDefinitionRetires covers calling an unknown
// proccode: it retires the thread rather than throwing.
func TestStepToProcedureMissingDefinitionRetires(t *testing.T) {
	c := block.NewMapContainer()
	reg := registry.New()
	cch := cache.New(c, reg)
	s := New(reg, cch, nil, nil, 0)

	th := thread.New("t1", "caller", nil, c)
	th.PushStack("caller")
	s.StepToProcedure(th, "ghost_proc")

	if th.Status != thread.Done {
		t.Fatalf("status = %v, want Done", th.Status)
	}
	if !th.Empty() {
		t.Fatal("RetireThread must unwind the whole stack")
	}
}

// TestStepToProcedureWarpRunsImmediately covers the warp-mode branch: a
// warp procedure keeps the thread RUNNING so the Dispatcher trampolines
// straight into it without a tick boundary.
func TestStepToProcedureWarpRunsImmediately(t *testing.T) {
	c := block.NewMapContainer()
	c.Put(&block.Block{ID: "def1", Opcode: "procedures_definition", Mutation: map[string]string{"warp": "true"}})
	c.DefineProcedure("fast", "def1", block.ProcedureInfo{})

	reg := registry.New()
	cch := cache.New(c, reg)
	s := New(reg, cch, nil, nil, 0)

	th := thread.New("t1", "caller", nil, c)
	th.PushStack("caller")
	s.StepToProcedure(th, "fast")

	if th.Status != thread.Running {
		t.Fatalf("status = %v, want Running", th.Status)
	}
	if !th.TopFrame().WarpMode {
		t.Fatal("warp procedure's own frame must carry WarpMode")
	}
}
