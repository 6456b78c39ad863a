package cache

import (
	"testing"

	"github.com/probechain/blockvm/runtime/block"
	"github.com/probechain/blockvm/runtime/registry"
	"github.com/probechain/blockvm/runtime/thread"
)

func TestBuildFoldsShadowInputAndAppendsTail(t *testing.T) {
	c := block.NewMapContainer()
	reg := registry.New()

	// shadow-folded literal: math_number with NUM field "3"
	c.Put(&block.Block{ID: "lit", Opcode: "math_number", Fields: map[string]block.FieldSlot{"NUM": {Value: "3"}}})

	var sawArgs *thread.ArgBundle
	reg.Register("looks_say", func(args *thread.ArgBundle, util *thread.Utility) (any, error) {
		sawArgs = args
		return nil, nil
	}, nil, false, false)

	cmd := &block.Block{
		ID:     "say1",
		Opcode: "looks_say",
		Inputs: map[string]block.InputSlot{"MESSAGE": {Block: "lit", Shadow: true}},
	}
	c.Put(cmd)

	cch := New(c, reg)
	entry := cch.Get("say1")

	if entry.Opcode != "looks_say" {
		t.Fatalf("opcode = %q", entry.Opcode)
	}
	if v := entry.ArgValues.Get("MESSAGE"); v != 3.0 {
		t.Fatalf("MESSAGE = %#v, want 3.0 (canonicalized)", v)
	}

	// AllOps must contain the self-invocation entry (writes STATEMENT) and
	// the trailing vm_may_continue op.
	foundSelf, foundMayContinue := false, false
	for _, op := range entry.AllOps {
		if op.Opcode == "looks_say" && op.ParentKey == thread.StatementSlot {
			foundSelf = true
		}
		if op.Opcode == OpMayContinue {
			foundMayContinue = true
		}
	}
	if !foundSelf {
		t.Fatal("AllOps missing self-invocation entry")
	}
	if !foundMayContinue {
		t.Fatal("AllOps missing vm_may_continue tail")
	}

	_ = sawArgs
}

func TestBuildRecursesIntoReporterChain(t *testing.T) {
	c := block.NewMapContainer()
	reg := registry.New()

	reg.Register("operator_add", func(args *thread.ArgBundle, util *thread.Utility) (any, error) {
		a, _ := args.Get("NUM1").(float64)
		b, _ := args.Get("NUM2").(float64)
		return a + b, nil
	}, nil, false, false)
	c.Put(&block.Block{
		ID:     "add1",
		Opcode: "operator_add",
		Fields: map[string]block.FieldSlot{},
		Inputs: map[string]block.InputSlot{
			"NUM1": {Block: "two", Shadow: true},
			"NUM2": {Block: "three", Shadow: true},
		},
	})
	c.Put(&block.Block{ID: "two", Opcode: "math_number", Fields: map[string]block.FieldSlot{"NUM": {Value: "2"}}})
	c.Put(&block.Block{ID: "three", Opcode: "math_number", Fields: map[string]block.FieldSlot{"NUM": {Value: "3"}}})

	reg.Register("looks_say", func(args *thread.ArgBundle, util *thread.Utility) (any, error) {
		return nil, nil
	}, nil, false, false)
	c.Put(&block.Block{
		ID:     "say1",
		Opcode: "looks_say",
		Inputs: map[string]block.InputSlot{"MESSAGE": {Block: "add1"}},
	})

	cch := New(c, reg)
	entry := cch.Get("say1")

	var addOp *CachedOp
	for _, op := range entry.AllOps {
		if op.Opcode == "operator_add" {
			addOp = op
		}
	}
	if addOp == nil {
		t.Fatal("operator_add op not found in AllOps")
	}
	if addOp.ParentKey != "MESSAGE" {
		t.Fatalf("operator_add parent key = %q, want MESSAGE", addOp.ParentKey)
	}
	if addOp.ArgValues.Get("NUM1") != 2.0 || addOp.ArgValues.Get("NUM2") != 3.0 {
		t.Fatalf("operator_add args = %#v, %#v", addOp.ArgValues.Get("NUM1"), addOp.ArgValues.Get("NUM2"))
	}
}

func TestBuildMissingBlockRetires(t *testing.T) {
	c := block.NewMapContainer()
	reg := registry.New()

	cch := New(c, reg)
	entry := cch.Get("ghost")
	if entry.Opcode != OpNull {
		t.Fatalf("opcode = %q, want %q", entry.Opcode, OpNull)
	}
	if !entry.Defined || entry.Fn == nil {
		t.Fatal("null op must be runnable so dispatch actually retires the thread")
	}
}
