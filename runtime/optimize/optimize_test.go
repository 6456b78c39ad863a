package optimize

import (
	"testing"

	"github.com/probechain/blockvm/runtime/ast"
	"github.com/probechain/blockvm/runtime/cache"
	"github.com/probechain/blockvm/runtime/thread"
)

func argBundle(kv ...any) *thread.ArgBundle {
	b := thread.NewArgBundle()
	for i := 0; i+1 < len(kv); i += 2 {
		b.Set(kv[i].(string), kv[i+1])
	}
	return b
}

func TestOptimizeInlinesMathOp(t *testing.T) {
	cmd := &cache.CachedOp{
		ID: "cmd1", Opcode: "looks_say", ArgValues: thread.NewArgBundle(),
		Ops: []*cache.CachedOp{
			{ID: "round1", Opcode: "operator_round", ArgValues: argBundle("NUM", 3.0), ParentKey: "MESSAGE"},
		},
	}
	root := FromCachedOp(cmd)
	Optimize(root)

	var found *ast.Node
	for _, child := range root.Children {
		if child.OpID == "round1" {
			found = child
		}
	}
	if found == nil {
		t.Fatal("round1 node missing from optimized tree")
	}
	if !found.IsOf(ast.KindMathOp) {
		t.Fatalf("round1 kind = %v, want KindMathOp", found.Kind)
	}
	if found.Operator != "round" {
		t.Fatalf("round1 operator = %q, want round", found.Operator)
	}
}

func TestOptimizeInlinesVariableRef(t *testing.T) {
	cmd := &cache.CachedOp{
		ID: "cmd1", Opcode: "looks_say", ArgValues: thread.NewArgBundle(),
		Ops: []*cache.CachedOp{
			{
				ID: "var1", Opcode: "data_variable",
				ArgValues: argBundle("VARIABLE", thread.IDName{ID: "v-score", Name: "score"}),
				ParentKey: "MESSAGE",
			},
		},
	}
	root := FromCachedOp(cmd)
	Optimize(root)

	n := root.Children[0]
	if !n.IsOf(ast.KindVariableRef) {
		t.Fatalf("var1 kind = %v, want KindVariableRef", n.Kind)
	}
	if n.VariableID != "v-score" || n.VariableName != "score" {
		t.Fatalf("var1 id/name = %q/%q, want v-score/score", n.VariableID, n.VariableName)
	}
}

func TestOptimizeInlinesControlOps(t *testing.T) {
	cmd := &cache.CachedOp{
		ID: "cmd1", Opcode: "looks_say", ArgValues: thread.NewArgBundle(),
		Ops: []*cache.CachedOp{
			{ID: "mc1", Opcode: cache.OpMayContinue, ArgValues: argBundle("EXPECT", "cmd1", "NEXT", "")},
		},
	}
	root := FromCachedOp(cmd)
	Optimize(root)

	n := root.Children[0]
	if !n.IsOf(ast.KindControlOp) || n.Operator != "may_continue" {
		t.Fatalf("mc1 kind/operator = %v/%q, want KindControlOp/may_continue", n.Kind, n.Operator)
	}
}

func TestOptimizeFoldsArithmeticAfterInlining(t *testing.T) {
	cmd := &cache.CachedOp{
		ID: "cmd1", Opcode: "looks_say", ArgValues: thread.NewArgBundle(),
		Ops: []*cache.CachedOp{
			{
				ID: "add1", Opcode: "operator_add",
				ArgValues: argBundle("NUM1", 2.0, "NUM2", 3.0),
				ParentKey: "MESSAGE",
			},
		},
	}
	root := FromCachedOp(cmd)
	Optimize(root)

	n := root.Children[0]
	if n.Kind != ast.KindConstant {
		t.Fatalf("add1 kind = %v, want folded KindConstant", n.Kind)
	}
	if n.Fields["value"] != 5.0 {
		t.Fatalf("add1 value = %#v, want 5.0", n.Fields["value"])
	}
}

func TestOptimizeMangleOnlyRepeatedRefs(t *testing.T) {
	shared := &cache.CachedOp{ID: "lit", Opcode: "math_number", ArgValues: argBundle()}
	cmd := &cache.CachedOp{
		ID: "cmd1", Opcode: "looks_say", ArgValues: thread.NewArgBundle(),
		Ops: []*cache.CachedOp{shared, shared},
	}
	root := FromCachedOp(cmd)
	Optimize(root)

	if root.Children[0].MangledName == "" {
		t.Fatal("an op referenced twice in Ops must get a mangled name")
	}
	if root.Children[0].MangledName != root.Children[1].MangledName {
		t.Fatal("both nodes for the same op id must mangle to the same name")
	}
}
