package compile

import (
	"testing"

	"github.com/probechain/blockvm/runtime/ast"
	"github.com/probechain/blockvm/runtime/cache"
	"github.com/probechain/blockvm/runtime/thread"
)

func TestPrintInlinesMathOp(t *testing.T) {
	sumArgs := thread.NewArgBundle()
	sumArgs.Set("NUM", -3.2)
	parent := thread.NewArgBundle()

	roundOp := &cache.CachedOp{
		ID: "round1", Opcode: "operator_round", Defined: true,
		ArgValues: sumArgs, ParentValues: parent, ParentKey: "VALUE",
	}
	cmdOp := &cache.CachedOp{ID: "cmd1", Opcode: "looks_say", Ops: []*cache.CachedOp{roundOp}}

	root := &ast.Node{Kind: ast.KindCommand, OpID: "cmd1"}
	mathNode := &ast.Node{Kind: ast.KindMathOp, OpID: "round1", Operator: "round"}
	root.Children = []*ast.Node{mathNode}

	fn := Print(root)
	th := thread.New("t1", "cmd1", nil, nil)

	fn(cmdOp, th, &thread.Utility{Thread: th})

	if got := parent.Get("VALUE"); got != -3.0 {
		t.Fatalf("rounded value = %#v, want -3 (JS Math.round half-up)", got)
	}
}

func TestPrintResumesFromFrameIndex(t *testing.T) {
	var ran []string
	op1 := &cache.CachedOp{
		ID: "op1", Defined: true,
		ArgValues: thread.NewArgBundle(),
		Fn: func(_ *thread.ArgBundle, _ *thread.Utility) (any, error) {
			ran = append(ran, "op1")
			return nil, nil
		},
	}
	op2 := &cache.CachedOp{
		ID: "op2", Defined: true,
		ArgValues: thread.NewArgBundle(),
		Fn: func(_ *thread.ArgBundle, _ *thread.Utility) (any, error) {
			ran = append(ran, "op2")
			return nil, nil
		},
	}
	cmdOp := &cache.CachedOp{ID: "cmd1", Ops: []*cache.CachedOp{op1, op2}}
	root := &ast.Node{Kind: ast.KindCommand, OpID: "cmd1"}

	fn := Print(root)
	th := thread.New("t1", "cmd1", nil, nil)
	th.PushStack("cmd1")
	th.TopFrame().ResumeIndex = 1

	fn(cmdOp, th, &thread.Utility{Thread: th})

	if len(ran) != 1 || ran[0] != "op2" {
		t.Fatalf("ran = %v, want only op2 (op1 already completed before suspend)", ran)
	}
}

func TestPrintInlinesCompare(t *testing.T) {
	args := thread.NewArgBundle()
	args.Set("OPERAND1", "10")
	args.Set("OPERAND2", "9")
	parent := thread.NewArgBundle()

	gtOp := &cache.CachedOp{
		ID: "gt1", Defined: true, ArgValues: args, ParentValues: parent, ParentKey: "VALUE",
	}
	cmdOp := &cache.CachedOp{ID: "cmd1", Ops: []*cache.CachedOp{gtOp}}

	root := &ast.Node{Kind: ast.KindCommand, OpID: "cmd1"}
	root.Children = []*ast.Node{{Kind: ast.KindCompare, OpID: "gt1", Operator: "gt"}}

	fn := Print(root)
	th := thread.New("t1", "cmd1", nil, nil)

	fn(cmdOp, th, &thread.Utility{Thread: th})

	if got := parent.Get("VALUE"); got != true {
		t.Fatalf("10 > 9 compare result = %#v, want true", got)
	}
}
