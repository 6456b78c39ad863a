// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.

// Package optimize implements the Optimizer: five ordered
// passes that turn a CachedOp's flattened ops into a constant-folded,
// identifier-mangled ast.Node tree ready for the Printer (runtime/compile)
// to emit as a specialized Go closure. Grounded on the constant-fold /
// dead-code-eliminate / common-subexpr-eliminate passes of a register IR
// optimizer, adapted here to a dynamically-typed reporter tree instead of
// a typed SSA form.
package optimize

import (
	"fmt"
	"strconv"

	"github.com/probechain/blockvm/runtime/ast"
	"github.com/probechain/blockvm/runtime/cache"
	"github.com/probechain/blockvm/runtime/thread"
	"github.com/probechain/blockvm/runtime/transform"
)

// FromCachedOp is optimizer stage 1: it builds the ast.Node tree for a
// command: a KindCommand root holding a snapshot of the command's
// ArgValues, with one flat child per op in Ops (KindCommand for a
// statement-slot op, KindReporter otherwise) whose Fields snapshot that
// op's ArgValues. An input that another op in Ops writes at run time is
// dropped from its consumer's Fields, so only literal values remain there.
func FromCachedOp(cmd *cache.CachedOp) *ast.Node {
	root := &ast.Node{Kind: ast.KindCommand, OpID: cmd.ID, Opcode: cmd.Opcode, Fields: map[string]any{}}
	args := snapshotArgs(cmd.ArgValues)
	for key, v := range args {
		root.Fields[key] = v
	}
	byArgs := make(map[*thread.ArgBundle]*ast.Node, len(cmd.Ops))
	for _, op := range cmd.Ops {
		child := nodeForOp(op)
		root.Children = append(root.Children, child)
		if op.ArgValues != nil {
			byArgs[op.ArgValues] = child
		}
	}
	for _, op := range cmd.Ops {
		if consumer, ok := byArgs[op.ParentValues]; ok && op.ParentValues != nil {
			delete(consumer.Fields, op.ParentKey)
		}
	}
	return root
}

func nodeForOp(op *cache.CachedOp) *ast.Node {
	kind := ast.KindReporter
	if op.ParentKey == thread.StatementSlot {
		kind = ast.KindCommand
	}
	n := &ast.Node{Kind: kind, OpID: op.ID, Opcode: op.Opcode, ParentKey: op.ParentKey, Fields: snapshotArgs(op.ArgValues)}
	return n
}

func snapshotArgs(b *thread.ArgBundle) map[string]any {
	out := make(map[string]any)
	if b == nil {
		return out
	}
	for _, k := range b.Keys() {
		out[k] = b.Get(k)
	}
	return out
}

// foldableArithmetic maps an opcode to the binary function it computes, for
// stage 3's constant folding of arithmetic nodes (stage 2 leaves these
// opcodes as they are).
var foldableArithmetic = map[string]func(a, b float64) float64{
	"operator_add":      func(a, b float64) float64 { return a + b },
	"operator_subtract":  func(a, b float64) float64 { return a - b },
	"operator_multiply": func(a, b float64) float64 { return a * b },
	"operator_divide":   func(a, b float64) float64 { return a / b },
}

// mathOperators maps an operator_mathop OPERATOR field value to its
// canonical inlined name, the same vocabulary the Printer's math helpers
// dispatch on.
var mathOperators = map[string]string{
	"abs": "abs", "floor": "floor", "ceiling": "ceiling",
	"sqrt": "sqrt", "sin": "sin", "cos": "cos", "tan": "tan",
	"asin": "asin", "acos": "acos", "atan": "atan",
	"ln": "ln", "log": "log", "e ^": "e^", "10 ^": "10^",
}

// compareOperators maps a boolean-compare opcode to the canonical compare
// mode the Printer's compare(a, b) helper expects.
var compareOperators = map[string]string{
	"operator_equals": "eq",
	"operator_gt":      "gt",
	"operator_lt":      "lt",
}

// listOperators maps a data_* list opcode to its inlined operation name.
var listOperators = map[string]string{
	"data_listcontents":      "contents",
	"data_addtolist":         "add",
	"data_deleteoflist":      "delete",
	"data_itemoflist":        "item",
	"data_lengthoflist":      "length",
	"data_replaceitemoflist": "replace",
}

// Optimize runs stages 2-4 over root (already produced by FromCachedOp):
// inline recognized opcodes, fold arithmetic and casts, then count
// references and assign mangled names. Each pass walks root through
// transform.Iterate — the mutation-safe, non-recursive visitor — rather
// than a hand-rolled recursive descent, so a pass that rewrites a node's
// Kind or Children mid-walk is observed the same way PathTransformer
// guarantees for any other caller. It returns root, mutated in place.
func Optimize(root *ast.Node) *ast.Node {
	roots := []*ast.Node{root}

	transform.Iterate(&roots, transform.Visitor{
		Enter: func(n *ast.Node, _ *[]*ast.Node, _ int) bool {
			inlineKnownOp(n)
			return true
		},
	})

	transform.Iterate(&roots, transform.Visitor{
		Exit: func(n *ast.Node, _ *[]*ast.Node, _ int) {
			foldArithmetic(n)
			foldCasts(n)
		},
	})

	counts := make(map[string]int)
	transform.Iterate(&roots, transform.Visitor{
		Enter: func(n *ast.Node, _ *[]*ast.Node, _ int) bool {
			counts[n.OpID]++
			return true
		},
	})

	transform.Iterate(&roots, transform.Visitor{
		Enter: func(n *ast.Node, _ *[]*ast.Node, _ int) bool {
			mangleOne(n, counts)
			return true
		},
	})

	return root
}

// inlineKnownOp is stage 2: it recognizes math, compare, variable, list,
// argument-reporter, and control opcode families and rewrites n's
// Kind/Operator/VariableID/VariableName in place, so later stages (and
// ultimately the Printer) can dispatch on n.Kind instead of re-parsing
// n.Opcode and n.Fields.
func inlineKnownOp(n *ast.Node) {
	switch {
	case n.Opcode == "operator_round":
		n.Kind = ast.KindMathOp
		n.Operator = "round"

	case n.Opcode == "operator_mod":
		n.Kind = ast.KindMathOp
		n.Operator = "mod"

	case n.Opcode == "operator_mathop":
		if op, ok := fieldString(n.Fields["OPERATOR"]); ok {
			if canon, known := mathOperators[op]; known {
				n.Kind = ast.KindMathOp
				n.Operator = canon
			}
		}

	case compareOperators[n.Opcode] != "":
		n.Kind = ast.KindCompare
		n.Operator = compareOperators[n.Opcode]

	case n.Opcode == "data_variable":
		if id, name, ok := variableField(n.Fields["VARIABLE"]); ok {
			n.Kind = ast.KindVariableRef
			n.VariableID, n.VariableName = id, name
		}

	case n.Opcode == "data_setvariableto" || n.Opcode == "data_changevariableby":
		if id, name, ok := variableField(n.Fields["VARIABLE"]); ok {
			n.Kind = ast.KindVariableSet
			n.VariableID, n.VariableName = id, name
			if n.Opcode == "data_setvariableto" {
				n.Operator = "set"
			} else {
				n.Operator = "change"
			}
		}

	case listOperators[n.Opcode] != "":
		if id, name, ok := variableField(n.Fields["LIST"]); ok {
			n.Kind = ast.KindListOp
			n.VariableID, n.VariableName = id, name
			n.Operator = listOperators[n.Opcode]
		}

	case n.Opcode == "argument_reporter_string_number" || n.Opcode == "argument_reporter_boolean":
		if name, ok := fieldString(n.Fields["VALUE"]); ok {
			n.Kind = ast.KindArgumentRef
			n.VariableName = name
		}

	case n.Opcode == cache.OpMayContinue:
		n.Kind = ast.KindControlOp
		n.Operator = "may_continue"

	case n.Opcode == cache.OpDoStack:
		n.Kind = ast.KindControlOp
		n.Operator = "do_stack"

	case n.Opcode == cache.OpReportHat:
		n.Kind = ast.KindControlOp
		n.Operator = "report_hat"
	}
}

// variableField extracts the {id, name} pair a data_* field carries for a
// variable/list reference. Field values arrive as thread.IDName from the
// cache builder (runtime/cache/synthetic.go fieldValue); anything else means
// this field was not reference-shaped and inlining does not apply.
func variableField(v any) (id, name string, ok bool) {
	idName, ok := v.(thread.IDName)
	if !ok {
		return "", "", false
	}
	return idName.ID, idName.Name, true
}

func fieldString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

// foldArithmetic is stage 3 (arithmetic half): an arithmetic node whose
// NUM1 and NUM2 Fields both hold literal numbers folds to a single
// KindConstant carrying the computed value, eliminating both the op
// dispatch and the bundle write. An operand filled by another op at run
// time is absent from Fields (see FromCachedOp), so such a node does not
// fold; a folded node does not feed its value into another node's Fields.
func foldArithmetic(n *ast.Node) {
	fn, ok := foldableArithmetic[n.Opcode]
	if !ok {
		return
	}
	a, aok := constantFloat(n.Fields["NUM1"])
	b, bok := constantFloat(n.Fields["NUM2"])
	if !aok || !bok {
		return
	}
	n.Kind = ast.KindConstant
	n.Fields = map[string]any{"value": fn(a, b)}
	n.Children = nil
}

func constantFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case string:
		f, err := strconv.ParseFloat(t, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// foldCasts is stage 3 (cast half): a vm_cast_string node whose sole child
// is already constant folds to the constant's string form, same rationale
// as foldArithmetic.
func foldCasts(n *ast.Node) {
	if n.Opcode != cache.OpCastString {
		return
	}
	if len(n.Children) != 1 || n.Children[0].Kind != ast.KindConstant {
		return
	}
	v := n.Children[0].Fields["value"]
	n.Kind = ast.KindConstant
	n.Fields = map[string]any{"value": fmt.Sprintf("%v", v)}
	n.Children = nil
}

// mangleOne is stage 4: any node whose OpID occurs more than once gets a
// short synthetic name, "v" plus the hex FNV-1a hash of the OpID. The
// Printer does not read the name; shared nodes are not hoisted into Go
// locals.
func mangleOne(n *ast.Node, counts map[string]int) {
	if counts[n.OpID] > 1 {
		n.MangledName = fmt.Sprintf("v%x", hashID(n.OpID))
	}
}

func hashID(id string) uint32 {
	var h uint32 = 2166136261
	for i := 0; i < len(id); i++ {
		h ^= uint32(id[i])
		h *= 16777619
	}
	return h
}
