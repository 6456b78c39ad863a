// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.

package compile

import (
	"math"
	"strconv"
	"strings"

	"github.com/probechain/blockvm/runtime/ast"
	"github.com/probechain/blockvm/runtime/cache"
	"github.com/probechain/blockvm/runtime/thread"
)

// inlineFunc is the specialized evaluator Print substitutes for a step.Fn
// call once stage 2 (runtime/optimize inlineKnownOp) has recognized the
// step's opcode family. It reads whatever live inputs it needs straight out
// of step.ArgValues/util, exactly like the primitive it replaces would —
// the difference is skipping the registry/closure-binding indirection.
type inlineFunc func(step *cache.CachedOp, util *thread.Utility) any

// buildSpecialized collects, keyed by op id, the inline evaluator for every
// node stage 2 rewrote into one of the specialized Kinds. Nodes left at
// KindReporter/KindCommand fall back to step.Fn in Print's main loop.
func buildSpecialized(root *ast.Node) map[string]inlineFunc {
	out := make(map[string]inlineFunc)
	collectSpecialized(root, out)
	return out
}

func collectSpecialized(n *ast.Node, out map[string]inlineFunc) {
	if n == nil {
		return
	}
	switch {
	case n.IsOf(ast.KindMathOp):
		out[n.OpID] = mathSpec(n.Operator)
	case n.IsOf(ast.KindCompare):
		out[n.OpID] = compareSpec(n.Operator)
	case n.IsOf(ast.KindVariableSet):
		out[n.OpID] = variableSetSpec(n.VariableID, n.Operator)
	case n.IsOf(ast.KindListOp):
		out[n.OpID] = listOpSpec(n.VariableID, n.Operator)
	case n.IsOf(ast.KindVariableRef):
		out[n.OpID] = variableRefSpec(n.VariableID)
	case n.IsOf(ast.KindArgumentRef):
		out[n.OpID] = argumentRefSpec(n.VariableName)
	case n.IsOf(ast.KindControlOp):
		out[n.OpID] = controlOpSpec(n.Operator)
	}
	for _, child := range n.Children {
		collectSpecialized(child, out)
	}
}

// mathSpec inlines operator_round/operator_mathop/operator_mod directly
// into Go math calls: round uses JS Math.round half-rounds-toward-positive-
// infinity semantics (not round-half-to-even), trig runs in degrees, and
// mod takes the sign of its divisor.
func mathSpec(operator string) inlineFunc {
	return func(step *cache.CachedOp, _ *thread.Utility) any {
		switch operator {
		case "round":
			return roundHalfUp(toFloat(step.ArgValues.Get("NUM")))
		case "mod":
			return scratchMod(toFloat(step.ArgValues.Get("NUM1")), toFloat(step.ArgValues.Get("NUM2")))
		default:
			return mathop(operator, toFloat(step.ArgValues.Get("NUM")))
		}
	}
}

func roundHalfUp(n float64) float64 {
	return math.Floor(n + 0.5)
}

func scratchMod(n, modulus float64) float64 {
	if modulus == 0 {
		return math.NaN()
	}
	r := math.Mod(n, modulus)
	if r/modulus < 0 {
		r += modulus
	}
	return r
}

func mathop(operator string, n float64) float64 {
	const degToRad = math.Pi / 180
	switch operator {
	case "abs":
		return math.Abs(n)
	case "floor":
		return math.Floor(n)
	case "ceiling":
		return math.Ceil(n)
	case "sqrt":
		return math.Sqrt(n)
	case "sin":
		return math.Sin(n * degToRad)
	case "cos":
		return math.Cos(n * degToRad)
	case "tan":
		return math.Tan(n * degToRad)
	case "asin":
		return math.Asin(n) / degToRad
	case "acos":
		return math.Acos(n) / degToRad
	case "atan":
		return math.Atan(n) / degToRad
	case "ln":
		return math.Log(n)
	case "log":
		return math.Log10(n)
	case "e^":
		return math.Exp(n)
	case "10^":
		return math.Pow(10, n)
	default:
		return math.NaN()
	}
}

// compareSpec inlines operator_equals/operator_gt/operator_lt via the
// canonical compare(a, b): numeric comparison when both operands parse as
// numbers, case-insensitive string comparison otherwise.
func compareSpec(mode string) inlineFunc {
	return func(step *cache.CachedOp, _ *thread.Utility) any {
		c := compare(step.ArgValues.Get("OPERAND1"), step.ArgValues.Get("OPERAND2"))
		switch mode {
		case "eq":
			return c == 0
		case "gt":
			return c > 0
		default:
			return c < 0
		}
	}
}

// compare implements the canonical two-value comparison: if both a and b
// parse as numbers (including numeric strings), compare numerically;
// otherwise fall back to a case-insensitive string comparison.
func compare(a, b any) int {
	af, aok := numeric(a)
	bf, bok := numeric(b)
	if aok && bok {
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		default:
			return 0
		}
	}
	as, bs := strings.ToLower(toStr(a)), strings.ToLower(toStr(b))
	return strings.Compare(as, bs)
}

func numeric(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case string:
		trimmed := strings.TrimSpace(t)
		if trimmed == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	case bool:
		if t {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}

func toFloat(v any) float64 {
	f, _ := numeric(v)
	return f
}

func toStr(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case nil:
		return ""
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64)
	case bool:
		if t {
			return "true"
		}
		return "false"
	default:
		return ""
	}
}

// variableRefSpec inlines data_variable: a direct VariableStore.GetVariable
// call when the host Target implements one, falling back to step.Fn (the
// registered data_variable primitive) otherwise — a host that never
// implements VariableStore still runs correctly, just uninlined.
func variableRefSpec(variableID string) inlineFunc {
	return func(step *cache.CachedOp, util *thread.Utility) any {
		if vs, ok := util.Variables(); ok {
			return vs.GetVariable(variableID)
		}
		return fallback(step, util)
	}
}

// variableSetSpec inlines data_setvariableto/data_changevariableby.
func variableSetSpec(variableID, operator string) inlineFunc {
	return func(step *cache.CachedOp, util *thread.Utility) any {
		vs, ok := util.Variables()
		if !ok {
			return fallback(step, util)
		}
		value := step.ArgValues.Get("VALUE")
		if operator == "change" {
			value = toFloat(vs.GetVariable(variableID)) + toFloat(value)
		}
		vs.SetVariable(variableID, value)
		return nil
	}
}

// listOpSpec inlines the data_*list family: contents/add/delete/item/
// length/replace against VariableStore.GetList/SetList. Scratch list
// indices are 1-based; an out-of-range index is tolerated (a no-op for
// mutation, empty string for a read), mirroring the permissive behavior of
// a missing-block fallback elsewhere in this package.
func listOpSpec(variableID, operator string) inlineFunc {
	return func(step *cache.CachedOp, util *thread.Utility) any {
		vs, ok := util.Variables()
		if !ok {
			return fallback(step, util)
		}
		switch operator {
		case "contents":
			items := vs.GetList(variableID)
			parts := make([]string, len(items))
			for i, v := range items {
				parts[i] = toStr(v)
			}
			return strings.Join(parts, " ")
		case "length":
			return float64(len(vs.GetList(variableID)))
		case "add":
			vs.SetList(variableID, append(vs.GetList(variableID), step.ArgValues.Get("ITEM")))
			return nil
		case "item":
			items := vs.GetList(variableID)
			i, ok := listIndex(step.ArgValues.Get("INDEX"), len(items))
			if !ok {
				return ""
			}
			return items[i]
		case "delete":
			items := vs.GetList(variableID)
			i, ok := listIndex(step.ArgValues.Get("INDEX"), len(items))
			if !ok {
				return nil
			}
			vs.SetList(variableID, append(append([]any{}, items[:i]...), items[i+1:]...))
			return nil
		case "replace":
			items := vs.GetList(variableID)
			i, ok := listIndex(step.ArgValues.Get("INDEX"), len(items))
			if !ok {
				return nil
			}
			items[i] = step.ArgValues.Get("ITEM")
			vs.SetList(variableID, items)
			return nil
		default:
			return nil
		}
	}
}

func listIndex(raw any, length int) (int, bool) {
	switch s := raw.(type) {
	case string:
		if s == "last" {
			if length == 0 {
				return 0, false
			}
			return length - 1, true
		}
	}
	f, ok := numeric(raw)
	if !ok {
		return 0, false
	}
	i := int(f) - 1
	if i < 0 || i >= length {
		return 0, false
	}
	return i, true
}

// argumentRefSpec inlines argument_reporter_string_number/_boolean: a
// direct stack-frame parameter read via Utility.GetParam, instead of the
// registered primitive's own lookup.
func argumentRefSpec(name string) inlineFunc {
	return func(_ *cache.CachedOp, util *thread.Utility) any {
		return util.GetParam(name)
	}
}

// controlOpSpec inlines the vm_may_continue/vm_do_stack/vm_report_hat
// synthetic tail ops directly into thread operations, skipping the
// PrimitiveFunc indirection the interpreted path still pays for them.
// vm_do_stack and vm_report_hat are no-ops either way; vm_may_continue's
// EXPECT/NEXT were stashed into its ArgValues at build time so the inlined
// form needs no closure capture of its own.
func controlOpSpec(operator string) inlineFunc {
	switch operator {
	case "may_continue":
		return func(step *cache.CachedOp, util *thread.Utility) any {
			th := util.Thread
			expect, _ := step.ArgValues.Get("EXPECT").(string)
			next, _ := step.ArgValues.Get("NEXT").(string)
			if th.TopBlock != expect {
				return nil
			}
			if next != "" {
				th.ReuseStackForNextBlock(next)
				th.Status = thread.Running
				return nil
			}
			th.PopStack()
			if th.Empty() {
				th.Status = thread.Done
			} else {
				th.Status = thread.Interrupt
			}
			return nil
		}
	default:
		return func(_ *cache.CachedOp, _ *thread.Utility) any { return nil }
	}
}

// fallback invokes the op's own registered primitive for a specialized Kind
// whose host Target does not implement VariableStore — a permissive
// degrade-to-interpreted path rather than a hard failure.
func fallback(step *cache.CachedOp, util *thread.Utility) any {
	if !(step.Defined && step.Fn != nil) {
		return nil
	}
	v, err := step.Fn(step.ArgValues, util)
	if err != nil {
		return nil
	}
	return v
}
