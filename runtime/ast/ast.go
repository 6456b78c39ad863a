// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.

// Package ast defines the intermediate tree the Optimizer (runtime/optimize)
// rewrites between BlockCache's flat CachedOp form and the Printer's
// specialized Go closures: a closed set of NodeKinds, an
// ancestor relation, and structural clone helpers.
package ast

// Kind is one of the closed, enumerated set of node kinds the optimizer
// ever produces or consumes — no open-ended tagging.
type Kind int

const (
	KindScript Kind = iota
	KindCommand
	KindReporter
	KindShadow
	KindBranch
	KindProcedureCall
	KindConstant
	KindVariableRef

	// KindOperator and KindDataOp are forest roots: no node is ever built
	// directly with one of these kinds, but IsOf queries against them match
	// any of their subtypes below, via ancestorsOf.
	KindOperator
	KindDataOp

	KindMathOp      // subtype of KindOperator: round/abs/sqrt/pow/trig/mod
	KindCompare     // subtype of KindOperator: equals/gt/lt
	KindVariableSet // subtype of KindDataOp: setvariableto/changevariableby
	KindListOp      // subtype of KindDataOp: list contents/add/delete/item/length/replace
	KindArgumentRef // subtype of KindDataOp: argument_reporter_*
	KindControlOp   // inlined vm_may_continue/vm_do_stack/vm_report_hat
)

var kindNames = map[Kind]string{
	KindScript:        "script",
	KindCommand:       "command",
	KindReporter:      "reporter",
	KindShadow:        "shadow",
	KindBranch:        "branch",
	KindProcedureCall: "procedure_call",
	KindConstant:      "constant",
	KindVariableRef:   "variable_ref",
	KindOperator:      "operator",
	KindDataOp:        "data_op",
	KindMathOp:        "math_op",
	KindCompare:       "compare",
	KindVariableSet:   "variable_set",
	KindListOp:        "list_op",
	KindArgumentRef:   "argument_ref",
	KindControlOp:     "control_op",
}

func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return "unknown"
}

// ancestors records, for each Kind, the set of Kinds one of its nodes may
// legally nest inside, as queried by IsValidParent. runtime/transform does
// not consult it during a walk.
var ancestors = map[Kind]map[Kind]bool{
	KindCommand:       {KindScript: true, KindBranch: true},
	KindReporter:      {KindCommand: true, KindReporter: true, KindBranch: true, KindProcedureCall: true},
	KindShadow:        {KindCommand: true, KindReporter: true},
	KindBranch:        {KindCommand: true},
	KindProcedureCall: {KindCommand: true, KindReporter: true},
	KindConstant:      {KindCommand: true, KindReporter: true, KindShadow: true},
	KindVariableRef:   {KindCommand: true, KindReporter: true},
	KindMathOp:        {KindCommand: true, KindReporter: true, KindBranch: true, KindProcedureCall: true},
	KindCompare:       {KindCommand: true, KindReporter: true, KindBranch: true, KindProcedureCall: true},
	KindVariableSet:   {KindScript: true, KindBranch: true},
	KindListOp:        {KindScript: true, KindBranch: true, KindCommand: true, KindReporter: true, KindProcedureCall: true},
	KindArgumentRef:   {KindCommand: true, KindReporter: true},
	KindControlOp:     {KindScript: true, KindBranch: true},
}

// IsValidParent reports whether child may legally nest directly inside a
// node of kind parent.
func IsValidParent(parent, child Kind) bool {
	set, ok := ancestors[child]
	if !ok {
		return true
	}
	return set[parent]
}

// subtypeOf declares each kind's immediate supertype in the closed subtype
// forest IsOf checks membership over. A kind absent here is its own root.
var subtypeOf = map[Kind]Kind{
	KindMathOp:      KindOperator,
	KindCompare:     KindOperator,
	KindVariableSet: KindDataOp,
	KindListOp:      KindDataOp,
	KindArgumentRef: KindDataOp,
	KindVariableRef: KindDataOp,
}

// ancestorsOf[k] is the set of kinds a node of kind k "is of": k itself plus
// every supertype reached by following subtypeOf to the forest root.
// Precomputed once at package init so IsOf is a map lookup, never a walk.
var ancestorsOf = buildAncestorsOf()

func buildAncestorsOf() map[Kind]map[Kind]bool {
	out := make(map[Kind]map[Kind]bool, len(kindNames))
	for k := range kindNames {
		set := map[Kind]bool{k: true}
		for cur, ok := k, true; ok; {
			var parent Kind
			parent, ok = subtypeOf[cur]
			if ok {
				set[parent] = true
				cur = parent
			}
		}
		out[k] = set
	}
	return out
}

// Node is one element of the optimizer's working tree. Unlike CachedOp,
// Node is free to be copied and restructured — the optimizer passes work
// entirely on Nodes, never on the live CachedOp graph.
type Node struct {
	Kind      Kind
	OpID      string
	Opcode    string
	Fields    map[string]any
	Children  []*Node
	Next      *Node
	Branches  [2]*Node
	ParentKey string

	// Operator carries the resolved math/compare function name once stage 2
	// inlining recognizes a node as KindMathOp/KindCompare (e.g. "sqrt",
	// "gt"); empty for every other kind.
	Operator string

	// VariableID/VariableName identify the target of a KindVariableRef,
	// KindVariableSet, or KindListOp node once stage 2 inlining resolves it
	// from the block's field, rather than leaving it to a live ArgValues read.
	VariableID   string
	VariableName string

	// MangledName is assigned by the final count-refs/mangle pass to any
	// node whose OpID occurs more than once in the tree. The Printer does
	// not read it; no node is hoisted into a named local.
	MangledName string
}

// IsOf reports whether n.Kind is, or is a subtype of (per the precomputed
// ancestorsOf table), any of kinds — the "is_of" predicate optimizer passes
// use instead of a type switch or flat equality.
func (n *Node) IsOf(kinds ...Kind) bool {
	set := ancestorsOf[n.Kind]
	for _, k := range kinds {
		if set[k] {
			return true
		}
	}
	return false
}

// Clone makes a shallow copy of n: Fields map is copied, but Children,
// Next, and Branches slots still point at the originals.
func (n *Node) Clone() *Node {
	c := *n
	c.Fields = make(map[string]any, len(n.Fields))
	for k, v := range n.Fields {
		c.Fields[k] = v
	}
	c.Children = append([]*Node(nil), n.Children...)
	return &c
}

// CloneDeep recursively clones n and its entire reachable subtree
// (Children, Next chain, Branches).
func (n *Node) CloneDeep() *Node {
	if n == nil {
		return nil
	}
	c := n.Clone()
	c.Children = make([]*Node, len(n.Children))
	for i, ch := range n.Children {
		c.Children[i] = ch.CloneDeep()
	}
	c.Next = n.Next.CloneDeep()
	c.Branches[0] = n.Branches[0].CloneDeep()
	c.Branches[1] = n.Branches[1].CloneDeep()
	return c
}

// Nodeify wraps a raw primitive value (number, string, bool) as a constant
// leaf node, the form every optimizer pass expects field values to arrive
// in once stage 1 (build factory AST) has run.
func Nodeify(opID string, value any) *Node {
	return &Node{Kind: KindConstant, OpID: opID, Fields: map[string]any{"value": value}}
}
