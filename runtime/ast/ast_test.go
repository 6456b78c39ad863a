package ast

import "testing"

func TestIsOfMatchesSubtypeForest(t *testing.T) {
	mathNode := &Node{Kind: KindMathOp}
	if !mathNode.IsOf(KindMathOp) {
		t.Fatal("a math-op node must be a match for its own kind")
	}
	if !mathNode.IsOf(KindOperator) {
		t.Fatal("a math-op node must be a match for its forest root KindOperator")
	}
	if mathNode.IsOf(KindDataOp) {
		t.Fatal("a math-op node must not be a match for an unrelated forest root")
	}

	listNode := &Node{Kind: KindListOp}
	if !listNode.IsOf(KindDataOp) {
		t.Fatal("a list-op node must be a match for its forest root KindDataOp")
	}

	leaf := &Node{Kind: KindConstant}
	if leaf.IsOf(KindOperator) || leaf.IsOf(KindDataOp) {
		t.Fatal("a constant node has no forest root and must not match either")
	}
}

func TestIsOfAcceptsMultipleCandidates(t *testing.T) {
	n := &Node{Kind: KindCompare}
	if !n.IsOf(KindMathOp, KindCompare) {
		t.Fatal("IsOf must match if any candidate kind is in the node's ancestor set")
	}
	if n.IsOf(KindVariableRef, KindListOp) {
		t.Fatal("IsOf must not match when no candidate kind is in the node's ancestor set")
	}
}

func TestIsValidParentUnaffectedByNewKinds(t *testing.T) {
	if !IsValidParent(KindScript, KindCommand) {
		t.Fatal("command must remain legal directly under script")
	}
	if IsValidParent(KindReporter, KindCommand) {
		t.Fatal("command must remain illegal directly under reporter")
	}
}
