// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.

// Package transform implements the PathTransformer: an
// iterative, mutation-safe visitor over an ast.Node tree. Unlike a
// recursive walk, the list a Visitor is currently iterating may be
// spliced — nodes inserted, removed, or replaced — by the very callback
// handling the node at the current index, without skipping or
// re-visiting siblings.
package transform

import "github.com/probechain/blockvm/runtime/ast"

// Position classifies an index against a (possibly mutating) slice's
// current bounds, exactly as Iterate's internal bookkeeping must, so a
// Visitor can reason about where a just-spliced cursor now sits.
type Position int

const (
	// AtHead is index 0 of a non-empty slice.
	AtHead Position = iota
	// InRange is any index strictly between the first and last.
	InRange
	// AtTail is the last valid index of a non-empty slice.
	AtTail
	// OutOfRange is an index no longer inside [0, len) — the slice shrank
	// out from under the cursor.
	OutOfRange
)

// PositionOf classifies index against a slice of length n.
func PositionOf(index, n int) Position {
	switch {
	case index < 0 || index >= n:
		return OutOfRange
	case n == 1 || index == 0:
		return AtHead
	case index == n-1:
		return AtTail
	default:
		return InRange
	}
}

// Visitor's Enter is called before a node's children are walked, and Exit
// after — Exit always runs once Enter has accepted the node, regardless of
// what Enter returned. Either callback may mutate *siblings (the slice n
// currently lives in) — insert, remove, or replace entries — and Iterate
// re-reads *siblings on every step, so the effect is observed immediately.
// Returning false from Enter skips only the descent into n's children;
// Exit still runs.
type Visitor struct {
	Enter func(n *ast.Node, siblings *[]*ast.Node, index int) bool
	Exit  func(n *ast.Node, siblings *[]*ast.Node, index int)
}

// visitPhase tracks where frame is within one node's Enter/descend/Exit
// cycle, replacing what would otherwise be the recursive call's own stack
// frame.
type visitPhase int

const (
	phaseEnter visitPhase = iota
	phaseDescend
	phaseExit
)

// frame is one level of the explicit traversal stack: the sibling slice
// currently being walked, the cursor into it, the node last accepted by
// Enter at that cursor (nil until Enter succeeds), and which phase of that
// node's visit is next.
type frame struct {
	siblings *[]*ast.Node
	index    int
	node     *ast.Node
	phase    visitPhase
}

// Iterate walks *siblings from index 0, re-deriving its current length and
// position on every step so a callback that inserts or removes entries
// ahead of or at the cursor is observed correctly: removing the current
// node does not skip the node that slides into its place, and inserting
// ahead of the cursor does not cause a re-visit. Descending into a node's
// children pushes a new frame onto an explicit stack rather than recursing,
// so arbitrarily deep trees walk in a fixed amount of Go stack.
func Iterate(siblings *[]*ast.Node, v Visitor) {
	stack := []*frame{{siblings: siblings}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		n := *f.siblings
		if PositionOf(f.index, len(n)) == OutOfRange {
			stack = stack[:len(stack)-1]
			continue
		}

		switch f.phase {
		case phaseEnter:
			node := n[f.index]
			descend := true
			if v.Enter != nil {
				descend = v.Enter(node, f.siblings, f.index)
			}
			cur := *f.siblings
			if f.index >= len(cur) || cur[f.index] != node {
				// The node at index is no longer the one we entered (removed,
				// or a sibling was inserted ahead of it and shifted it) — do
				// not advance past whatever now occupies index; re-enter
				// whatever is there next loop.
				continue
			}
			f.node = node
			if descend && node != nil {
				f.phase = phaseDescend
			} else {
				f.phase = phaseExit
			}

		case phaseDescend:
			f.phase = phaseExit
			stack = append(stack, &frame{siblings: &f.node.Children})

		case phaseExit:
			if v.Exit != nil {
				v.Exit(f.node, f.siblings, f.index)
			}
			cur := *f.siblings
			if f.index < len(cur) && cur[f.index] == f.node {
				f.index++
			}
			// else: Exit mutated around the current index; re-resolve next
			// loop without advancing, mirroring the Enter-side re-check.
			f.node = nil
			f.phase = phaseEnter
		}
	}
}
