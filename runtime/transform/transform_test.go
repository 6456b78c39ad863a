package transform

import (
	"testing"

	"github.com/probechain/blockvm/runtime/ast"
)

func nodeNamed(id string) *ast.Node {
	return &ast.Node{OpID: id}
}

func TestIterateVisitsEnterThenChildrenThenExit(t *testing.T) {
	root := nodeNamed("root")
	child := nodeNamed("child")
	grandchild := nodeNamed("grandchild")
	child.Children = []*ast.Node{grandchild}
	root.Children = []*ast.Node{child}

	var order []string
	siblings := []*ast.Node{root}
	Iterate(&siblings, Visitor{
		Enter: func(n *ast.Node, _ *[]*ast.Node, _ int) bool {
			order = append(order, "enter:"+n.OpID)
			return true
		},
		Exit: func(n *ast.Node, _ *[]*ast.Node, _ int) {
			order = append(order, "exit:"+n.OpID)
		},
	})

	want := []string{
		"enter:root", "enter:child", "enter:grandchild",
		"exit:grandchild", "exit:child", "exit:root",
	}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
}

func TestIterateSkipsDescentButStillExits(t *testing.T) {
	root := nodeNamed("root")
	child := nodeNamed("child")
	root.Children = []*ast.Node{child}

	var entered, exited []string
	siblings := []*ast.Node{root}
	Iterate(&siblings, Visitor{
		Enter: func(n *ast.Node, _ *[]*ast.Node, _ int) bool {
			entered = append(entered, n.OpID)
			return n.OpID != "root"
		},
		Exit: func(n *ast.Node, _ *[]*ast.Node, _ int) {
			exited = append(exited, n.OpID)
		},
	})

	if len(entered) != 1 || entered[0] != "root" {
		t.Fatalf("entered = %v, want only root (child must not be descended into)", entered)
	}
	if len(exited) != 1 || exited[0] != "root" {
		t.Fatalf("exited = %v, want root's Exit still called despite skipped descent", exited)
	}
}

func TestIterateObservesRemovalDuringEnter(t *testing.T) {
	a, b, c := nodeNamed("a"), nodeNamed("b"), nodeNamed("c")
	siblings := []*ast.Node{a, b, c}

	var seen []string
	Iterate(&siblings, Visitor{
		Enter: func(n *ast.Node, s *[]*ast.Node, i int) bool {
			seen = append(seen, n.OpID)
			if n.OpID == "a" {
				// Remove b: the next entry at index 1 (formerly c's slot's
				// predecessor) must be observed, not skipped.
				cur := *s
				*s = append(append([]*ast.Node{}, cur[:1]...), cur[2:]...)
			}
			return false
		},
	})

	want := []string{"a", "c"}
	if len(seen) != len(want) {
		t.Fatalf("seen = %v, want %v", seen, want)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Fatalf("seen = %v, want %v", seen, want)
		}
	}
}

func TestIterateObservesInsertionAheadOfCursor(t *testing.T) {
	a, b := nodeNamed("a"), nodeNamed("b")
	inserted := nodeNamed("inserted")
	siblings := []*ast.Node{a, b}

	var seen []string
	insertedOnce := false
	Iterate(&siblings, Visitor{
		Enter: func(n *ast.Node, s *[]*ast.Node, i int) bool {
			seen = append(seen, n.OpID)
			if n.OpID == "a" && !insertedOnce {
				insertedOnce = true
				cur := *s
				next := append([]*ast.Node{}, cur[:i+1]...)
				next = append(next, inserted)
				next = append(next, cur[i+1:]...)
				*s = next
			}
			return false
		},
	})

	want := []string{"a", "inserted", "b"}
	if len(seen) != len(want) {
		t.Fatalf("seen = %v, want %v (inserted sibling must not be skipped, and must not cause a)", seen, want)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Fatalf("seen = %v, want %v", seen, want)
		}
	}
}

func TestPositionOfClassifiesBounds(t *testing.T) {
	cases := []struct {
		index, n int
		want     Position
	}{
		{0, 0, OutOfRange},
		{0, 1, AtHead},
		{0, 3, AtHead},
		{1, 3, InRange},
		{2, 3, AtTail},
		{3, 3, OutOfRange},
		{-1, 3, OutOfRange},
	}
	for _, c := range cases {
		if got := PositionOf(c.index, c.n); got != c.want {
			t.Fatalf("PositionOf(%d, %d) = %v, want %v", c.index, c.n, got, c.want)
		}
	}
}
