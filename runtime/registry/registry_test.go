package registry

import (
	"testing"

	"github.com/probechain/blockvm/runtime/thread"
)

// TestRegisterAndGet covers the opcode lookup table.
func TestRegisterAndGet(t *testing.T) {
	r := New()
	fn := func(*thread.ArgBundle, *thread.Utility) (any, error) { return nil, nil }
	r.Register("looks_say", fn, "ctx", false, false)

	e, ok := r.Get("looks_say")
	if !ok {
		t.Fatal("Get(looks_say) not found")
	}
	if e.Context != "ctx" {
		t.Fatalf("Context = %#v, want ctx", e.Context)
	}

	if _, ok := r.Get("ghost_opcode"); ok {
		t.Fatal("Get(unknown) must report not-ok, not panic")
	}
}

// TestIsEdgeActivatedHat covers the edge-activated-hat scenario: only
// opcodes registered with isEdgeActivated=true are classified as such, and
// ordinary hats are not conflated with them.
func TestIsEdgeActivatedHat(t *testing.T) {
	r := New()
	noop := func(*thread.ArgBundle, *thread.Utility) (any, error) { return nil, nil }

	r.Register("event_whenflagclicked", noop, nil, true, false)
	r.Register("control_wait_until", noop, nil, true, true)

	if !r.IsHat("event_whenflagclicked") {
		t.Fatal("event_whenflagclicked must be a hat")
	}
	if r.IsEdgeActivatedHat("event_whenflagclicked") {
		t.Fatal("event_whenflagclicked is not edge-activated")
	}
	if !r.IsEdgeActivatedHat("control_wait_until") {
		t.Fatal("control_wait_until must be edge-activated")
	}
}

// TestSlotInterning covers the interning rule: repeated calls for
// the same opcode return the same slot, and a never-registered synthetic
// opcode still gets a fresh slot on first reference.
func TestSlotInterning(t *testing.T) {
	r := New()
	noop := func(*thread.ArgBundle, *thread.Utility) (any, error) { return nil, nil }
	r.Register("motion_movesteps", noop, nil, false, false)

	s1 := r.Slot("motion_movesteps")
	s2 := r.Slot("motion_movesteps")
	if s1 != s2 {
		t.Fatalf("slot not stable: %d != %d", s1, s2)
	}

	s3 := r.Slot("vm_synthetic_null")
	if s3 == s1 {
		t.Fatal("a distinct opcode must not share a slot")
	}
	if r.Slot("vm_synthetic_null") != s3 {
		t.Fatal("synthetic opcode's slot must also be stable once interned")
	}
}
