// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.

// Package registry implements the PrimitiveRegistry: the
// opcode -> primitive function table, plus hat / edge-activated-hat status.
// A missing opcode is never an error here; Get's second return value tells
// the caller the op is not defined, and such an op is skipped in dispatch.
package registry

import "github.com/probechain/blockvm/runtime/thread"

// Entry is one registered primitive: its function plus the receiver
// ("context") the function is bound to, split apart so the cache can store
// the unbound function and context separately and avoid re-binding per call.
// MayAwait is declared by the registrant, not inferred: it is true when this
// primitive's return value can be a promise.Awaitable rather than a plain
// value, the signal BlockCache uses to mark a command as unsafe to compile.
type Entry struct {
	Fn       thread.PrimitiveFunc
	Context  any
	MayAwait bool
}

// Registry is the opcode -> primitive lookup table, plus hat classification.
// Opcode strings are interned to a small integer slot at Register time,
// readable through Slot; Get itself looks entries up by opcode string.
type Registry struct {
	entries  map[string]Entry
	hats     map[string]bool
	edgeHats map[string]bool
	slots    map[string]int
	nextSlot int
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		entries:  make(map[string]Entry),
		hats:     make(map[string]bool),
		edgeHats: make(map[string]bool),
		slots:    make(map[string]int),
	}
}

// Register installs the primitive for opcode. isHat and isEdgeActivated
// classify it as a script-starting hat and, if so, whether it only fires on
// a false->true edge.
func (r *Registry) Register(opcode string, fn thread.PrimitiveFunc, context any, isHat, isEdgeActivated bool) {
	r.RegisterAwaitable(opcode, fn, context, isHat, isEdgeActivated, false)
}

// RegisterAwaitable is Register plus mayAwait: set it true when fn can
// return a promise.Awaitable instead of resolving synchronously, so
// BlockCache marks every command containing this op as ineligible for
// specialization.
func (r *Registry) RegisterAwaitable(opcode string, fn thread.PrimitiveFunc, context any, isHat, isEdgeActivated, mayAwait bool) {
	r.entries[opcode] = Entry{Fn: fn, Context: context, MayAwait: mayAwait}
	if isHat {
		r.hats[opcode] = true
	}
	if isEdgeActivated {
		r.edgeHats[opcode] = true
	}
	r.internSlot(opcode)
}

func (r *Registry) internSlot(opcode string) int {
	if s, ok := r.slots[opcode]; ok {
		return s
	}
	s := r.nextSlot
	r.nextSlot++
	r.slots[opcode] = s
	return s
}

// Get returns the primitive entry for opcode. ok is false for an unknown
// opcode; the caller must not treat this as fatal — an unknown opcode is
// simply treated as not defined, so its op has no function.
func (r *Registry) Get(opcode string) (Entry, bool) {
	e, ok := r.entries[opcode]
	return e, ok
}

// Slot returns the interned integer slot for opcode, registering a fresh
// slot if this is the first time the opcode has been seen (e.g. a synthetic
// opcode that BlockCache emits without a registered primitive).
func (r *Registry) Slot(opcode string) int {
	return r.internSlot(opcode)
}

// IsHat reports whether opcode starts a script.
func (r *Registry) IsHat(opcode string) bool { return r.hats[opcode] }

// IsEdgeActivatedHat reports whether opcode is a hat that only fires on a
// false->true transition of its predicate.
func (r *Registry) IsEdgeActivatedHat(opcode string) bool { return r.edgeHats[opcode] }
