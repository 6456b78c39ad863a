// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Package block defines the authored block graph and the read-only
// BlockContainer view the rest of the execution core queries. Nothing in
// this package ever mutates a Block; a change invalidates caches built over
// it (see runtime/cache).
package block

// InputSlot is one named input socket on a Block. Block is the id of the
// child block that reports into this slot; Shadow marks it as a default
// inline input whose value is static.
type InputSlot struct {
	Block  string
	Shadow bool
}

// FieldSlot is one named field on a Block. ID is set for variable/list/
// broadcast fields, where the field references another entity by id rather
// than carrying a literal value.
type FieldSlot struct {
	Value string
	ID    string
}

// Block is one authored unit: an opcode plus named fields and input sockets,
// with optional next/branch links to other blocks. Block is immutable during
// execution.
type Block struct {
	ID       string
	Opcode   string
	Fields   map[string]FieldSlot
	Inputs   map[string]InputSlot
	Mutation map[string]string
	Next     string
	// Branches holds up to two branch targets (e.g. if/else). An empty
	// string means no branch at that index.
	Branches [2]string
}

// ProcedureInfo describes a procedure's formal parameters, as returned by
// Container.ProcedureParams.
type ProcedureInfo struct {
	Names    []string
	IDs      []string
	Defaults []string
}

// Container is the read-only query interface the execution core consumes
// over an authored block graph. Implementations never throw for a missing
// id; they report absence via the second return value.
type Container interface {
	Block(id string) (*Block, bool)
	NextOf(id string) (string, bool)
	BranchOf(id string, k int) (string, bool)
	ProcedureDefinition(proccode string) (string, bool)
	ProcedureParams(proccode string) (ProcedureInfo, bool)
	ForceNoGlow() bool
}

// BROADCAST is the reserved input name that the cache treats specially,
// synthesizing a string-cast op and redirecting its result into a
// {id, name} bundle.
const BROADCAST = "BROADCAST_INPUT"
