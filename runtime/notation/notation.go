// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.

// Package notation is a small textual block-script DSL used by tests and
// cmd/blockvmctl to author scripts without hand-building a block.Container.
// It is a line-oriented notation, not a full expression grammar: a line is
// tokenized, then matched against the handful of statement forms a block
// script needs, rather than run through a recursive-descent expression
// grammar — block scripts are already a graph, not text to parse
// expressions, operators, or precedence out of.
//
// Grammar (one statement per line; blank lines and '#' comments ignored):
//
//	block <id> <opcode> [hat] [warp]
//	field <blockID> <name> = <value>
//	idfield <blockID> <name> = <id> <displayName>
//	input <blockID> <name> = <childID>
//	shadowinput <blockID> <name> = <childID>
//	broadcastinput <blockID> = <childID>
//	next <blockID> <nextID>
//	branch <blockID> <1|2> <targetID>
//	procedure <proccode> <definitionBlockID> [param:<name>:<id>:<default>]...
//
// Of the block flags only warp has an effect (it sets mutation warp=true);
// hat and any other flag are accepted and ignored.
package notation

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"

	"github.com/probechain/blockvm/runtime/block"
)

// Parse reads a notation script from src and builds a block.MapContainer.
func Parse(src string) (*block.MapContainer, error) {
	c := block.NewMapContainer()
	blocks := make(map[string]*block.Block)

	lookup := func(id string) *block.Block {
		b, ok := blocks[id]
		if !ok {
			b = &block.Block{ID: id, Fields: map[string]block.FieldSlot{}, Inputs: map[string]block.InputSlot{}}
			blocks[id] = b
		}
		return b
	}

	scanner := bufio.NewScanner(strings.NewReader(src))
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		kw := fields[0]
		if err := applyStatement(kw, fields[1:], line, lookup, c); err != nil {
			return nil, fmt.Errorf("notation: line %d: %w", lineNo, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	for _, b := range blocks {
		c.Put(b)
	}
	return c, nil
}

func applyStatement(kw string, args []string, line string, lookup func(string) *block.Block, c *block.MapContainer) error {
	switch kw {
	case "block":
		if len(args) < 2 {
			return fmt.Errorf("block needs <id> <opcode>: %q", line)
		}
		b := lookup(args[0])
		b.Opcode = args[1]
		if b.Mutation == nil {
			b.Mutation = map[string]string{}
		}
		for _, flag := range args[2:] {
			if flag == "warp" {
				b.Mutation["warp"] = "true"
			}
		}
	case "field":
		id, name, value, err := keyEqValue(args, line)
		if err != nil {
			return err
		}
		lookup(id).Fields[name] = block.FieldSlot{Value: value}
	case "idfield":
		if len(args) < 4 || args[2] != "=" {
			return fmt.Errorf("idfield needs <blockID> <name> = <id> <displayName>: %q", line)
		}
		lookup(args[0]).Fields[args[1]] = block.FieldSlot{ID: args[3], Value: strings.Join(args[4:], " ")}
	case "input":
		id, name, value, err := keyEqValue(args, line)
		if err != nil {
			return err
		}
		lookup(id).Inputs[name] = block.InputSlot{Block: value}
	case "shadowinput":
		id, name, value, err := keyEqValue(args, line)
		if err != nil {
			return err
		}
		lookup(id).Inputs[name] = block.InputSlot{Block: value, Shadow: true}
	case "broadcastinput":
		if len(args) < 3 || args[1] != "=" {
			return fmt.Errorf("broadcastinput needs <blockID> = <childID>: %q", line)
		}
		lookup(args[0]).Inputs[block.BROADCAST] = block.InputSlot{Block: args[2]}
	case "next":
		if len(args) < 2 {
			return fmt.Errorf("next needs <blockID> <nextID>: %q", line)
		}
		lookup(args[0]).Next = args[1]
	case "branch":
		if len(args) < 3 {
			return fmt.Errorf("branch needs <blockID> <1|2> <targetID>: %q", line)
		}
		k, err := strconv.Atoi(args[1])
		if err != nil || k < 1 || k > 2 {
			return fmt.Errorf("branch index must be 1 or 2: %q", line)
		}
		lookup(args[0]).Branches[k-1] = args[2]
	case "procedure":
		if len(args) < 2 {
			return fmt.Errorf("procedure needs <proccode> <definitionBlockID>: %q", line)
		}
		info := block.ProcedureInfo{}
		for _, p := range args[2:] {
			parts := strings.SplitN(strings.TrimPrefix(p, "param:"), ":", 3)
			if len(parts) != 3 {
				return fmt.Errorf("malformed param spec %q: %q", p, line)
			}
			info.Names = append(info.Names, parts[0])
			info.IDs = append(info.IDs, parts[1])
			info.Defaults = append(info.Defaults, parts[2])
		}
		c.DefineProcedure(args[0], args[1], info)
	default:
		return fmt.Errorf("unknown statement %q", kw)
	}
	return nil
}

func keyEqValue(args []string, line string) (id, name, value string, err error) {
	if len(args) < 4 || args[2] != "=" {
		return "", "", "", fmt.Errorf("expected <blockID> <name> = <value>: %q", line)
	}
	return args[0], args[1], strings.Join(args[3:], " "), nil
}
