package cache

import (
	"sort"

	"github.com/probechain/blockvm/runtime/block"
	"github.com/probechain/blockvm/runtime/registry"
	"github.com/probechain/blockvm/runtime/thread"
)

// builder holds the state one Cache.Get walk threads through: the container
// being read, the registry primitives resolve against, and the memo table
// that lets a block id reached twice (e.g. a branch target also reachable
// by fallthrough) share the identical CachedOp pointer.
type builder struct {
	container block.Container
	registry  *registry.Registry
	built     map[string]*CachedOp
}

func newBuilder(c block.Container, r *registry.Registry) *builder {
	return &builder{container: c, registry: r, built: make(map[string]*CachedOp)}
}

// entryPoint builds (or returns the memoized build of) the CachedOp for a
// block id that is about to become a thread's top-of-stack: a script's hat
// block, or any branch/procedure-definition/next target a Sequencer steps
// into. It always builds with this builder; keeping the result for later
// lookups is Cache.Get's job.
func (b *builder) entryPoint(id string) *CachedOp {
	op := b.buildCommand(id, 0)
	assignAllOps(op)
	op.CommandSet = &CommandSet{FirstCommand: op, I: 0}
	propagateCommandSet(op, op.CommandSet)
	return op
}

// assignAllOps computes AllOps for cmd (and, recursively, for its Next) as
// Ops concatenated with the successor command's AllOps. Branch
// targets are not followed here — they get their own AllOps the first time
// a thread actually steps into them and Cache.Get reaches them as a fresh
// entry point.
func assignAllOps(cmd *CachedOp) []*CachedOp {
	if cmd == nil {
		return nil
	}
	if cmd.AllOps != nil {
		return cmd.AllOps
	}
	tail := assignAllOps(cmd.Next)
	all := make([]*CachedOp, 0, len(cmd.Ops)+len(tail))
	all = append(all, cmd.Ops...)
	all = append(all, tail...)
	cmd.AllOps = all
	return all
}

// propagateCommandSet stamps every op reachable along the Next chain (not
// into branches, which get their own header when separately entered) with
// the shared CommandSet header, and fills each op's ParentOffset: the
// op-index distance, within AllOps, from the op to the entry that owns the
// ArgValues it writes into. An op writing straight into a command's own
// ArgValues keeps 0.
func propagateCommandSet(cmd *CachedOp, cs *CommandSet) {
	commandArgs := make(map[*thread.ArgBundle]bool)
	for c := cmd; c != nil; c = c.Next {
		commandArgs[c.ArgValues] = true
		for _, op := range c.Ops {
			op.CommandSet = cs
		}
	}
	indexOf := make(map[*thread.ArgBundle]int, len(cmd.AllOps))
	for i, op := range cmd.AllOps {
		indexOf[op.ArgValues] = i
	}
	for i, op := range cmd.AllOps {
		if op.ParentValues == nil || commandArgs[op.ParentValues] {
			continue
		}
		if j, ok := indexOf[op.ParentValues]; ok {
			op.ParentOffset = j - i
		}
	}
}

// sortedInputNames returns a block's input socket names in a fixed order.
// The authored graph carries no ordering of its own (block.Block.Inputs is
// a map); sorting makes Ops construction deterministic and reproducible
// across builds of the same script, which the test suite relies on.
func sortedInputNames(inputs map[string]block.InputSlot) []string {
	names := make([]string, 0, len(inputs))
	for n := range inputs {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func sortedFieldNames(fields map[string]block.FieldSlot) []string {
	names := make([]string, 0, len(fields))
	for n := range fields {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// buildCommand builds the CachedOp for one command (statement) block: its
// own fields and input subtree, its self-invocation entry, hat/tail
// synthetic ops, and — recursively — its next and branch successors.
func (b *builder) buildCommand(id string, index int) *CachedOp {
	if existing, ok := b.built[id]; ok {
		return existing
	}
	blk, ok := b.container.Block(id)
	if !ok {
		op := nullOp(id, nil, thread.StatementSlot)
		op.IndexInScript = index
		op.Ops = []*CachedOp{op}
		b.built[id] = op
		return op
	}

	cmdOp := &CachedOp{
		ID:            id,
		Opcode:        blk.Opcode,
		IndexInScript: index,
		ArgValues:     thread.NewArgBundle(),
	}
	if entry, found := b.registry.Get(blk.Opcode); found {
		cmdOp.Fn = entry.Fn
		cmdOp.Context = entry.Context
		cmdOp.Defined = true
		cmdOp.MayAwait = entry.MayAwait
	}
	cmdOp.IsHat = b.registry.IsHat(blk.Opcode)
	b.built[id] = cmdOp

	for _, name := range sortedFieldNames(blk.Fields) {
		cmdOp.ArgValues.Set(name, fieldValue(blk.Fields[name]))
	}

	var ops []*CachedOp
	for _, name := range sortedInputNames(blk.Inputs) {
		slot := blk.Inputs[name]
		b.buildInput(name, slot, cmdOp.ArgValues, &ops)
	}

	// The command's own invocation: it is the last "real" entry in its
	// segment of Ops, writing its (ignored) result into the sentinel
	// STATEMENT slot.
	self := &CachedOp{
		ID: id, Opcode: blk.Opcode, IndexInScript: index,
		Fn: cmdOp.Fn, Context: cmdOp.Context, Defined: cmdOp.Defined, MayAwait: cmdOp.MayAwait,
		ArgValues: cmdOp.ArgValues, ParentKey: thread.StatementSlot,
	}
	ops = append(ops, self)

	if cmdOp.IsHat {
		ops = append(ops, &CachedOp{
			ID: id, Opcode: OpReportHat, Defined: true, Fn: reportHatFn,
			ArgValues: thread.NewArgBundle(),
		})
	}

	nextID, hasNext := b.container.NextOf(id)
	var branchOps []*CachedOp
	for k := 1; k <= 2; k++ {
		if branchID, hasBranch := b.container.BranchOf(id, k); hasBranch {
			target := b.buildCommand(branchID, 0)
			cmdOp.Branch[k-1] = target
			branchOps = append(branchOps, &CachedOp{
				ID: branchID, Opcode: OpDoStack, Defined: true, Fn: doStackFn,
				ArgValues: thread.NewArgBundle(),
			})
		}
	}
	ops = append(ops, branchOps...)
	mayContinueArgs := thread.NewArgBundle()
	mayContinueArgs.Set("EXPECT", id)
	mayContinueArgs.Set("NEXT", nextID)
	ops = append(ops, &CachedOp{
		Opcode: OpMayContinue, Defined: true, Fn: mayContinueFn(id, nextID),
		ArgValues: mayContinueArgs,
	})

	for _, op := range ops {
		if op.MayAwait {
			cmdOp.UsesPromise = true
			break
		}
	}

	cmdOp.Ops = ops
	if hasNext {
		cmdOp.Next = b.buildCommand(nextID, index+1)
	}
	return cmdOp
}

// buildInput resolves one input socket of a command or reporter block: a
// shadow socket folds its constant into the parent's arg_values directly;
// BROADCAST_INPUT gets the vm_cast_string treatment; anything else recurses
// into buildReporter and splices the resulting ops in before the parent.
func (b *builder) buildInput(name string, slot block.InputSlot, parentValues *thread.ArgBundle, out *[]*CachedOp) {
	if slot.Block == "" {
		return
	}
	if name == block.BROADCAST {
		b.buildBroadcastInput(slot.Block, parentValues, out)
		return
	}
	if slot.Shadow {
		parentValues.Set(name, canonicalizeShadow(b.shadowValue(slot.Block)))
		return
	}
	b.buildReporter(slot.Block, parentValues, name, out)
}

// shadowValue reads the single literal field a shadow (default-value)
// reporter block carries. Shadow blocks in practice expose exactly one
// field (e.g. math_number's NUM); reading whichever field is present avoids
// hardcoding opcode-specific field names here.
func (b *builder) shadowValue(id string) any {
	blk, ok := b.container.Block(id)
	if !ok {
		return nil
	}
	for _, name := range sortedFieldNames(blk.Fields) {
		return blk.Fields[name].Value
	}
	return nil
}

// buildBroadcastInput handles BROADCAST_INPUT: the target
// reporter's value is evaluated as normal, then redirected through a
// synthetic vm_cast_string op before landing in the parent's arg_values as a
// broadcast {id, name} bundle — unless the input is itself a plain shadow
// broadcast-name field, in which case no casting is needed.
func (b *builder) buildBroadcastInput(blockID string, parentValues *thread.ArgBundle, out *[]*CachedOp) {
	blk, ok := b.container.Block(blockID)
	if ok {
		if idField, hasID := firstIDField(blk.Fields); hasID {
			parentValues.Set(block.BROADCAST, idField)
			return
		}
	}
	castArgs := thread.NewArgBundle()
	b.buildReporter(blockID, castArgs, "VALUE", out)
	*out = append(*out, &CachedOp{
		Opcode: OpCastString, Defined: true, Fn: castStringFn,
		ArgValues: castArgs, ParentValues: parentValues, ParentKey: block.BROADCAST,
	})
}

func firstIDField(fields map[string]block.FieldSlot) (thread.IDName, bool) {
	for _, name := range sortedFieldNames(fields) {
		f := fields[name]
		if f.ID != "" {
			return thread.IDName{ID: f.ID, Name: f.Value}, true
		}
	}
	return thread.IDName{}, false
}

// buildReporter recursively flattens a reporter (value-producing) block:
// its own children are appended to out first (post-order), then the
// reporter's own entry, writing into parentValues[parentKey].
func (b *builder) buildReporter(id string, parentValues *thread.ArgBundle, parentKey string, out *[]*CachedOp) {
	blk, ok := b.container.Block(id)
	if !ok {
		*out = append(*out, nullOp(id, parentValues, parentKey))
		return
	}

	op := &CachedOp{
		ID: id, Opcode: blk.Opcode,
		ArgValues:    thread.NewArgBundle(),
		ParentValues: parentValues,
		ParentKey:    parentKey,
	}
	if entry, found := b.registry.Get(blk.Opcode); found {
		op.Fn = entry.Fn
		op.Context = entry.Context
		op.Defined = true
		op.MayAwait = entry.MayAwait
	}

	for _, name := range sortedFieldNames(blk.Fields) {
		op.ArgValues.Set(name, fieldValue(blk.Fields[name]))
	}
	for _, name := range sortedInputNames(blk.Inputs) {
		slot := blk.Inputs[name]
		b.buildInput(name, slot, op.ArgValues, out)
	}

	*out = append(*out, op)
}
