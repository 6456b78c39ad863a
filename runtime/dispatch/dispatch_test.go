package dispatch

import (
	"testing"

	"github.com/probechain/blockvm/runtime/block"
	"github.com/probechain/blockvm/runtime/cache"
	"github.com/probechain/blockvm/runtime/registry"
	"github.com/probechain/blockvm/runtime/thread"
)

// TestRunWalksTwoCommandScript runs a script of two commands, each writing
// to a log, chained via Next, and checks it runs to completion
// (thread.Done) after passing through both.
func TestRunWalksTwoCommandScript(t *testing.T) {
	c := block.NewMapContainer()
	reg := registry.New()

	var log []string
	reg.Register("looks_say", func(args *thread.ArgBundle, util *thread.Utility) (any, error) {
		msg, _ := args.Get("MESSAGE").(string)
		log = append(log, msg)
		return nil, nil
	}, nil, false, false)

	c.Put(&block.Block{ID: "lit1", Opcode: "math_number", Fields: map[string]block.FieldSlot{"NUM": {Value: "hello"}}})
	c.Put(&block.Block{ID: "lit2", Opcode: "math_number", Fields: map[string]block.FieldSlot{"NUM": {Value: "world"}}})
	c.Put(&block.Block{
		ID: "say1", Opcode: "looks_say", Next: "say2",
		Inputs: map[string]block.InputSlot{"MESSAGE": {Block: "lit1", Shadow: true}},
	})
	c.Put(&block.Block{
		ID: "say2", Opcode: "looks_say",
		Inputs: map[string]block.InputSlot{"MESSAGE": {Block: "lit2", Shadow: true}},
	})

	cch := cache.New(c, reg)
	th := thread.New("t1", "say1", nil, c)
	th.PushStack("say1")

	util := &thread.Utility{Sequencer: fakeControl{}, Thread: th, Target: nil}
	if err := Run(th, cch, util, nil); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if th.Status != thread.Done {
		t.Fatalf("status = %v, want Done", th.Status)
	}
	if len(log) != 2 || log[0] != "hello" || log[1] != "world" {
		t.Fatalf("log = %#v", log)
	}
}

type fakeControl struct{}

func (fakeControl) StepToBranch(t *thread.Thread, branchNum int, isLoop bool)  {}
func (fakeControl) StepToProcedure(t *thread.Thread, proccode string)         {}
func (fakeControl) RetireThread(t *thread.Thread) {
	for !t.Empty() {
		t.PopStack()
	}
	t.Status = thread.Done
}

// TestRunRetiresOnMissingBlock covers a missing block reference: the cache
// synthesizes a null op that retires the thread without throwing.
func TestRunRetiresOnMissingBlock(t *testing.T) {
	c := block.NewMapContainer()
	reg := registry.New()
	cch := cache.New(c, reg)

	th := thread.New("t1", "ghost", nil, c)
	th.PushStack("ghost")
	util := &thread.Utility{Sequencer: fakeControl{}, Thread: th}

	if err := Run(th, cch, util, nil); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if th.Status != thread.Done {
		t.Fatalf("status = %v, want Done", th.Status)
	}
}

