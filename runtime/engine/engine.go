// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.

// Package engine is the top-level façade: it wires together the
// PrimitiveRegistry, BlockCache, CodeCache, and Sequencer over one
// block.Container and exposes the tick-driven RunTick entry point, mirroring
// the shape of a contract-execution façade that builds a VM from config and
// runs it to completion — generalized here to a cooperatively scheduled,
// perpetually re-entered tick loop instead of a single gas-bounded call.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/probechain/blockvm/config"
	"github.com/probechain/blockvm/internal/blocklog"
	"github.com/probechain/blockvm/runtime/block"
	"github.com/probechain/blockvm/runtime/cache"
	"github.com/probechain/blockvm/runtime/compile"
	"github.com/probechain/blockvm/runtime/registry"
	"github.com/probechain/blockvm/runtime/sequencer"
	"github.com/probechain/blockvm/runtime/thread"
)

// Engine owns one execution core instance: a container of authored blocks,
// the primitives registered against it, and the sequencer driving threads
// over it tick by tick.
type Engine struct {
	Container block.Container
	Registry  *registry.Registry
	Cache     *cache.Cache
	Compile   *compile.Cache
	Sequencer *sequencer.Sequencer
	Log       blocklog.Logger

	cfg config.Config
}

// New builds an Engine over container, wiring a fresh BlockCache and
// CodeCache and a Sequencer configured from cfg. ioQuery is the BlockUtility
// I/O seam passed through to every primitive.
func New(container block.Container, reg *registry.Registry, cfg config.Config, ioQuery thread.IOQueryFunc, log blocklog.Logger) *Engine {
	cch := cache.New(container, reg)
	if watchable, ok := container.(interface{ Watch() <-chan string }); ok {
		cch.WatchInvalidation(watchable.Watch())
	}
	codeCache := compile.NewCache(cfg.Compile.CacheSize, compile.NewTokenBucket(cfg.TokenInterval(), cfg.Compile.TokenCap))
	seq := sequencer.New(reg, cch, codeCache, ioQuery, cfg.StepTime())
	seq.WorkFraction = cfg.Sequencer.WorkFraction
	seq.WarpTimeout = cfg.WarpTimeout()

	return &Engine{
		Container: container,
		Registry:  reg,
		Cache:     cch,
		Compile:   codeCache,
		Sequencer: seq,
		Log:       log,
		cfg:       cfg,
	}
}

// StartScript creates and enrolls a new thread rooted at topBlock, targeting
// target (an opaque per-sprite/per-entity receiver primitives may type-assert
// on). It returns the thread so the caller can track its lifecycle.
func (e *Engine) StartScript(topBlock string, target any, container block.Container) *thread.Thread {
	t := thread.New(uuid.NewString(), topBlock, target, container)
	t.PushStack(topBlock)
	e.Sequencer.AddThread(t)
	return t
}

// RunTick advances one scheduling tick: unless ctx is already cancelled
// when it is called, every enrolled thread is stepped once, respecting the
// sequencer's work-time budget. ctx is not checked again during the tick.
func (e *Engine) RunTick(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	start := time.Now()
	e.Sequencer.StepThreads()
	e.Log.Debug().Dur("tick_duration", time.Since(start)).Int("threads", len(e.Sequencer.Threads())).Msg("tick complete")
	return nil
}

// RunUntilIdle repeatedly calls RunTick until every enrolled thread is DONE
// or ctx is cancelled, sleeping the configured step time between ticks —
// useful for tests and the CLI's non-interactive "run" subcommand, where
// there is no external clock driving ticks.
func (e *Engine) RunUntilIdle(ctx context.Context, maxTicks int) error {
	for i := 0; i < maxTicks; i++ {
		if err := e.RunTick(ctx); err != nil {
			return err
		}
		if e.allDone() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(e.cfg.StepTime()):
		}
	}
	return fmt.Errorf("engine: did not idle within %d ticks", maxTicks)
}

func (e *Engine) allDone() bool {
	for _, t := range e.Sequencer.Threads() {
		if t.Status != thread.Done {
			return false
		}
	}
	return true
}
