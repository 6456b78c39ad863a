// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.

package cache

import (
	"sync"

	"github.com/probechain/blockvm/runtime/block"
	"github.com/probechain/blockvm/runtime/registry"
)

// Cache is the BlockCache: a map from any block id that can
// become a thread's top-of-stack (a script's hat, or a branch/procedure
// target a Sequencer steps into) to its flattened CachedOp. Entries are
// built lazily on first request and dropped wholesale whenever the
// underlying container reports a change, since a single authored edit can
// ripple through an input subtree the cache has no cheap way to bound —
// changing any authored block should drop every CachedOp referring to its
// script, and dropping everything is the safe superset of that rule.
type Cache struct {
	container block.Container
	registry  *registry.Registry

	mu      sync.Mutex
	entries map[string]*CachedOp
}

// New creates a BlockCache over container, resolving primitives via reg.
func New(container block.Container, reg *registry.Registry) *Cache {
	return &Cache{
		container: container,
		registry:  reg,
		entries:   make(map[string]*CachedOp),
	}
}

// Get returns the CachedOp for blockID, building it on first request.
func (c *Cache) Get(blockID string) *CachedOp {
	c.mu.Lock()
	defer c.mu.Unlock()
	if op, ok := c.entries[blockID]; ok {
		return op
	}
	op := newBuilder(c.container, c.registry).entryPoint(blockID)
	c.entries[blockID] = op
	return op
}

// Invalidate drops every cached entry. Call it whenever the container's
// Watch channel reports a change; a script's thread will rebuild its
// CachedOp the next time it is scheduled.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*CachedOp)
}

// WatchInvalidation spawns a goroutine that drains changes off ch and
// invalidates the cache on every one, until ch is closed. Callers typically
// pass container.Watch()'s result.
func (c *Cache) WatchInvalidation(ch <-chan string) {
	go func() {
		for range ch {
			c.Invalidate()
		}
	}()
}
