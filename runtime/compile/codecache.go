// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.

package compile

import (
	"context"
	"fmt"
	"hash"
	"io"
	"sort"
	"time"

	lru "github.com/hashicorp/golang-lru"
	"golang.org/x/crypto/sha3"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/probechain/blockvm/runtime/cache"
	"github.com/probechain/blockvm/runtime/optimize"
)

// TokenBucket is the compile-rate limiter: each compile attempt costs one
// token; tokens refill at a fixed rate up to a cap, so a burst of newly-hot
// scripts cannot monopolize compilation time in a single tick. It wraps
// golang.org/x/time/rate, the same limiter family used elsewhere in this
// module's dependency stack to gate request rates.
type TokenBucket struct {
	lim *rate.Limiter
}

// DefaultTokenInterval and DefaultTokenCap are the resolved defaults: one
// token costs 1ms of refill time, capped at 10 banked tokens (see
// DESIGN.md).
const (
	DefaultTokenInterval = time.Millisecond
	DefaultTokenCap      = 10
)

// NewTokenBucket creates a bucket starting full, refilling one token every
// interval up to cap tokens banked.
func NewTokenBucket(interval time.Duration, cap int) *TokenBucket {
	return &TokenBucket{lim: rate.NewLimiter(rate.Every(interval), cap)}
}

// TryTake attempts to withdraw one token. It reports whether a token was
// available, without blocking.
func (b *TokenBucket) TryTake() bool {
	return b.lim.Allow()
}

// Cache is the CodeCache: an LRU of already-compiled
// CompiledFuncs keyed by a content hash of the command's opcode shape and
// resolved arg values, so two structurally and literally identical scripts
// (e.g. two clones of the same sprite with the same field values) share one
// compilation instead of re-specializing independently. singleflight
// collapses concurrent compile requests for the same content hash into a
// single in-flight build.
type Cache struct {
	budget *TokenBucket
	lru    *lru.Cache
	group  singleflight.Group
}

// NewCache creates a CodeCache holding up to size compiled entries, gated
// by budget (nil selects the default token bucket).
func NewCache(size int, budget *TokenBucket) *Cache {
	if budget == nil {
		budget = NewTokenBucket(DefaultTokenInterval, DefaultTokenCap)
	}
	l, err := lru.New(size)
	if err != nil {
		// size <= 0 is a caller bug, not a runtime condition; a 1-entry
		// cache is a safe, still-functional degradation.
		l, _ = lru.New(1)
	}
	return &Cache{budget: budget, lru: l}
}

// ContentHash derives the cache key for a command's compiled shape: the
// sha3-256 digest of its flattened opcode sequence together with each op's
// resolved arg_values (field literals and shadow-resolved constants), since
// those are exactly what the Print closure captures and folds. Two scripts
// hash identically only when Print would actually produce equivalent
// behavior for both — not merely when their opcodes line up.
func ContentHash(cmd *cache.CachedOp) [32]byte {
	h := sha3.New256()
	for _, op := range cmd.Ops {
		hashOp(h, op)
	}
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

func hashOp(h hash.Hash, op *cache.CachedOp) {
	if op == nil {
		return
	}
	io.WriteString(h, op.Opcode)
	h.Write([]byte{0})
	if op.ArgValues == nil {
		h.Write([]byte{0})
		return
	}
	keys := op.ArgValues.Keys()
	sort.Strings(keys)
	for _, k := range keys {
		io.WriteString(h, k)
		h.Write([]byte{0})
		fmt.Fprintf(h, "%v", op.ArgValues.Get(k))
		h.Write([]byte{0})
	}
}

// Compile attempts to specialize cmd: on a cache hit it returns the shared
// CompiledFunc immediately, free of charge; on a miss it spends one token
// (ok=false if the budget is exhausted, meaning the caller should keep
// interpreting this tick) and builds through the optimizer and Printer,
// de-duplicating concurrent misses for the same content hash via
// singleflight.
func (c *Cache) Compile(ctx context.Context, cmd *cache.CachedOp) (cache.CompiledFunc, bool) {
	if cmd.UsesPromise {
		return nil, false
	}
	key := ContentHash(cmd)
	if v, ok := c.lru.Get(key); ok {
		return v.(cache.CompiledFunc), true
	}
	if !c.budget.TryTake() {
		return nil, false
	}
	keyStr := string(key[:])
	v, err, _ := c.group.Do(keyStr, func() (any, error) {
		root := optimize.FromCachedOp(cmd)
		optimize.Optimize(root)
		fn := Print(root)
		c.lru.Add(key, fn)
		return fn, nil
	})
	if err != nil || v == nil {
		return nil, false
	}
	return v.(cache.CompiledFunc), true
}
