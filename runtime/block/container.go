package block

import "sync"

// MapContainer is the default in-memory Container, backed by a map keyed by
// block id. It is the concrete type both the JSON loader and the notation
// loader (runtime/notation) build.
type MapContainer struct {
	mu         sync.RWMutex
	blocks     map[string]*Block
	procDefs   map[string]string
	procParams map[string]ProcedureInfo
	noGlow     bool

	watchers []chan string
}

// NewMapContainer creates an empty container.
func NewMapContainer() *MapContainer {
	return &MapContainer{
		blocks:     make(map[string]*Block),
		procDefs:   make(map[string]string),
		procParams: make(map[string]ProcedureInfo),
	}
}

// SetForceNoGlow configures the value ForceNoGlow reports.
func (c *MapContainer) SetForceNoGlow(v bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.noGlow = v
}

// Put inserts or replaces a block and signals its id as changed.
func (c *MapContainer) Put(b *Block) {
	c.mu.Lock()
	c.blocks[b.ID] = b
	c.mu.Unlock()
	c.signal(b.ID)
}

// Remove deletes a block and signals its id as changed.
func (c *MapContainer) Remove(id string) {
	c.mu.Lock()
	delete(c.blocks, id)
	c.mu.Unlock()
	c.signal(id)
}

// DefineProcedure registers a procedure's definition-block id and formal
// parameters under its proccode.
func (c *MapContainer) DefineProcedure(proccode, defBlockID string, info ProcedureInfo) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.procDefs[proccode] = defBlockID
	c.procParams[proccode] = info
}

// Watch returns a channel that receives the id of every block that is put,
// removed, or replaced from this point on. This is the "change signal" of
// the container, which runtime/cache subscribes to for invalidation.
func (c *MapContainer) Watch() <-chan string {
	ch := make(chan string, 16)
	c.mu.Lock()
	c.watchers = append(c.watchers, ch)
	c.mu.Unlock()
	return ch
}

func (c *MapContainer) signal(id string) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, ch := range c.watchers {
		select {
		case ch <- id:
		default:
			// Slow watcher; drop rather than block the author-side mutation.
		}
	}
}

func (c *MapContainer) Block(id string) (*Block, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	b, ok := c.blocks[id]
	return b, ok
}

func (c *MapContainer) NextOf(id string) (string, bool) {
	b, ok := c.Block(id)
	if !ok || b.Next == "" {
		return "", false
	}
	return b.Next, true
}

func (c *MapContainer) BranchOf(id string, k int) (string, bool) {
	if k < 1 || k > 2 {
		return "", false
	}
	b, ok := c.Block(id)
	if !ok {
		return "", false
	}
	target := b.Branches[k-1]
	if target == "" {
		return "", false
	}
	return target, true
}

func (c *MapContainer) ProcedureDefinition(proccode string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	id, ok := c.procDefs[proccode]
	return id, ok
}

func (c *MapContainer) ProcedureParams(proccode string) (ProcedureInfo, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	info, ok := c.procParams[proccode]
	return info, ok
}

func (c *MapContainer) ForceNoGlow() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.noGlow
}

var _ Container = (*MapContainer)(nil)
