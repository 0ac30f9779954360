package tree

import (
	"slices"
	"sync"
	"time"

	"github.com/tliron/commonlog"

	"github.com/dhamidi/caret/invariant"
)

type op uint8

const (
	opRoots op = iota + 1
	opChildren
	opResolve
)

func (o op) String() string {
	switch o {
	case opRoots:
		return "roots"
	case opChildren:
		return "children"
	case opResolve:
		return "resolve"
	default:
		return "unknown"
	}
}

type cacheKey struct {
	op   op
	root bool // the operation applies to the root level, not to node
	node string
	arg  string
}

type entry struct {
	op    op
	nodes []Node
	node  Node
	found bool
	at    time.Time
}

// Cache memoizes Roots, Children and Resolve of a wrapped Source for a
// fixed time to live. Expiry is checked on access. Errors are never
// stored, so a failed call is retried by the next caller. Payload is passed
// through unchanged.
//
// Cache is safe for concurrent use. Concurrent misses on one key may each
// call the wrapped source; the last result stored wins.
type Cache struct {
	src Source
	ttl time.Duration
	now func() time.Time
	log commonlog.Logger

	mu      sync.RWMutex
	entries map[cacheKey]*entry
}

type CacheOption func(*Cache)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) CacheOption {
	return func(c *Cache) {
		c.now = now
	}
}

func WithLogger(log commonlog.Logger) CacheOption {
	return func(c *Cache) {
		c.log = log
	}
}

// NewCache wraps src. A ttl of zero or less disables caching.
func NewCache(src Source, ttl time.Duration, opts ...CacheOption) *Cache {
	c := &Cache{
		src:     src,
		ttl:     ttl,
		now:     time.Now,
		log:     commonlog.GetLogger("caret.cache"),
		entries: make(map[cacheKey]*entry),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Cache) Source() Source { return c.src }

func (c *Cache) TTL() time.Duration { return c.ttl }

func (c *Cache) lookup(k cacheKey) (*entry, bool) {
	if c.ttl <= 0 {
		return nil, false
	}

	c.mu.RLock()
	e, ok := c.entries[k]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}

	invariant.Invariant(!e.at.IsZero(), "cache entry %v has no insertion time", k)
	invariant.Invariant(e.op == k.op, "cache entry for %v holds a %v result", k.op, e.op)
	invariant.Invariant(!e.found || e.node != nil, "cache entry %v is found without a node", k)

	if c.now().Sub(e.at) > c.ttl {
		c.mu.Lock()
		if c.entries[k] == e {
			delete(c.entries, k)
		}
		c.mu.Unlock()
		return nil, false
	}
	return e, true
}

func (c *Cache) store(k cacheKey, e *entry) {
	if c.ttl <= 0 {
		return
	}
	e.op = k.op
	e.at = c.now()

	c.mu.Lock()
	c.entries[k] = e
	c.mu.Unlock()
}

func (c *Cache) Roots() ([]Node, error) {
	k := cacheKey{op: opRoots, root: true}
	if e, ok := c.lookup(k); ok {
		return slices.Clone(e.nodes), nil
	}

	nodes, err := c.src.Roots()
	if err != nil {
		return nil, err
	}
	c.log.Debugf("cached roots (%d)", len(nodes))
	c.store(k, &entry{nodes: nodes})
	return slices.Clone(nodes), nil
}

func (c *Cache) Children(n Node) ([]Node, error) {
	k := cacheKey{op: opChildren, node: n.Key()}
	if e, ok := c.lookup(k); ok {
		return slices.Clone(e.nodes), nil
	}

	nodes, err := c.src.Children(n)
	if err != nil {
		return nil, err
	}
	c.log.Debugf("cached children of %q (%d)", n.Key(), len(nodes))
	c.store(k, &entry{nodes: nodes})
	return slices.Clone(nodes), nil
}

func (c *Cache) Resolve(parent Node, name string) (Node, bool, error) {
	k := cacheKey{op: opResolve, root: parent == nil, arg: name}
	if parent != nil {
		k.node = parent.Key()
	}
	if e, ok := c.lookup(k); ok {
		return e.node, e.found, nil
	}

	node, found, err := c.src.Resolve(parent, name)
	if err != nil {
		return nil, false, err
	}
	c.store(k, &entry{node: node, found: found})
	return node, found, nil
}

func (c *Cache) Payload(n Node) (any, error) {
	return c.src.Payload(n)
}

// Purge drops every entry.
func (c *Cache) Purge() {
	c.mu.Lock()
	n := len(c.entries)
	clear(c.entries)
	c.mu.Unlock()

	if n > 0 {
		c.log.Debugf("purged %d entries", n)
	}
}

// Sweep drops expired entries and reports how many were removed. Lookups
// ignore expired entries anyway; Sweep only bounds memory.
func (c *Cache) Sweep() int {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for k, e := range c.entries {
		if now.Sub(e.at) > c.ttl {
			delete(c.entries, k)
			removed++
		}
	}
	return removed
}

// Len reports the number of stored entries, expired ones included.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
