/*
 * MIT License
 *
 * Copyright (c) 2024 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 */

package dynamic

import (
	"sync"
	"sync/atomic"

	"github.com/google/btree"

	liberr "github.com/ipcmesh/ipcmesh/errors"
	"github.com/ipcmesh/ipcmesh/id"
)

// PortKind enumerates the six port roles tracked by a service's dynamic
// config (spec §3 "Port").
type PortKind uint8

const (
	Publisher PortKind = iota
	Subscriber
	Notifier
	Listener
	Client
	Server
	numKinds
)

// Entry is one live (or recently-expired) attachment in the dynamic config.
type Entry struct {
	Generation uint64
	Kind       PortKind
	Node       id.NodeID
	Port       id.PortID
	// Expired marks a subscriber-side connection whose publisher has
	// detached; it stays readable until drained (spec §4.3.2).
	Expired bool
}

// Config is a service's dynamic config: the live set of attached ports and
// nodes, plus a generation-ordered index walked by AscendFromGeneration.
type Config struct {
	mu  sync.RWMutex
	gen uint64

	caps    [numKinds]int
	entries [numKinds]map[id.PortID]*Entry

	nodes map[id.NodeID]int // refcount of ports-per-node, for "every live Node holds its liveness lock" bookkeeping

	index *btree.BTreeG[genItem]
}

type genItem struct {
	generation uint64
	port       id.PortID
}

func genLess(a, b genItem) bool { return a.generation < b.generation }

// New creates an empty dynamic config with the given per-kind capacities.
func New(capacities [6]int) *Config {
	c := &Config{
		nodes: make(map[id.NodeID]int),
		index: btree.NewG[genItem](32, genLess),
	}
	for k := 0; k < int(numKinds); k++ {
		c.caps[k] = capacities[k]
		c.entries[k] = make(map[id.PortID]*Entry)
	}
	return c
}

// Attach registers a new port of the given kind under node, failing with
// KindExceedsMaxSupportedPorts if the kind's capacity is already reached.
func (c *Config) Attach(kind PortKind, node id.NodeID, port id.PortID) (*Entry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.entries[kind]) >= c.caps[kind] {
		return nil, liberr.KindExceedsMaxSupportedPorts.Error()
	}

	g := atomic.AddUint64(&c.gen, 1)
	e := &Entry{Generation: g, Kind: kind, Node: node, Port: port}
	c.entries[kind][port] = e
	c.nodes[node]++
	c.index.ReplaceOrInsert(genItem{generation: g, port: port})

	return e, nil
}

// Detach removes port (of the given kind), incrementing the generation
// counter so any index entry referencing the old generation is known stale
// (spec §6.3 "removal marks the slot with an incremented generation").
func (c *Config) Detach(kind PortKind, port id.PortID) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[kind][port]
	if !ok {
		return liberr.KindDoesNotExist.Error(errSlotNotFound.Error())
	}

	c.index.Delete(genItem{generation: e.Generation, port: port})
	delete(c.entries[kind], port)
	atomic.AddUint64(&c.gen, 1)

	if n := c.nodes[e.Node]; n <= 1 {
		delete(c.nodes, e.Node)
	} else {
		c.nodes[e.Node] = n - 1
	}

	return nil
}

// MarkExpired flags a subscriber's connection entry as expired without
// removing it, so the subscriber keeps draining buffered samples (spec
// §4.3.2 "Expired connections").
func (c *Config) MarkExpired(kind PortKind, port id.PortID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[kind][port]; ok {
		e.Expired = true
	}
}

// Snapshot returns a copy of every entry of the given kind, in no
// particular order; callers needing fairness across repeated scans should
// use AscendFromGeneration instead.
func (c *Config) Snapshot(kind PortKind) []Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Entry, 0, len(c.entries[kind]))
	for _, e := range c.entries[kind] {
		out = append(out, *e)
	}
	return out
}

// EntriesForNode returns every entry (any kind) owned by node. Used by decay
// to find everything to reclaim for a dead node.
func (c *Config) EntriesForNode(node id.NodeID) []Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var out []Entry
	for k := 0; k < int(numKinds); k++ {
		for _, e := range c.entries[PortKind(k)] {
			if e.Node == node {
				out = append(out, *e)
			}
		}
	}
	return out
}

// NodeCount returns the number of distinct nodes with at least one attached
// port, for MaxNodes enforcement.
func (c *Config) NodeCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.nodes)
}

// AscendFromGeneration walks the generation-ordered index starting at the
// first entry with generation >= from, wrapping around to the beginning
// once the end is reached, visiting every live port exactly once, so a
// caller can resume a scan where it left off instead of always starting at
// the lowest-generation (oldest) attachment.
func (c *Config) AscendFromGeneration(from uint64, visit func(kind PortKind, e Entry) bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	lookup := func(port id.PortID) (PortKind, Entry, bool) {
		for k := 0; k < int(numKinds); k++ {
			if e, ok := c.entries[PortKind(k)][port]; ok {
				return PortKind(k), *e, true
			}
		}
		return 0, Entry{}, false
	}

	visited := make(map[id.PortID]bool)
	stopped := false

	c.index.AscendGreaterOrEqual(genItem{generation: from}, func(it genItem) bool {
		visited[it.port] = true
		if kind, e, ok := lookup(it.port); ok {
			if !visit(kind, e) {
				stopped = true
				return false
			}
		}
		return true
	})
	if stopped {
		return
	}

	c.index.Ascend(func(it genItem) bool {
		if it.generation >= from || visited[it.port] {
			return true
		}
		visited[it.port] = true
		if kind, e, ok := lookup(it.port); ok {
			if !visit(kind, e) {
				return false
			}
		}
		return true
	})
}

// Generation returns the current write generation counter, for callers that
// persist a snapshot and want to detect whether it is stale.
func (c *Config) Generation() uint64 {
	return atomic.LoadUint64(&c.gen)
}
