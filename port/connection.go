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

package port

import (
	"sync"
	"sync/atomic"

	"github.com/ipcmesh/ipcmesh/id"
	"github.com/ipcmesh/ipcmesh/shm"
)

// Connection is the shared descriptor ring between one producer port
// (publisher or server) and one consumer port (subscriber or client).
type Connection struct {
	Producer id.PortID
	Consumer id.PortID
	Ring     *Ring
	expired  int32
}

func (c *Connection) MarkExpired()   { atomic.StoreInt32(&c.expired, 1) }
func (c *Connection) IsExpired() bool { return atomic.LoadInt32(&c.expired) != 0 }

type connKey struct {
	producer id.PortID
	consumer id.PortID
}

var (
	connMu    sync.Mutex
	connTable = make(map[connKey]*Connection)
)

// getOrCreateConnection returns the shared Connection for (producer,
// consumer), creating it with the given ring capacity if this is the first
// side to discover the pair.
func getOrCreateConnection(producer, consumer id.PortID, capacity int) *Connection {
	key := connKey{producer: producer, consumer: consumer}

	connMu.Lock()
	defer connMu.Unlock()
	if c, ok := connTable[key]; ok {
		return c
	}
	c := &Connection{Producer: producer, Consumer: consumer, Ring: NewRing(capacity)}
	connTable[key] = c
	return c
}

// dropConnectionsFor removes every connection touching port (as either side),
// called when a port closes so a stale entry isn't handed out to a future
// port id that happens to collide (practically impossible with random
// UUIDs, but keeps the table from growing unboundedly across a long-lived
// process).
func dropConnectionsFor(port id.PortID) {
	connMu.Lock()
	defer connMu.Unlock()
	for k := range connTable {
		if k.producer == port || k.consumer == port {
			delete(connTable, k)
		}
	}
}

// allocTable lets a descriptor's recipient (subscriber or client) resolve
// the shm.Allocator that owns the slab a descriptor addresses, keyed by the
// producing port's id. A producer registers its allocator as soon as it
// creates its data segment, before any connection exists, so a consumer
// that discovers the producer first never races an unset entry.
var allocTable sync.Map // id.PortID -> *shm.Allocator

func registerAllocator(producer id.PortID, alloc *shm.Allocator) {
	allocTable.Store(producer, alloc)
}

func lookupAllocator(producer id.PortID) (*shm.Allocator, bool) {
	v, ok := allocTable.Load(producer)
	if !ok {
		return nil, false
	}
	return v.(*shm.Allocator), true
}

func unregisterAllocator(producer id.PortID) {
	allocTable.Delete(producer)
}
