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

package shm

import (
	"sync/atomic"
	"unsafe"
)

// Counter is an 8-byte-aligned uint64 word living inside a mapped segment,
// used for sample-slab refcounts and dynamic-config generation numbers. It
// is the one place this module reaches for unsafe.Pointer: every other
// shared-memory access goes through Allocator's offset bookkeping. Any
// process that mapped the same segment observes the same counter value
// without locking, per spec's "wait-free writer coordination" requirement.
type Counter struct {
	p *uint64
}

// CounterAt binds a Counter to the 8 bytes at offset. offset must be 8-byte
// aligned and offset+8 must not exceed the segment's size; callers within
// this module satisfy this by construction (slab/slot headers always start
// on an 8-byte boundary).
func (s *Segment) CounterAt(offset uint32) *Counter {
	return &Counter{p: (*uint64)(unsafe.Pointer(&s.data[offset]))}
}

func (c *Counter) Load() uint64 {
	return atomic.LoadUint64(c.p)
}

func (c *Counter) Store(v uint64) {
	atomic.StoreUint64(c.p, v)
}

func (c *Counter) Add(delta uint64) uint64 {
	return atomic.AddUint64(c.p, delta)
}

// Sub decrements the counter by delta, saturating at zero rather than
// wrapping — a refcount can never legitimately go negative, but a
// programming error that tries should not corrupt a neighboring slab.
func (c *Counter) Sub(delta uint64) uint64 {
	for {
		old := atomic.LoadUint64(c.p)
		next := old
		if delta >= old {
			next = 0
		} else {
			next = old - delta
		}
		if atomic.CompareAndSwapUint64(c.p, old, next) {
			return next
		}
	}
}

func (c *Counter) CompareAndSwap(old, new uint64) bool {
	return atomic.CompareAndSwapUint64(c.p, old, new)
}
