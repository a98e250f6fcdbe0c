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

// Package sample provides the scoped borrow handles returned by ports:
// SampleMut/Sample for publish-subscribe, RequestMut/Request and
// ResponseMut/Response for request-response. Each handle is a thin view
// over a slab owned by a shm.Allocator; Go has no destructors, so what the
// wire protocol calls "dropping" the handle is an explicit call to
// Release (received handles) or Send (loaned handles, done by the owning
// port, not here).
//
// A SampleMut/RequestMut/ResponseMut is produced by a Loan call and is
// exclusively owned until it is hashed off to a port's Send, at which
// point the port consumes it via Consume and the caller must not touch
// it again. A Sample/Request/Response is received data: Release decrements
// the slab's refcount and frees it once every recipient has released it.
package sample

import (
	"sync"
	"sync/atomic"

	"github.com/ipcmesh/ipcmesh/shm"
)

// SampleMut is an exclusively-owned, not-yet-sent loan of a publisher slab.
type SampleMut struct {
	alloc    *shm.Allocator
	offset   uint32
	mu       sync.Mutex
	consumed bool
}

// NewMut wraps a freshly allocated payload offset. Used by the port package
// right after a successful Allocator.Alloc.
func NewMut(alloc *shm.Allocator, offset uint32) *SampleMut {
	return &SampleMut{alloc: alloc, offset: offset}
}

// Bytes returns the mutable payload view, writable in place (the zero-copy
// path: no serialization, no second buffer).
func (s *SampleMut) Bytes() []byte { return s.alloc.Payload(s.offset) }

// Len returns the payload length recorded at allocation time.
func (s *SampleMut) Len() int { return int(s.alloc.LengthAt(s.offset)) }

// Consume marks the loan as handed off to Send, returning its slab offset.
// The second return is false if the loan was already consumed or released.
func (s *SampleMut) Consume() (uint32, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.consumed {
		return 0, false
	}
	s.consumed = true
	return s.offset, true
}

// Release abandons a loan without sending it, returning the slab to the
// allocator immediately.
func (s *SampleMut) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.consumed {
		return
	}
	s.consumed = true
	s.alloc.Free(s.offset)
}

// Sample is a received, read-only, refcounted view of a publisher slab.
type Sample struct {
	alloc    *shm.Allocator
	offset   uint32
	released int32
}

// NewSample wraps offset for a recipient that already holds a claim on the
// slab's refcount (e.g. a connection's ring slot, or a publisher's history
// entry) and is handing that claim off to this handle. It does not itself
// increment the refcount: Release below performs the one matching
// decrement for whichever earlier Add put the claim there. Callers
// borrowing the same slab for N independent recipients must Add(1) per
// extra recipient themselves before wrapping it.
func NewSample(alloc *shm.Allocator, offset uint32) *Sample {
	return &Sample{alloc: alloc, offset: offset}
}

func (s *Sample) Bytes() []byte { return s.alloc.Payload(s.offset) }
func (s *Sample) Len() int      { return int(s.alloc.LengthAt(s.offset)) }

// Release decrements the slab's refcount, freeing it back to the allocator
// once every recipient (and the publisher's own hold, if still pending) has
// released. Safe to call more than once; only the first call has effect.
func (s *Sample) Release() {
	if !atomic.CompareAndSwapInt32(&s.released, 0, 1) {
		return
	}
	if s.alloc.RefcountAt(s.offset).Sub(1) == 0 {
		s.alloc.Free(s.offset)
	}
}
