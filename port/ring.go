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

import "sync"

// Descriptor addresses one sample's slab inside a producer's (publisher,
// client or server) data segment. Correlation is unused (zero) for
// publish-subscribe; request-response sets it to the originating request's
// correlation id, so a server dequeuing a request descriptor knows which
// per-request response ring to eventually answer on.
type Descriptor struct {
	Offset      uint32
	Length      uint32
	Correlation uint64
}

// Ring is a fixed-capacity FIFO queue of Descriptors, mutex-protected (see
// doc.go for why this isn't the lock-free SPSC the design notes describe).
type Ring struct {
	mu   sync.Mutex
	buf  []Descriptor
	head int
	n    int
}

// NewRing allocates a ring able to hold capacity descriptors.
func NewRing(capacity int) *Ring {
	if capacity < 1 {
		capacity = 1
	}
	return &Ring{buf: make([]Descriptor, capacity)}
}

func (r *Ring) Cap() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.buf)
}

func (r *Ring) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.n
}

// Push enqueues d, returning false if the ring is already full.
func (r *Ring) Push(d Descriptor) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.n == len(r.buf) {
		return false
	}
	r.buf[(r.head+r.n)%len(r.buf)] = d
	r.n++
	return true
}

// Pop dequeues the oldest descriptor, if any.
func (r *Ring) Pop() (Descriptor, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.n == 0 {
		return Descriptor{}, false
	}
	d := r.buf[r.head]
	r.head = (r.head + 1) % len(r.buf)
	r.n--
	return d, true
}

// EvictOldest drops the oldest descriptor to make room, returning it so the
// caller can release its slab refcount.
func (r *Ring) EvictOldest() (Descriptor, bool) {
	return r.Pop()
}
