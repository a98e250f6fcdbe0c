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
	"encoding/binary"
	"sync"

	liberr "github.com/ipcmesh/ipcmesh/errors"
)

// Strategy names a growth policy for the allocator's slab pool. The value
// is stored by NewAllocator but Alloc does not consult it: every strategy
// behaves like Static, a fixed pool of count slabs that never grows.
// PowerOfTwo and BestFit do not double the pool or carve variable-length
// gaps.
type Strategy int

const (
	Static Strategy = iota
	PowerOfTwo
	BestFit
)

const slabHeaderSize = 16 // refcount counter (8) + length (8)

// Allocator carves fixed-size slabs out of a Segment for a publisher's data
// segment. Each slab has a small header (refcount, length) immediately
// followed by up to slotSize bytes of payload; Alloc/Free return/accept the
// offset of the payload area, never the header, so callers never need to
// know the header layout.
//
// Slab allocation is single-threaded by contract (spec §5: "single-threaded
// (publisher-owned) or mutex-protected if the publisher is shared across
// threads") — Allocator always takes the mutex, since a Publisher may
// legitimately be shared between goroutines within one process.
type Allocator struct {
	mu       sync.Mutex
	seg      *Segment
	strategy Strategy
	slotSize uint32
	count    uint32
	base     uint32
	free     []uint32 // offsets (of payload area) currently unused
}

// NewAllocator reserves count slabs of slotSize bytes each at the start of
// seg (base offset baseOffset), all initially free. Typically
// baseOffset is 0 when the segment is dedicated to one allocator, as
// publisher data segments are.
func NewAllocator(seg *Segment, baseOffset uint32, slotSize uint32, count uint32, strategy Strategy) *Allocator {
	a := &Allocator{
		seg:      seg,
		strategy: strategy,
		slotSize: slotSize,
		count:    count,
		base:     baseOffset,
		free:     make([]uint32, 0, count),
	}
	for i := uint32(0); i < count; i++ {
		off := baseOffset + i*(slabHeaderSize+slotSize)
		a.initSlab(off)
		a.free = append(a.free, off)
	}
	return a
}

func (a *Allocator) initSlab(off uint32) {
	a.seg.CounterAt(off).Store(0)
	binary.LittleEndian.PutUint64(a.seg.data[off+8:off+16], 0)
}

// Alloc reserves a free slab able to hold length bytes and returns the
// offset of its payload area. Fails with ExceedsMaxLoans (via
// KindExceedsMaxLoans) when no slab is free; the pool never grows,
// whichever Strategy was given.
func (a *Allocator) Alloc(length uint32) (offset uint32, err error) {
	if length > a.slotSize {
		return 0, liberr.KindInternalFailure.Error(errSlabTooLarge.Error())
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if len(a.free) == 0 {
		return 0, liberr.KindExceedsMaxLoans.Error(errSegmentExhausted.Error())
	}

	off := a.free[len(a.free)-1]
	a.free = a.free[:len(a.free)-1]

	payload := off + slabHeaderSize
	a.seg.CounterAt(off).Store(0)
	binary.LittleEndian.PutUint64(a.seg.data[off+8:off+16], uint64(length))

	return payload, nil
}

// Free returns a previously-allocated slab (addressed by its payload offset)
// to the free pool. The caller must have already driven its refcount to
// zero; Free does not check this so that decay can forcibly reclaim a dead
// producer's slabs regardless of outstanding remote borrows.
func (a *Allocator) Free(payloadOffset uint32) {
	off := payloadOffset - slabHeaderSize

	a.mu.Lock()
	defer a.mu.Unlock()
	a.free = append(a.free, off)
}

// RefcountAt returns the atomic refcount counter for the slab holding
// payloadOffset.
func (a *Allocator) RefcountAt(payloadOffset uint32) *Counter {
	return a.seg.CounterAt(payloadOffset - slabHeaderSize)
}

// LengthAt returns the length recorded for the slab at payloadOffset.
func (a *Allocator) LengthAt(payloadOffset uint32) uint32 {
	off := payloadOffset - slabHeaderSize
	return uint32(binary.LittleEndian.Uint64(a.seg.data[off+8 : off+16]))
}

// Payload returns the mapped bytes for the slab at payloadOffset, sliced to
// its recorded length.
func (a *Allocator) Payload(payloadOffset uint32) []byte {
	l := a.LengthAt(payloadOffset)
	return a.seg.data[payloadOffset : payloadOffset+l]
}

// Available reports the number of currently-free slabs.
func (a *Allocator) Available() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.free)
}

// Capacity returns the total number of slabs this allocator manages.
func (a *Allocator) Capacity() uint32 { return a.count }
