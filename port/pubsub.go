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
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/ipcmesh/ipcmesh/config"
	liberr "github.com/ipcmesh/ipcmesh/errors"
	"github.com/ipcmesh/ipcmesh/id"
	"github.com/ipcmesh/ipcmesh/logger"
	"github.com/ipcmesh/ipcmesh/sample"
	"github.com/ipcmesh/ipcmesh/service"
	"github.com/ipcmesh/ipcmesh/service/dynamic"
	"github.com/ipcmesh/ipcmesh/shm"
	libsiz "github.com/ipcmesh/ipcmesh/size"
)

func servicesDir(cfg *config.Global) string {
	return filepath.Join(cfg.RootPath, cfg.Prefix+"services")
}

func dataSegmentPath(cfg *config.Global, sid id.ServiceID, pid id.PortID) string {
	return filepath.Join(servicesDir(cfg), sid.String()+"-"+pid.String()+cfg.Suffixes.PublisherDataSegment)
}

const slabHeaderBytes = 16

// newDataSegment creates (or reuses) the port-owned data segment at
// cfg/svc/pid, sized for count slabs of slotSize bytes, and carves an
// Allocator out of it. Shared by Publisher and the request-response ports,
// all of which own exactly one data segment for their outbound payloads.
func newDataSegment(cfg *config.Global, sid id.ServiceID, pid id.PortID, slotSize uint32, count uint64) (*shm.Segment, *shm.Allocator, error) {
	if slotSize == 0 {
		slotSize = 64
	}
	if count == 0 {
		count = 8
	}
	segSize := libsiz.Size(count * (uint64(slotSize) + slabHeaderBytes))

	seg, err := shm.OpenOrCreate(dataSegmentPath(cfg, sid, pid), segSize)
	if err != nil {
		return nil, nil, liberr.KindInsufficientResources.Error(errSegmentCreateFailed.Error(err))
	}
	alloc := shm.NewAllocator(seg, 0, slotSize, uint32(count), shm.Static)
	return seg, alloc, nil
}

// Publisher is the producing end of a publish-subscribe service.
type Publisher struct {
	id  id.PortID
	nid id.NodeID
	svc *service.Service

	seg   *shm.Segment
	alloc *shm.Allocator
	loans *semaphore.Weighted

	mu          sync.Mutex
	connections map[id.PortID]*Connection
	history     []Descriptor
	historyCap  int

	sendTimeout time.Duration
	log         logger.Logger
}

// NewPublisher creates a data segment sized for the service's
// publisher-max-loaned-samples, attaches into svc's dynamic config, and
// registers its allocator so subscribers that discover it can resolve
// descriptors.
func NewPublisher(cfg *config.Global, svc *service.Service, nid id.NodeID, log logger.Logger) (*Publisher, error) {
	pid, err := id.NewPortID()
	if err != nil {
		return nil, err
	}
	if _, err = svc.Dynamic.Attach(dynamic.Publisher, nid, pid); err != nil {
		return nil, liberr.KindInternalFailure.Error(errAttachFailed.Error(err))
	}

	psc := svc.Static.PubSub
	count := psc.PublisherMaxLoanedSamples
	if count == 0 {
		count = 8
	}
	seg, alloc, err := newDataSegment(cfg, svc.ID, pid, uint32(psc.Payload.Size), count)
	if err != nil {
		return nil, err
	}
	registerAllocator(pid, alloc)
	metricsReg.PortAttached("publisher")

	p := &Publisher{
		id:          pid,
		nid:         nid,
		svc:         svc,
		seg:         seg,
		alloc:       alloc,
		loans:       semaphore.NewWeighted(int64(count)),
		connections: make(map[id.PortID]*Connection),
		historyCap:  int(psc.PublisherHistorySize),
		sendTimeout: 5 * time.Second,
		log:         log,
	}
	return p, nil
}

func (p *Publisher) ID() id.PortID { return p.id }

// LoanUninit reserves a slab of length bytes, admission-controlled by the
// service's publisher-max-loaned-samples.
func (p *Publisher) LoanUninit(length uint32) (*sample.SampleMut, error) {
	if !p.loans.TryAcquire(1) {
		return nil, liberr.KindExceedsMaxLoans.Error()
	}
	off, err := p.alloc.Alloc(length)
	if err != nil {
		p.loans.Release(1)
		return nil, err
	}
	return sample.NewMut(p.alloc, off), nil
}

// Loan reserves a slab and copies value into it.
func (p *Publisher) Loan(value []byte) (*sample.SampleMut, error) {
	m, err := p.LoanUninit(uint32(len(value)))
	if err != nil {
		return nil, err
	}
	copy(m.Bytes(), value)
	return m, nil
}

// Abandon returns a loan that will never be sent, releasing both its slab
// and its admission-control permit. Callers that intend to Send should not
// call Abandon; Send consumes the loan itself.
func (p *Publisher) Abandon(m *sample.SampleMut) {
	m.Release()
	p.loans.Release(1)
}

// UpdateConnections re-scans the dynamic config for subscribers this
// publisher has not yet connected to and lazily creates connections for
// them, delivering buffered history to each newly attached one.
func (p *Publisher) UpdateConnections() error {
	subs := p.svc.Dynamic.Snapshot(dynamic.Subscriber)
	live := make(map[id.PortID]bool, len(subs))

	p.mu.Lock()
	defer p.mu.Unlock()

	capacity := int(p.svc.Static.PubSub.SubscriberBufferSize)
	if capacity < 1 {
		capacity = 1
	}

	for _, e := range subs {
		live[e.Port] = true
		if _, ok := p.connections[e.Port]; ok {
			continue
		}
		conn := getOrCreateConnection(p.id, e.Port, capacity)
		p.connections[e.Port] = conn
		for _, d := range p.history {
			if conn.Ring.Push(d) {
				p.alloc.RefcountAt(d.Offset).Add(1)
			}
		}
	}

	for port, conn := range p.connections {
		if !live[port] {
			conn.MarkExpired()
			delete(p.connections, port)
		}
	}
	return nil
}

// Send enqueues m's descriptor into every live connection, applying the
// service's overflow policy to any connection whose ring is full, then
// returns the number of subscribers it was actually delivered to.
func (p *Publisher) Send(m *sample.SampleMut) (int, error) {
	off, ok := m.Consume()
	if !ok {
		return 0, liberr.KindInternalFailure.Error()
	}
	p.loans.Release(1)

	d := Descriptor{Offset: off, Length: uint32(p.alloc.LengthAt(off))}

	p.mu.Lock()
	conns := make([]*Connection, 0, len(p.connections))
	for _, c := range p.connections {
		conns = append(conns, c)
	}
	policy := p.svc.Static.PubSub.Overflow
	p.mu.Unlock()

	count := 0
	for _, conn := range conns {
		if conn.IsExpired() {
			continue
		}
		if p.deliver(conn, d, policy) {
			p.alloc.RefcountAt(off).Add(1)
			count++
			metricsReg.SampleSent(p.svc.Name)
		}
	}

	heldByHistory := p.historyAppend(d)

	if count == 0 && !heldByHistory {
		p.alloc.Free(off)
	}
	return count, nil
}

// releaseRef decrements off's refcount, freeing the slab back to the
// allocator once nothing references it anymore. Every manual refcount
// decrement in this file (outside of sample.Sample.Release, which does the
// same for subscriber-held references) must go through this helper.
func (p *Publisher) releaseRef(off uint32) {
	if p.alloc.RefcountAt(off).Sub(1) == 0 {
		p.alloc.Free(off)
	}
}

func (p *Publisher) deliver(conn *Connection, d Descriptor, policy service.OverflowPolicy) bool {
	if conn.Ring.Push(d) {
		return true
	}
	switch policy {
	case service.Overflow:
		if evicted, ok := conn.Ring.EvictOldest(); ok {
			p.releaseRef(evicted.Offset)
		}
		metricsReg.SampleOverflowed(p.svc.Name)
		return conn.Ring.Push(d)
	case service.Discard:
		metricsReg.SampleDiscarded(p.svc.Name)
		return false
	case service.Block:
		deadline := time.Now().Add(p.sendTimeout)
		for time.Now().Before(deadline) {
			if conn.Ring.Push(d) {
				return true
			}
			time.Sleep(time.Millisecond)
		}
		metricsReg.SampleDiscarded(p.svc.Name)
		return false
	default:
		return false
	}
}

// historyAppend records d in the history ring regardless of how many
// current subscribers it reached, so a subscriber that joins later still
// gets it (spec §4.3.1). Returns whether the history ring now holds a
// refcount on d's slab.
func (p *Publisher) historyAppend(d Descriptor) bool {
	if p.historyCap == 0 {
		return false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.alloc.RefcountAt(d.Offset).Add(1) // history itself holds a reference
	p.history = append(p.history, d)
	if len(p.history) > p.historyCap {
		old := p.history[0]
		p.history = p.history[1:]
		p.releaseRef(old.Offset)
	}
	return true
}

// Close detaches the publisher, drops its connections and unlinks its data
// segment. Safe to call once; behavior on a second call is unspecified.
func (p *Publisher) Close() error {
	_ = p.svc.Dynamic.Detach(dynamic.Publisher, p.id)
	unregisterAllocator(p.id)
	dropConnectionsFor(p.id)
	metricsReg.PortDetached("publisher")
	return p.seg.Unlink()
}

// Subscriber is the consuming end of a publish-subscribe service.
type Subscriber struct {
	id  id.PortID
	nid id.NodeID
	svc *service.Service

	mu          sync.Mutex
	connections []*Connection
	borrows     *semaphore.Weighted
	borrowed    int64
	log         logger.Logger
}

// NewSubscriber registers into svc's dynamic config and connects to every
// publisher already present.
func NewSubscriber(svc *service.Service, nid id.NodeID, log logger.Logger) (*Subscriber, error) {
	pid, err := id.NewPortID()
	if err != nil {
		return nil, err
	}
	if _, err = svc.Dynamic.Attach(dynamic.Subscriber, nid, pid); err != nil {
		return nil, liberr.KindInternalFailure.Error(errAttachFailed.Error(err))
	}

	maxBorrow := svc.Static.PubSub.SubscriberMaxBorrowedSamples
	if maxBorrow == 0 {
		maxBorrow = 16
	}

	s := &Subscriber{
		id:      pid,
		nid:     nid,
		svc:     svc,
		borrows: semaphore.NewWeighted(int64(maxBorrow)),
		log:     log,
	}
	s.connect()
	metricsReg.PortAttached("subscriber")
	return s, nil
}

func (s *Subscriber) ID() id.PortID { return s.id }

// connect establishes (or reuses) a connection to every publisher currently
// in the dynamic config that this subscriber does not already know about.
func (s *Subscriber) connect() {
	pubs := s.svc.Dynamic.Snapshot(dynamic.Publisher)
	capacity := int(s.svc.Static.PubSub.SubscriberBufferSize)
	if capacity < 1 {
		capacity = 1
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	known := make(map[id.PortID]bool, len(s.connections))
	for _, c := range s.connections {
		known[c.Producer] = true
	}
	for _, e := range pubs {
		if known[e.Port] {
			continue
		}
		s.connections = append(s.connections, getOrCreateConnection(e.Port, s.id, capacity))
	}
}

// Received is a Sample delivered to a Subscriber; Release both frees the
// underlying slab reference and returns the subscriber's borrow permit.
type Received struct {
	*sample.Sample
	sub *Subscriber
}

func (r *Received) Release() {
	r.Sample.Release()
	atomic.AddInt64(&r.sub.borrowed, -1)
	r.sub.borrows.Release(1)
}

// HasSamples reports whether any connection currently has a queued
// descriptor, without borrowing one.
func (s *Subscriber) HasSamples() bool {
	s.connect()
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.connections {
		if c.Ring.Len() > 0 {
			return true
		}
	}
	return false
}

// Receive returns the next available Sample (nil, nil if none), failing
// with ExceedsMaxBorrows if the subscriber already holds
// subscriber-max-borrowed-samples live samples.
func (s *Subscriber) Receive() (*Received, error) {
	s.connect()

	s.mu.Lock()
	conns := append([]*Connection(nil), s.connections...)
	s.mu.Unlock()

	for _, conn := range conns {
		d, ok := conn.Ring.Pop()
		if !ok {
			continue
		}
		if !s.borrows.TryAcquire(1) {
			return nil, liberr.KindExceedsMaxBorrows.Error()
		}
		atomic.AddInt64(&s.borrowed, 1)

		alloc, ok := lookupAllocator(conn.Producer)
		if !ok {
			s.borrows.Release(1)
			atomic.AddInt64(&s.borrowed, -1)
			return nil, liberr.KindConnectionCorrupted.Error()
		}
		metricsReg.SampleReceived(s.svc.Name)
		return &Received{Sample: sample.NewSample(alloc, d.Offset), sub: s}, nil
	}
	return nil, nil
}

// Close detaches the subscriber and forgets its connections.
func (s *Subscriber) Close() error {
	_ = s.svc.Dynamic.Detach(dynamic.Subscriber, s.id)
	dropConnectionsFor(s.id)
	metricsReg.PortDetached("subscriber")
	return nil
}
