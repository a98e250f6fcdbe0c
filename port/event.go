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
	"time"

	liberr "github.com/ipcmesh/ipcmesh/errors"
	"github.com/ipcmesh/ipcmesh/id"
	"github.com/ipcmesh/ipcmesh/logger"
	"github.com/ipcmesh/ipcmesh/service"
	"github.com/ipcmesh/ipcmesh/service/dynamic"
)

// listenerSignal is a Listener's mailbox: a merged set of pending event ids
// plus a capacity-1 wake channel. Concurrent Notify calls coalesce into at
// most one pending wake, and the posted ids accumulate as a set (spec
// §4.4.2 "wake-ups are coalesced").
type listenerSignal struct {
	mu      sync.Mutex
	pending map[uint64]struct{}
	wake    chan struct{}
}

func newListenerSignal() *listenerSignal {
	return &listenerSignal{pending: make(map[uint64]struct{}), wake: make(chan struct{}, 1)}
}

func (l *listenerSignal) post(eventID uint64) {
	l.mu.Lock()
	l.pending[eventID] = struct{}{}
	l.mu.Unlock()
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// takeOne removes and returns an arbitrary pending id (spec: no ordering
// guarantee within a wake).
func (l *listenerSignal) takeOne() (uint64, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for eid := range l.pending {
		delete(l.pending, eid)
		return eid, true
	}
	return 0, false
}

var (
	signalsMu sync.Mutex
	signals   = make(map[id.PortID]*listenerSignal)
)

// Notifier is the signaling end of an event service.
type Notifier struct {
	id             id.PortID
	nid            id.NodeID
	svc            *service.Service
	defaultEventID uint64
}

// NewNotifier attaches into svc's dynamic config and, if the service
// configures a notifier-created-event, publishes it to every existing
// listener. defaultEventID is the id Notify() (no explicit id) posts.
func NewNotifier(svc *service.Service, nid id.NodeID, defaultEventID uint64, log logger.Logger) (*Notifier, error) {
	pid, err := id.NewPortID()
	if err != nil {
		return nil, err
	}
	if _, err = svc.Dynamic.Attach(dynamic.Notifier, nid, pid); err != nil {
		return nil, liberr.KindInternalFailure.Error(errAttachFailed.Error(err))
	}
	n := &Notifier{id: pid, nid: nid, svc: svc, defaultEventID: defaultEventID}

	if ev := svc.Static.Event.NotifierCreatedEvent; ev != nil {
		_ = n.NotifyWithCustomEventId(*ev)
	}
	metricsReg.PortAttached("notifier")
	return n, nil
}

func (n *Notifier) ID() id.PortID { return n.id }

// Notify posts this notifier's default event id to every live listener.
func (n *Notifier) Notify() error { return n.NotifyWithCustomEventId(n.defaultEventID) }

// NotifyWithCustomEventId posts eventID to every live listener's pending
// set, failing with EventIdOutOfBounds if it exceeds the service's
// configured event-id-max.
func (n *Notifier) NotifyWithCustomEventId(eventID uint64) error {
	if max := n.svc.Static.Event.EventIdMax; eventID > max {
		return liberr.KindEventIdOutOfBounds.Error()
	}

	for _, e := range n.svc.Dynamic.Snapshot(dynamic.Listener) {
		signalsMu.Lock()
		sig := signals[e.Port]
		signalsMu.Unlock()
		if sig != nil {
			sig.post(eventID)
		}
	}
	return nil
}

// PublishEvent posts eventID to every live listener of svc without
// requiring a live Notifier handle. Used by decay when reclaiming a dead
// node's notifier ports: spec §4.8 step 3 requires delivering the
// configured "dead" event id to listeners before the notifier's entries
// are removed.
func PublishEvent(svc *service.Service, eventID uint64) {
	for _, e := range svc.Dynamic.Snapshot(dynamic.Listener) {
		signalsMu.Lock()
		sig := signals[e.Port]
		signalsMu.Unlock()
		if sig != nil {
			sig.post(eventID)
		}
	}
}

// Close detaches the notifier, publishing notifier-dropped-event first if
// the service configures one.
func (n *Notifier) Close() error {
	if ev := n.svc.Static.Event.NotifierDroppedEvent; ev != nil {
		_ = n.NotifyWithCustomEventId(*ev)
	}
	metricsReg.PortDetached("notifier")
	return n.svc.Dynamic.Detach(dynamic.Notifier, n.id)
}

// Listener is the receiving end of an event service.
type Listener struct {
	id  id.PortID
	nid id.NodeID
	svc *service.Service
	sig *listenerSignal
}

// NewListener attaches into svc's dynamic config and registers a fresh
// mailbox that every current and future Notifier can post to.
func NewListener(svc *service.Service, nid id.NodeID, log logger.Logger) (*Listener, error) {
	pid, err := id.NewPortID()
	if err != nil {
		return nil, err
	}
	if _, err = svc.Dynamic.Attach(dynamic.Listener, nid, pid); err != nil {
		return nil, liberr.KindInternalFailure.Error(errAttachFailed.Error(err))
	}

	sig := newListenerSignal()
	signalsMu.Lock()
	signals[pid] = sig
	signalsMu.Unlock()

	metricsReg.PortAttached("listener")
	return &Listener{id: pid, nid: nid, svc: svc, sig: sig}, nil
}

func (l *Listener) ID() id.PortID { return l.id }

// Notified exposes the listener's wake channel so a waitset can multiplex
// over many listeners without polling each one. A receive here does not
// drain any pending event id — callers still call TryWaitOne (or similar)
// to actually consume one.
func (l *Listener) Notified() <-chan struct{} { return l.sig.wake }

// TryWaitOne returns one pending event id without blocking.
func (l *Listener) TryWaitOne() (uint64, bool) { return l.sig.takeOne() }

// TimedWaitOne waits up to timeout for at least one event id, then drains
// one. A zero timeout behaves like TryWaitOne ("try once", spec §5).
func (l *Listener) TimedWaitOne(timeout time.Duration) (uint64, bool) {
	if eid, ok := l.sig.takeOne(); ok {
		return eid, true
	}
	if timeout <= 0 {
		return 0, false
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-l.sig.wake:
		return l.sig.takeOne()
	case <-timer.C:
		return 0, false
	}
}

// BlockingWaitAll blocks indefinitely, invoking cb once per pending event
// id on every wake (draining the whole pending set before re-blocking), and
// returns when cb returns false.
func (l *Listener) BlockingWaitAll(cb func(eventID uint64) bool) {
	for {
		for {
			eid, ok := l.sig.takeOne()
			if !ok {
				break
			}
			if !cb(eid) {
				return
			}
		}
		<-l.sig.wake
	}
}

// Close detaches the listener and removes its mailbox.
func (l *Listener) Close() error {
	signalsMu.Lock()
	delete(signals, l.id)
	signalsMu.Unlock()
	metricsReg.PortDetached("listener")
	return l.svc.Dynamic.Detach(dynamic.Listener, l.id)
}
