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

package waitset

import (
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	liberr "github.com/ipcmesh/ipcmesh/errors"
	"github.com/ipcmesh/ipcmesh/port"
)

// AttachmentId identifies one attached notification/deadline/interval
// source within a WaitSet, passed to WaitAndProcess's callback.
type AttachmentId uint64

// RunResult is the outcome of WaitAndProcess.
type RunResult uint8

const (
	// Stopped means the callback returned false.
	Stopped RunResult = iota
	// TerminationRequested means a process-wide interrupt arrived.
	TerminationRequested
	// NoAttachments means the waitset had nothing left attached.
	NoAttachments
)

var (
	interruptOnce sync.Once
	interruptCh   = make(chan struct{})
)

func installInterruptHandler() {
	interruptOnce.Do(func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		go func() {
			<-sig
			close(interruptCh)
		}()
	})
}

type attachment struct {
	id      AttachmentId
	stopCh  chan struct{}
	stopped bool
}

// Guard represents one attachment; Detach removes it from its WaitSet.
type Guard struct {
	ws *WaitSet
	id AttachmentId
}

func (g *Guard) ID() AttachmentId { return g.id }

// Detach stops the attachment's internal forwarding goroutine and removes
// it from the waitset. Safe to call more than once.
func (g *Guard) Detach() {
	g.ws.detach(g.id)
}

// WaitSet multiplexes over attached listeners and timers.
type WaitSet struct {
	mu      sync.Mutex
	next    AttachmentId
	attachs map[AttachmentId]*attachment
	readyCh chan AttachmentId
	closed  bool
}

// New creates an empty WaitSet.
func New() *WaitSet {
	return &WaitSet{
		attachs: make(map[AttachmentId]*attachment),
		readyCh: make(chan AttachmentId, 64),
	}
}

func (ws *WaitSet) add() (*attachment, error) {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	if ws.closed {
		return nil, liberr.KindInternalFailure.Error(errClosed.Error())
	}
	ws.next++
	a := &attachment{id: ws.next, stopCh: make(chan struct{})}
	ws.attachs[a.id] = a
	return a, nil
}

func (ws *WaitSet) detach(id AttachmentId) {
	ws.mu.Lock()
	a, ok := ws.attachs[id]
	if ok {
		delete(ws.attachs, id)
	}
	ws.mu.Unlock()
	if ok && !a.stopped {
		a.stopped = true
		close(a.stopCh)
	}
}

func (ws *WaitSet) send(a *attachment) {
	select {
	case ws.readyCh <- a.id:
	case <-a.stopCh:
	}
}

// AttachNotification triggers once per wake whenever l has a pending event.
func (ws *WaitSet) AttachNotification(l *port.Listener) (*Guard, error) {
	a, err := ws.add()
	if err != nil {
		return nil, err
	}
	go func() {
		for {
			select {
			case <-l.Notified():
				ws.send(a)
			case <-a.stopCh:
				return
			}
		}
	}()
	return &Guard{ws: ws, id: a.id}, nil
}

// AttachDeadline triggers on any event from l, or when duration elapses
// without one — whichever comes first, then restarts the clock.
func (ws *WaitSet) AttachDeadline(l *port.Listener, duration time.Duration) (*Guard, error) {
	a, err := ws.add()
	if err != nil {
		return nil, err
	}
	go func() {
		timer := time.NewTimer(duration)
		defer timer.Stop()
		for {
			select {
			case <-l.Notified():
				ws.send(a)
				if !timer.Stop() {
					<-timer.C
				}
				timer.Reset(duration)
			case <-timer.C:
				ws.send(a)
				timer.Reset(duration)
			case <-a.stopCh:
				return
			}
		}
	}()
	return &Guard{ws: ws, id: a.id}, nil
}

// AttachInterval triggers every duration, independent of any listener.
func (ws *WaitSet) AttachInterval(duration time.Duration) (*Guard, error) {
	a, err := ws.add()
	if err != nil {
		return nil, err
	}
	go func() {
		ticker := time.NewTicker(duration)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				ws.send(a)
			case <-a.stopCh:
				return
			}
		}
	}()
	return &Guard{ws: ws, id: a.id}, nil
}

// WaitAndProcess blocks across as many wakes as it takes, calling fn once
// per distinct triggered AttachmentId on each wake (in no particular
// order, deduplicated within that wake), and only returns when fn signals
// stop (returns false), when a process-wide interrupt arrives (any
// already-queued but unvisited ids remain buffered for the next call), or
// when no attachments remain.
func (ws *WaitSet) WaitAndProcess(fn func(AttachmentId) bool) RunResult {
	installInterruptHandler()

	for {
		ws.mu.Lock()
		empty := len(ws.attachs) == 0
		ws.mu.Unlock()
		if empty {
			return NoAttachments
		}

		select {
		case id := <-ws.readyCh:
			if !ws.drain(id, fn) {
				return Stopped
			}
		case <-interruptCh:
			return TerminationRequested
		}
	}
}

// drain processes first (the id that woke WaitAndProcess) plus every other
// id already queued in readyCh, without blocking further, so no attachment
// pending at wake time is skipped (spec "must not starve"). Returns false
// as soon as fn signals stop.
func (ws *WaitSet) drain(first AttachmentId, fn func(AttachmentId) bool) bool {
	seen := map[AttachmentId]bool{first: true}
	if !fn(first) {
		return false
	}
	for {
		select {
		case id := <-ws.readyCh:
			if seen[id] {
				continue
			}
			seen[id] = true
			if !fn(id) {
				return false
			}
		default:
			return true
		}
	}
}

// Close detaches every attachment, stopping all of their goroutines.
func (ws *WaitSet) Close() {
	ws.mu.Lock()
	ws.closed = true
	attachs := make([]*attachment, 0, len(ws.attachs))
	for _, a := range ws.attachs {
		attachs = append(attachs, a)
	}
	ws.attachs = make(map[AttachmentId]*attachment)
	ws.mu.Unlock()

	for _, a := range attachs {
		if !a.stopped {
			a.stopped = true
			close(a.stopCh)
		}
	}
}
