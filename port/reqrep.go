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

	"golang.org/x/sync/semaphore"

	"github.com/ipcmesh/ipcmesh/config"
	liberr "github.com/ipcmesh/ipcmesh/errors"
	"github.com/ipcmesh/ipcmesh/id"
	"github.com/ipcmesh/ipcmesh/logger"
	"github.com/ipcmesh/ipcmesh/sample"
	"github.com/ipcmesh/ipcmesh/service"
	"github.com/ipcmesh/ipcmesh/service/dynamic"
	"github.com/ipcmesh/ipcmesh/shm"
)

// responseKey identifies one request's dedicated response ring: the
// correlation id is a per-client counter, so it is only unique together with
// the client id, and the server id separates the rings that different
// servers keep for the same request (spec §4.5.1 "a per-request response
// ring from each server").
type responseKey struct {
	server      id.PortID
	client      id.PortID
	correlation uint64
}

type responseChannel struct {
	ring       *Ring
	clientGone int32
}

var (
	responseMu     sync.Mutex
	responseChans  = make(map[responseKey]*responseChannel)
)

func nextCorrelation(counter *uint64) uint64 { return atomic.AddUint64(counter, 1) }

// Client is the requesting end of a request-response service.
type Client struct {
	id  id.PortID
	nid id.NodeID
	svc *service.Service

	seg   *shm.Segment
	alloc *shm.Allocator

	mu          sync.Mutex
	connections map[id.PortID]*Connection // server port -> request connection
	correlation uint64
	log         logger.Logger
}

// NewClient creates the client's outbound request data segment, attaches
// into svc's dynamic config, and connects to every server already present.
func NewClient(cfg *config.Global, svc *service.Service, nid id.NodeID, log logger.Logger) (*Client, error) {
	pid, err := id.NewPortID()
	if err != nil {
		return nil, err
	}
	if _, err = svc.Dynamic.Attach(dynamic.Client, nid, pid); err != nil {
		return nil, liberr.KindInternalFailure.Error(errAttachFailed.Error(err))
	}

	rrc := svc.Static.RequestResponse
	seg, alloc, err := newDataSegment(cfg, svc.ID, pid, uint32(rrc.Request.Size), rrc.MaxServers*4)
	if err != nil {
		return nil, err
	}
	registerAllocator(pid, alloc)

	c := &Client{
		id:          pid,
		nid:         nid,
		svc:         svc,
		seg:         seg,
		alloc:       alloc,
		connections: make(map[id.PortID]*Connection),
		log:         log,
	}
	c.connect()
	metricsReg.PortAttached("client")
	return c, nil
}

func (c *Client) ID() id.PortID { return c.id }

func (c *Client) connect() {
	servers := c.svc.Dynamic.Snapshot(dynamic.Server)
	capacity := int(c.svc.Static.RequestResponse.ServerBufferSize)
	if capacity < 1 {
		capacity = 1
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, e := range servers {
		if _, ok := c.connections[e.Port]; ok {
			continue
		}
		c.connections[e.Port] = getOrCreateConnection(c.id, e.Port, capacity)
	}
}

// Loan reserves a request slab.
func (c *Client) Loan() (sample.RequestMut, error) {
	off, err := c.alloc.Alloc(uint32(c.svc.Static.RequestResponse.Request.Size))
	if err != nil {
		return sample.RequestMut{}, err
	}
	return sample.NewRequestMut(c.alloc, off), nil
}

// PendingResponse is a scoped handle bound to one request's correlation
// id, reading responses from every server the request was dispatched to.
type PendingResponse struct {
	client      id.PortID
	correlation uint64
	servers     []id.PortID
	closed      int32
}

// Send dispatches req to every live server, returning a PendingResponse
// bound to the request's correlation id.
func (c *Client) Send(req sample.RequestMut) (*PendingResponse, error) {
	off, ok := req.Consume()
	if !ok {
		return nil, liberr.KindInternalFailure.Error()
	}

	c.connect()
	correlation := nextCorrelation(&c.correlation)
	d := Descriptor{Offset: off, Length: uint32(c.alloc.LengthAt(off)), Correlation: correlation}

	c.mu.Lock()
	conns := make([]*Connection, 0, len(c.connections))
	for _, conn := range c.connections {
		conns = append(conns, conn)
	}
	c.mu.Unlock()

	pr := &PendingResponse{client: c.id, correlation: correlation}
	for _, conn := range conns {
		if conn.IsExpired() {
			continue
		}
		responseMu.Lock()
		key := responseKey{server: conn.Consumer, client: c.id, correlation: correlation}
		respCap := int(c.svc.Static.RequestResponse.ClientBufferSize)
		if respCap < 1 {
			respCap = 1
		}
		responseChans[key] = &responseChannel{ring: NewRing(respCap)}
		responseMu.Unlock()

		if conn.Ring.Push(d) {
			c.alloc.RefcountAt(off).Add(1)
			pr.servers = append(pr.servers, conn.Consumer)
			metricsReg.SampleSent(c.svc.Name)
		} else {
			responseMu.Lock()
			delete(responseChans, key)
			responseMu.Unlock()
			metricsReg.SampleDiscarded(c.svc.Name)
		}
	}

	if len(pr.servers) == 0 {
		c.alloc.Free(off)
	}
	return pr, nil
}

// SendCopy loans a request, copies value into it and sends it.
func (c *Client) SendCopy(value []byte) (*PendingResponse, error) {
	req, err := c.Loan()
	if err != nil {
		return nil, err
	}
	copy(req.Bytes(), value)
	return c.Send(req)
}

// Receive returns the next available response from any server this
// request was dispatched to (nil, false if none yet).
func (pr *PendingResponse) Receive() (sample.Response, bool) {
	for _, srv := range pr.servers {
		key := responseKey{server: srv, client: pr.client, correlation: pr.correlation}
		responseMu.Lock()
		ch := responseChans[key]
		responseMu.Unlock()
		if ch == nil {
			continue
		}
		d, ok := ch.ring.Pop()
		if !ok {
			continue
		}
		alloc, ok := lookupAllocator(srv)
		if !ok {
			continue
		}
		return sample.NewResponse(alloc, d.Offset), true
	}
	return sample.Response{}, false
}

// Close signals every server this request was dispatched to that the
// client is no longer interested, so their ActiveRequest.IsConnected()
// observes false (cooperative cancellation, spec §4.5.1).
func (pr *PendingResponse) Close() {
	if !atomic.CompareAndSwapInt32(&pr.closed, 0, 1) {
		return
	}
	for _, srv := range pr.servers {
		key := responseKey{server: srv, client: pr.client, correlation: pr.correlation}
		responseMu.Lock()
		if ch, ok := responseChans[key]; ok {
			atomic.StoreInt32(&ch.clientGone, 1)
		}
		responseMu.Unlock()
	}
}

// Close detaches the client and forgets its request connections.
func (c *Client) Close() error {
	_ = c.svc.Dynamic.Detach(dynamic.Client, c.id)
	unregisterAllocator(c.id)
	dropConnectionsFor(c.id)
	metricsReg.PortDetached("client")
	return c.seg.Unlink()
}

// Server is the responding end of a request-response service.
type Server struct {
	id  id.PortID
	nid id.NodeID
	svc *service.Service

	seg   *shm.Segment
	alloc *shm.Allocator
	loans *semaphore.Weighted

	mu          sync.Mutex
	connections []*Connection
	log         logger.Logger
}

// NewServer creates the server's outbound response data segment, attaches
// into svc's dynamic config, and connects to every client already present.
func NewServer(cfg *config.Global, svc *service.Service, nid id.NodeID, log logger.Logger) (*Server, error) {
	pid, err := id.NewPortID()
	if err != nil {
		return nil, err
	}
	if _, err = svc.Dynamic.Attach(dynamic.Server, nid, pid); err != nil {
		return nil, liberr.KindInternalFailure.Error(errAttachFailed.Error(err))
	}

	rrc := svc.Static.RequestResponse
	count := rrc.MaxClients * 4
	seg, alloc, err := newDataSegment(cfg, svc.ID, pid, uint32(rrc.Response.Size), count)
	if err != nil {
		return nil, err
	}
	registerAllocator(pid, alloc)

	s := &Server{
		id:    pid,
		nid:   nid,
		svc:   svc,
		seg:   seg,
		alloc: alloc,
		loans: semaphore.NewWeighted(int64(count)),
		log:   log,
	}
	s.connect()
	metricsReg.PortAttached("server")
	return s, nil
}

func (s *Server) ID() id.PortID { return s.id }

func (s *Server) connect() {
	clients := s.svc.Dynamic.Snapshot(dynamic.Client)
	capacity := int(s.svc.Static.RequestResponse.ServerBufferSize)
	if capacity < 1 {
		capacity = 1
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	known := make(map[id.PortID]bool, len(s.connections))
	for _, c := range s.connections {
		known[c.Producer] = true
	}
	for _, e := range clients {
		if known[e.Port] {
			continue
		}
		s.connections = append(s.connections, getOrCreateConnection(e.Port, s.id, capacity))
	}
}

// ActiveRequest is a server-received request, carrying enough context to
// loan and send responses tied to the same correlation id.
type ActiveRequest struct {
	srv         *Server
	client      id.PortID
	correlation uint64
	payload     sample.Request
}

func (a *ActiveRequest) Bytes() []byte { return a.payload.Bytes() }

// IsConnected reports whether the client's PendingResponse still exists.
func (a *ActiveRequest) IsConnected() bool {
	key := responseKey{server: a.srv.id, client: a.client, correlation: a.correlation}
	responseMu.Lock()
	ch := responseChans[key]
	responseMu.Unlock()
	return ch != nil && atomic.LoadInt32(&ch.clientGone) == 0
}

// LoanResponse reserves a response slab from the server's data segment.
func (a *ActiveRequest) LoanResponse() (sample.ResponseMut, error) {
	if !a.srv.loans.TryAcquire(1) {
		return sample.ResponseMut{}, liberr.KindExceedsMaxLoans.Error()
	}
	off, err := a.srv.alloc.Alloc(uint32(a.srv.svc.Static.RequestResponse.Response.Size))
	if err != nil {
		a.srv.loans.Release(1)
		return sample.ResponseMut{}, err
	}
	return sample.NewResponseMut(a.srv.alloc, off), nil
}

// SendResponse routes resp back to the client through its per-request
// response ring. Stale responses (the client cancelled) are discarded.
func (a *ActiveRequest) SendResponse(resp sample.ResponseMut) error {
	off, ok := resp.Consume()
	if !ok {
		return liberr.KindInternalFailure.Error()
	}
	a.srv.loans.Release(1)

	key := responseKey{server: a.srv.id, client: a.client, correlation: a.correlation}
	responseMu.Lock()
	ch := responseChans[key]
	responseMu.Unlock()

	if ch == nil || atomic.LoadInt32(&ch.clientGone) != 0 {
		a.srv.alloc.Free(off)
		metricsReg.SampleDiscarded(a.srv.svc.Name)
		return nil
	}

	d := Descriptor{Offset: off, Length: uint32(a.srv.alloc.LengthAt(off)), Correlation: a.correlation}
	if !ch.ring.Push(d) {
		a.srv.alloc.Free(off)
		metricsReg.SampleDiscarded(a.srv.svc.Name)
		return nil
	}
	a.srv.alloc.RefcountAt(off).Add(1)
	metricsReg.SampleSent(a.srv.svc.Name)
	return nil
}

// SendCopy loans a response, copies value into it, and sends it.
func (a *ActiveRequest) SendCopy(value []byte) error {
	resp, err := a.LoanResponse()
	if err != nil {
		return err
	}
	copy(resp.Bytes(), value)
	return a.SendResponse(resp)
}

// Release drops the request payload's reference. It does not close the
// response stream.
func (a *ActiveRequest) Release() { a.payload.Release() }

// Receive returns the next available request (nil, false if none).
func (s *Server) Receive() (*ActiveRequest, bool) {
	s.connect()

	s.mu.Lock()
	conns := append([]*Connection(nil), s.connections...)
	s.mu.Unlock()

	for _, conn := range conns {
		d, ok := conn.Ring.Pop()
		if !ok {
			continue
		}
		alloc, ok := lookupAllocator(conn.Producer)
		if !ok {
			continue
		}
		metricsReg.SampleReceived(s.svc.Name)
		return &ActiveRequest{
			srv:         s,
			client:      conn.Producer,
			correlation: d.Correlation,
			payload:     sample.NewRequest(alloc, d.Offset),
		}, true
	}
	return nil, false
}

// Close detaches the server and forgets its connections.
func (s *Server) Close() error {
	_ = s.svc.Dynamic.Detach(dynamic.Server, s.id)
	unregisterAllocator(s.id)
	dropConnectionsFor(s.id)
	metricsReg.PortDetached("server")
	return s.seg.Unlink()
}
