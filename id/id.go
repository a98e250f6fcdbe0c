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

package id

import (
	"github.com/google/uuid"

	liberr "github.com/ipcmesh/ipcmesh/errors"
)

// NodeID uniquely identifies a Node for the lifetime of its process
// participation. Never reused: a released Node's id is never reissued.
type NodeID uuid.UUID

// PortID uniquely identifies a port (publisher, subscriber, notifier,
// listener, client or server) within the process that created it.
type PortID uuid.UUID

// ServiceID uniquely identifies a Service. Unlike NodeID/PortID it is not
// random: it is derived deterministically from the service's configuration
// prefix, name and messaging pattern, so every process naming the same
// triple computes the same id without a lookup.
type ServiceID uuid.UUID

// Nil is the zero-value identifier, never assigned to a live node, port or
// service. Useful as a "not set" sentinel in dynamic-config slots.
var (
	NilNodeID    = NodeID(uuid.Nil)
	NilPortID    = PortID(uuid.Nil)
	NilServiceID = ServiceID(uuid.Nil)
)

// serviceNamespace roots the deterministic UUIDv5 derivation of ServiceID.
// Fixed and arbitrary: only its stability across processes matters.
var serviceNamespace = uuid.MustParse("d7a16f0a-6e0a-4a9c-8e8b-2c6a9f2e6b11")

// NewNodeID allocates a fresh random node identifier.
func NewNodeID() (NodeID, error) {
	u, err := uuid.NewRandom()
	if err != nil {
		return NilNodeID, liberr.KindInsufficientResources.Error(err)
	}
	return NodeID(u), nil
}

// NewPortID allocates a fresh random port identifier.
func NewPortID() (PortID, error) {
	u, err := uuid.NewRandom()
	if err != nil {
		return NilPortID, liberr.KindInsufficientResources.Error(err)
	}
	return PortID(u), nil
}

// DeriveServiceID computes the deterministic identifier for a service keyed
// by (prefix, name, pattern): the same triple always yields the same id, in
// any process, without coordination. pattern should be a small stable tag
// (see service.Pattern.String()) since it participates in the derivation.
func DeriveServiceID(prefix, name, pattern string) ServiceID {
	data := prefix + "\x00" + name + "\x00" + pattern
	return ServiceID(uuid.NewSHA1(serviceNamespace, []byte(data)))
}

func (n NodeID) String() string    { return uuid.UUID(n).String() }
func (p PortID) String() string    { return uuid.UUID(p).String() }
func (s ServiceID) String() string { return uuid.UUID(s).String() }

func (n NodeID) IsNil() bool    { return n == NilNodeID }
func (p PortID) IsNil() bool    { return p == NilPortID }
func (s ServiceID) IsNil() bool { return s == NilServiceID }

// Bytes returns the 16 raw identifier bytes, suitable for embedding into a
// shared-memory dynamic-config slot.
func (n NodeID) Bytes() [16]byte { return uuid.UUID(n) }
func (p PortID) Bytes() [16]byte { return uuid.UUID(p) }
func (s ServiceID) Bytes() [16]byte { return uuid.UUID(s) }

// NodeIDFromBytes reconstructs a NodeID from 16 raw bytes, as read back out
// of a dynamic-config slot.
func NodeIDFromBytes(b [16]byte) NodeID { return NodeID(uuid.UUID(b)) }

// PortIDFromBytes reconstructs a PortID from 16 raw bytes.
func PortIDFromBytes(b [16]byte) PortID { return PortID(uuid.UUID(b)) }

// ParseNodeID parses the textual form produced by NodeID.String().
func ParseNodeID(s string) (NodeID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return NilNodeID, liberr.KindInvalidName.Error(err)
	}
	return NodeID(u), nil
}

// ParseServiceID parses the textual form produced by ServiceID.String().
func ParseServiceID(s string) (ServiceID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return NilServiceID, liberr.KindInvalidName.Error(err)
	}
	return ServiceID(u), nil
}
