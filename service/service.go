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

package service

import (
	"github.com/ipcmesh/ipcmesh/id"
	"github.com/ipcmesh/ipcmesh/service/dynamic"
)

// Service is a named, pattern-typed rendezvous point: a deterministic id, a
// name, the sealed StaticConfig it was created or opened with, and a live
// reference to its dynamic config. Ports attach to Dynamic directly; Service
// itself exposes no port-factory methods so the port package stays the only
// place that knows how to build one.
type Service struct {
	ID      id.ServiceID
	Name    string
	Static  StaticConfig
	Dynamic *dynamic.Config
}

// PortCapacities returns the [6]int capacity array dynamic.New expects,
// derived from the pattern-specific static config's Max* fields, in
// dynamic.PortKind order (Publisher, Subscriber, Notifier, Listener,
// Client, Server).
func (c StaticConfig) PortCapacities() [6]int {
	switch c.Pattern {
	case PubSub:
		return [6]int{int(c.PubSub.MaxPublishers), int(c.PubSub.MaxSubscribers), 0, 0, 0, 0}
	case Event:
		return [6]int{0, 0, int(c.Event.MaxNotifiers), int(c.Event.MaxListeners), 0, 0}
	case RequestResponse:
		return [6]int{0, 0, 0, 0, int(c.RequestResponse.MaxClients), int(c.RequestResponse.MaxServers)}
	default:
		return [6]int{}
	}
}
