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

package node

import (
	"github.com/ipcmesh/ipcmesh/service"
)

// Builder is the entry point returned by Node.ServiceBuilder; pick exactly
// one pattern-specific method to continue.
type Builder struct {
	node *Node
	name string
}

// PublishSubscribe continues the builder down the publish/subscribe path.
func (b *Builder) PublishSubscribe(cfg service.PubSubConfig) *PubSubServiceBuilder {
	return &PubSubServiceBuilder{b: b, cfg: cfg}
}

// Event continues the builder down the event path.
func (b *Builder) Event(cfg service.EventConfig) *EventServiceBuilder {
	return &EventServiceBuilder{b: b, cfg: cfg}
}

// RequestResponse continues the builder down the request/response path.
func (b *Builder) RequestResponse(cfg service.RequestResponseConfig) *RequestResponseServiceBuilder {
	return &RequestResponseServiceBuilder{b: b, cfg: cfg}
}

// PubSubServiceBuilder opens or creates a publish/subscribe service.
type PubSubServiceBuilder struct {
	b        *Builder
	cfg      service.PubSubConfig
	attrs    service.Attributes
	reqAttrs map[string][]string
}

func (p *PubSubServiceBuilder) static() service.StaticConfig {
	return service.StaticConfig{Pattern: service.PubSub, PubSub: &p.cfg, Attributes: p.attrs}
}

// RequireAttribute marks a (key, value) pair that Open must find on the
// existing service.
func (p *PubSubServiceBuilder) RequireAttribute(key, value string) *PubSubServiceBuilder {
	if p.reqAttrs == nil {
		p.reqAttrs = make(map[string][]string)
	}
	p.reqAttrs[key] = append(p.reqAttrs[key], value)
	return p
}

func (p *PubSubServiceBuilder) Open() (*service.Service, error) {
	svc, err := p.b.node.reg.Open(p.b.name, service.PubSub, p.static(), p.reqAttrs)
	return p.b.node.joined(svc, err)
}

func (p *PubSubServiceBuilder) Create() (*service.Service, error) {
	svc, err := p.b.node.reg.Create(p.b.name, service.PubSub, p.static())
	return p.b.node.joined(svc, err)
}

func (p *PubSubServiceBuilder) OpenOrCreate() (*service.Service, error) {
	svc, err := p.b.node.reg.OpenOrCreate(p.b.name, service.PubSub, p.static(), p.reqAttrs)
	return p.b.node.joined(svc, err)
}

// EventServiceBuilder opens or creates an event service.
type EventServiceBuilder struct {
	b        *Builder
	cfg      service.EventConfig
	attrs    service.Attributes
	reqAttrs map[string][]string
}

func (e *EventServiceBuilder) static() service.StaticConfig {
	return service.StaticConfig{Pattern: service.Event, Event: &e.cfg, Attributes: e.attrs}
}

func (e *EventServiceBuilder) RequireAttribute(key, value string) *EventServiceBuilder {
	if e.reqAttrs == nil {
		e.reqAttrs = make(map[string][]string)
	}
	e.reqAttrs[key] = append(e.reqAttrs[key], value)
	return e
}

func (e *EventServiceBuilder) Open() (*service.Service, error) {
	svc, err := e.b.node.reg.Open(e.b.name, service.Event, e.static(), e.reqAttrs)
	return e.b.node.joined(svc, err)
}

func (e *EventServiceBuilder) Create() (*service.Service, error) {
	svc, err := e.b.node.reg.Create(e.b.name, service.Event, e.static())
	return e.b.node.joined(svc, err)
}

func (e *EventServiceBuilder) OpenOrCreate() (*service.Service, error) {
	svc, err := e.b.node.reg.OpenOrCreate(e.b.name, service.Event, e.static(), e.reqAttrs)
	return e.b.node.joined(svc, err)
}

// RequestResponseServiceBuilder opens or creates a request/response service.
type RequestResponseServiceBuilder struct {
	b        *Builder
	cfg      service.RequestResponseConfig
	attrs    service.Attributes
	reqAttrs map[string][]string
}

func (r *RequestResponseServiceBuilder) static() service.StaticConfig {
	return service.StaticConfig{Pattern: service.RequestResponse, RequestResponse: &r.cfg, Attributes: r.attrs}
}

func (r *RequestResponseServiceBuilder) RequireAttribute(key, value string) *RequestResponseServiceBuilder {
	if r.reqAttrs == nil {
		r.reqAttrs = make(map[string][]string)
	}
	r.reqAttrs[key] = append(r.reqAttrs[key], value)
	return r
}

func (r *RequestResponseServiceBuilder) Open() (*service.Service, error) {
	svc, err := r.b.node.reg.Open(r.b.name, service.RequestResponse, r.static(), r.reqAttrs)
	return r.b.node.joined(svc, err)
}

func (r *RequestResponseServiceBuilder) Create() (*service.Service, error) {
	svc, err := r.b.node.reg.Create(r.b.name, service.RequestResponse, r.static())
	return r.b.node.joined(svc, err)
}

func (r *RequestResponseServiceBuilder) OpenOrCreate() (*service.Service, error) {
	svc, err := r.b.node.reg.OpenOrCreate(r.b.name, service.RequestResponse, r.static(), r.reqAttrs)
	return r.b.node.joined(svc, err)
}
