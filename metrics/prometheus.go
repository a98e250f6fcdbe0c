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

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// prom is a Registry backed by github.com/prometheus/client_golang. Each
// method is a thin wrapper over a labeled Counter — safe for concurrent use,
// since prometheus.CounterVec already is.
type prom struct {
	portsAttached     *prometheus.CounterVec
	portsDetached     *prometheus.CounterVec
	samplesSent       *prometheus.CounterVec
	samplesReceived   *prometheus.CounterVec
	samplesOverflowed *prometheus.CounterVec
	samplesDiscarded  *prometheus.CounterVec
	decaySweeps       prometheus.Counter
	nodesReclaimed    prometheus.Counter
}

// NewPrometheus builds a Registry and registers its collectors against reg
// (pass prometheus.DefaultRegisterer for the global registry).
func NewPrometheus(reg prometheus.Registerer) Registry {
	p := &prom{
		portsAttached: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ipcmesh",
			Name:      "ports_attached_total",
			Help:      "Ports attached to a service's dynamic config, by kind.",
		}, []string{"kind"}),
		portsDetached: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ipcmesh",
			Name:      "ports_detached_total",
			Help:      "Ports detached from a service's dynamic config, by kind.",
		}, []string{"kind"}),
		samplesSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ipcmesh",
			Name:      "samples_sent_total",
			Help:      "Samples successfully delivered to a connection, by service.",
		}, []string{"service"}),
		samplesReceived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ipcmesh",
			Name:      "samples_received_total",
			Help:      "Samples received by a subscriber/client/server, by service.",
		}, []string{"service"}),
		samplesOverflowed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ipcmesh",
			Name:      "samples_overflowed_total",
			Help:      "Samples that evicted a queued descriptor under the Overflow policy, by service.",
		}, []string{"service"}),
		samplesDiscarded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ipcmesh",
			Name:      "samples_discarded_total",
			Help:      "Samples, requests and responses dropped undelivered (Discard policy, expired Block deadline, undeliverable request or response), by service.",
		}, []string{"service"}),
		decaySweeps: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ipcmesh",
			Name:      "decay_sweeps_total",
			Help:      "Completed decay.Sweep calls.",
		}),
		nodesReclaimed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ipcmesh",
			Name:      "decay_nodes_reclaimed_total",
			Help:      "Dead nodes reclaimed across all decay sweeps.",
		}),
	}

	reg.MustRegister(
		p.portsAttached, p.portsDetached,
		p.samplesSent, p.samplesReceived, p.samplesOverflowed, p.samplesDiscarded,
		p.decaySweeps, p.nodesReclaimed,
	)
	return p
}

func (p *prom) PortAttached(kind string)     { p.portsAttached.WithLabelValues(kind).Inc() }
func (p *prom) PortDetached(kind string)     { p.portsDetached.WithLabelValues(kind).Inc() }
func (p *prom) SampleSent(service string)    { p.samplesSent.WithLabelValues(service).Inc() }
func (p *prom) SampleReceived(service string) {
	p.samplesReceived.WithLabelValues(service).Inc()
}
func (p *prom) SampleOverflowed(service string) {
	p.samplesOverflowed.WithLabelValues(service).Inc()
}
func (p *prom) SampleDiscarded(service string) {
	p.samplesDiscarded.WithLabelValues(service).Inc()
}
func (p *prom) DecaySweepRun()       { p.decaySweeps.Inc() }
func (p *prom) NodesReclaimed(n int) { p.nodesReclaimed.Add(float64(n)) }
