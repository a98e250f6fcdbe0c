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

// Registry is the ambient metrics sink every domain package reports
// against. A nil Registry is never passed around; callers that don't want
// metrics use NoOp() instead, so call sites never need a nil check.
type Registry interface {
	// PortAttached/PortDetached track live port counts per kind string
	// ("publisher", "subscriber", "notifier", "listener", "client",
	// "server").
	PortAttached(kind string)
	PortDetached(kind string)

	// SampleSent/SampleReceived count successful deliveries per service
	// name. SampleOverflowed counts descriptors evicted under the Overflow
	// policy. SampleDiscarded counts descriptors dropped undelivered: under
	// the Discard policy, when a Block deadline passes, and when a request or
	// response cannot be delivered.
	SampleSent(service string)
	SampleReceived(service string)
	SampleOverflowed(service string)
	SampleDiscarded(service string)

	// DecaySweepRun records one completed decay.Sweep call;
	// NodesReclaimed adds the number of dead nodes it reclaimed.
	DecaySweepRun()
	NodesReclaimed(n int)
}

type noop struct{}

// NoOp returns a Registry whose methods do nothing, for processes that
// don't run a metrics exporter.
func NoOp() Registry { return noop{} }

func (noop) PortAttached(string)     {}
func (noop) PortDetached(string)     {}
func (noop) SampleSent(string)       {}
func (noop) SampleReceived(string)   {}
func (noop) SampleOverflowed(string) {}
func (noop) SampleDiscarded(string)  {}
func (noop) DecaySweepRun()          {}
func (noop) NodesReclaimed(int)      {}
