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

// Pattern is the messaging contract a service implements. Two services with
// the same name but different patterns are distinct services (spec §3).
type Pattern uint8

const (
	PubSub Pattern = iota
	Event
	RequestResponse
)

func (p Pattern) String() string {
	switch p {
	case PubSub:
		return "pubsub"
	case Event:
		return "event"
	case RequestResponse:
		return "request-response"
	default:
		return "unknown"
	}
}

// Variant distinguishes a single fixed-size payload instance from a
// variable-length slice view.
type Variant uint8

const (
	FixedSize Variant = iota
	Slice
)

// OverflowPolicy governs what Publisher.Send does when a subscriber's
// connection queue is full.
type OverflowPolicy uint8

const (
	// Overflow reclaims the oldest enqueued descriptor to make room.
	Overflow OverflowPolicy = iota
	// Discard skips delivery to the full subscriber; the sample is lost for
	// that one subscriber only.
	Discard
	// Block makes Send wait for the subscriber to drain, up to a deadline.
	Block
)

// TypeDetails records a payload or user-header's byte layout, checked
// bit-exact between requester and existing service on Open (spec §4.2, §9
// "type safety across processes").
type TypeDetails struct {
	Name      string `json:"name"`
	Size      uint64 `json:"size"`
	Alignment uint64 `json:"alignment"`
}

func (t TypeDetails) equal(o TypeDetails) bool {
	return t.Name == o.Name && t.Size == o.Size && t.Alignment == o.Alignment
}
