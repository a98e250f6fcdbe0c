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

// Package port implements the six port kinds a Node attaches to a service:
// Publisher/Subscriber (publish-subscribe), Notifier/Listener (event), and
// Client/Server (request-response). Every port registers itself into its
// service's dynamic config (service/dynamic.Config) on construction and
// detaches on Close, the same attach/detach contract decay uses to reclaim
// a dead node's ports.
//
// Connections. A publisher-subscriber or client-server pair communicates
// through a Connection: a fixed-capacity descriptor ring plus an expired
// flag. Descriptors (shm slab offset + length) travel through the ring;
// the actual payload bytes never move, satisfying the zero-copy contract.
// Every connection for a given ordered (producer port id, consumer port id)
// pair is shared out of a single process-wide table (connTable in
// connection.go) so that whichever side discovers the other first creates
// it, and the other side's next scan finds the same object. Real
// cross-process iceoryx2 places this ring in a third shared-memory segment
// keyed by both port ids; here, since dynamic config itself already lives
// only in this process's memory (see service/dynamic's doc comment), the
// connection table is an in-process map instead. The ring's internal
// locking is a single mutex rather than the lock-free SPSC algorithm the
// design notes describe, because the Overflow policy needs the producer
// side to evict the consumer's oldest entry — a second-writer operation a
// pure single-producer/single-consumer ring cannot support without its own
// coordination. This is the same kind of simplification recorded for
// dynamic config's generation index; it preserves the API and ordering
// guarantees the spec requires without claiming a true lock-free
// implementation.
//
// Event ids. A Listener's pending event ids are merged into a Go set
// (map[uint64]struct{}) guarded by a mutex, with a buffered channel of
// capacity 1 as the OS-level wake-up primitive: multiple Notify calls
// between drains coalesce into at most one channel send, matching the
// "wake-ups are coalesced" requirement.
package port
