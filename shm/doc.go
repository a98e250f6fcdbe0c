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

// Package shm is the shared-memory abstraction every higher layer builds on:
// named, memory-mapped segments with atomic create-if-absent semantics
// (github.com/xujiajun/mmap-go backed by golang.org/x/sys for the underlying
// Flock/Mmap syscalls), a slab allocator that carves request-sized regions
// out of a segment and hands back stable byte offsets (never pointers, so
// the same slab is valid at whatever base address each process happens to
// map the segment to), and a small atomic-counter helper used for refcounts
// and generation numbers that must be visible, without locking, to every
// process mapping the segment.
//
// Nothing above this package touches a raw mmap.MMap or syscall directly.
package shm
