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

// Package dynamic holds a service's dynamic config: the mutable record of
// which ports and nodes are currently attached. Every entry carries a
// generation number taken from a counter that both Attach and Detach
// advance; Detach deletes the entry, so a later attachment never reuses an
// earlier generation.
//
// Entries are additionally indexed by generation in a github.com/google/btree
// ordered tree; AscendFromGeneration walks it from a given generation,
// wrapping around, so a repeated scan can resume where the previous one
// stopped. The waitset package does not use this index.
//
// The entry set lives only in process memory, guarded by a mutex. It is not
// written to a shm.Segment or any other shared region, so other processes
// do not observe it.
package dynamic
