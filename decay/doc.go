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

// Package decay implements the liveness sweep (spec §4.8): it lists the
// node directory, identifies dead nodes by winning the non-blocking
// exclusive lock their owning process would still hold if alive, and
// reclaims every port they had attached across every service the registry
// knows about.
//
// Reclaiming one dead node is itself guarded by a dedicated per-node
// destruction lock (also a github.com/gofrs/flock file lock) so that two
// processes racing the same sweep both succeed: one performs the
// reclamation, the other observes the files already gone and no-ops. Errors
// reclaiming individual nodes are collected with
// github.com/hashicorp/go-multierror rather than aborting the sweep; nodes
// are reclaimed concurrently with golang.org/x/sync/errgroup.
//
// Within this process's view, "every service the registry knows about" is
// the registry's in-process cache of opened/created services — the same
// pragmatic narrowing of the dynamic config's cross-process visibility
// documented in service/dynamic; a sweep run by a process that never opened
// a given service cannot reclaim that node's entries in it.
package decay
