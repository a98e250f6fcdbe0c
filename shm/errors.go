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

package shm

import liberr "github.com/ipcmesh/ipcmesh/errors"

// Package-internal diagnostic codes, nested as the parent of the Kind-level
// error every exported function actually returns (see errors.go callers).
const (
	errMapFailed liberr.CodeError = iota + liberr.MinPkgShm
	errTruncateFailed
	errUnlinkFailed
	errSlabTooLarge
	errSegmentExhausted
	errInvalidOffset
)

func init() {
	liberr.RegisterIdFctMessage(errMapFailed, getMessage)
}

func getMessage(code liberr.CodeError) string {
	switch code {
	case errMapFailed:
		return "failed to memory-map segment"
	case errTruncateFailed:
		return "failed to size backing file"
	case errUnlinkFailed:
		return "failed to unlink segment backing file"
	case errSlabTooLarge:
		return "requested slab exceeds allocator slot size"
	case errSegmentExhausted:
		return "segment has no free slab available"
	case errInvalidOffset:
		return "offset does not address a live slab"
	default:
		return liberr.UnknownMessage
	}
}
