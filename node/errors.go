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

import liberr "github.com/ipcmesh/ipcmesh/errors"

const (
	errMkdirFailed liberr.CodeError = iota + liberr.MinPkgNode
	errLockFailed
	errWriteInfoFailed
	errReadInfoFailed
	errListFailed
)

func init() {
	liberr.RegisterIdFctMessage(errMkdirFailed, getMessage)
}

func getMessage(code liberr.CodeError) string {
	switch code {
	case errMkdirFailed:
		return "failed to create nodes directory"
	case errLockFailed:
		return "failed to acquire node liveness token"
	case errWriteInfoFailed:
		return "failed to write node static-info file"
	case errReadInfoFailed:
		return "failed to read node static-info file"
	case errListFailed:
		return "failed to list nodes directory"
	default:
		return liberr.UnknownMessage
	}
}
