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

package port

import liberr "github.com/ipcmesh/ipcmesh/errors"

const (
	errSegmentCreateFailed liberr.CodeError = iota + liberr.MinPkgPort
	errAttachFailed
	errNoSuchConnection
)

func init() {
	liberr.RegisterIdFctMessage(errSegmentCreateFailed, getMessage)
}

func getMessage(code liberr.CodeError) string {
	switch code {
	case errSegmentCreateFailed:
		return "failed to create port data segment"
	case errAttachFailed:
		return "failed to attach port to dynamic config"
	case errNoSuchConnection:
		return "no connection for the given peer port"
	default:
		return liberr.UnknownMessage
	}
}
