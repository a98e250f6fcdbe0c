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

package sample

import "github.com/ipcmesh/ipcmesh/shm"

// RequestMut is a client's loaned, not-yet-sent request payload.
type RequestMut struct{ *SampleMut }

// Request is a server's received request.
type Request struct{ *Sample }

// ResponseMut is a server's loaned, not-yet-sent response payload.
type ResponseMut struct{ *SampleMut }

// Response is a client's received response.
type Response struct{ *Sample }

func NewRequestMut(alloc *shm.Allocator, offset uint32) RequestMut {
	return RequestMut{NewMut(alloc, offset)}
}

func NewRequest(alloc *shm.Allocator, offset uint32) Request {
	return Request{NewSample(alloc, offset)}
}

func NewResponseMut(alloc *shm.Allocator, offset uint32) ResponseMut {
	return ResponseMut{NewMut(alloc, offset)}
}

func NewResponse(alloc *shm.Allocator, offset uint32) Response {
	return Response{NewSample(alloc, offset)}
}
