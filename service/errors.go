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

import liberr "github.com/ipcmesh/ipcmesh/errors"

const (
	errPatternMismatch liberr.CodeError = iota + liberr.MinPkgServiceBuilder
	errCapTooLow
	errTypeMismatch
	errFlagMismatch
	errAttributeMissing
)

func init() {
	liberr.RegisterIdFctMessage(errPatternMismatch, getMessage)
}

func getMessage(code liberr.CodeError) string {
	switch code {
	case errPatternMismatch:
		return "requested pattern does not match the existing service"
	case errCapTooLow:
		return "existing service capacity is lower than requested"
	case errTypeMismatch:
		return "payload or user-header type details do not match exactly"
	case errFlagMismatch:
		return "overflow policy or payload variant does not match exactly"
	case errAttributeMissing:
		return "a required attribute key/value is missing"
	default:
		return liberr.UnknownMessage
	}
}
